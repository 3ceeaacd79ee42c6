package main

import (
	"fmt"
	"time"

	"github.com/mapforge/export-trigger/go/internal/export"
	"github.com/mapforge/export-trigger/go/internal/export/queue"
	"github.com/mapforge/export-trigger/go/internal/export/storage"
)

type Services struct {
	Export    *export.Handler
	publisher *queue.JetStreamPublisher
}

func setupServices(config *Config) (*Services, error) {
	// Wire up dependency chain
	// Gateways → App layer → HTTP handler

	storageClient := storage.NewClient(storage.Config{
		BaseURL: config.Storage.URL,
		Timeout: time.Duration(config.Storage.TimeoutSeconds) * time.Second,
	})

	queueConfig := queue.DefaultJetStreamConfig()
	if config.Queue.URL != "" {
		queueConfig.URL = config.Queue.URL
	}
	if config.Queue.Stream != "" {
		queueConfig.StreamName = config.Queue.Stream
	}
	if config.Queue.Subject != "" {
		queueConfig.Subject = config.Queue.Subject
	}

	publisher, err := queue.NewJetStreamPublisher(queueConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue publisher: %w", err)
	}

	exportApp := export.NewApp(storageClient, publisher, config.BBox.AreaLimitSqMeters)
	exportHandler := export.NewHandler(exportApp)

	return &Services{
		Export:    exportHandler,
		publisher: publisher,
	}, nil
}

func (s *Services) Close() error {
	return s.publisher.Close()
}
