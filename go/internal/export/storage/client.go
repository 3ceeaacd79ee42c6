package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/mapforge/export-trigger/go/clients"
	"github.com/mapforge/export-trigger/go/internal/export"
)

const (
	statusEndpoint  = "/exports/status"
	exportsEndpoint = "/exports"
)

// Config holds the storage service connection settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the HTTP gateway to the common storage service that keeps the
// durable bookkeeping of export intents.
type Client struct {
	base *clients.BaseClient
}

// Verify that Client implements the StorageGateway interface
var _ export.StorageGateway = (*Client)(nil)

func NewClient(cfg Config) *Client {
	base := clients.NewBaseClient(cfg.BaseURL)
	base.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		base.SetTimeout(cfg.Timeout)
	}

	log.Info().Str("url", cfg.BaseURL).Msg("storage gateway created")
	return &Client{base: base}
}

// exportRecord is the wire shape of a persisted export intent
type exportRecord struct {
	TaskID        string            `json:"taskId"`
	Status        string            `json:"status"`
	Polygon       *geojson.Geometry `json:"polygon"`
	BBox          []float64         `json:"bbox"`
	MaxZoom       int               `json:"maxZoom"`
	FileName      string            `json:"fileName"`
	DirectoryName string            `json:"directoryName"`
	URL           string            `json:"url"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// GetExportStatus fetches the aggregate export status. Read only, no side effects.
func (c *Client) GetExportStatus(ctx context.Context) (*export.ExportStatusResponse, error) {
	log.Debug().Msg("getting geopackage export status")

	body, err := c.base.Get(ctx, statusEndpoint)
	if err != nil {
		return nil, &export.StatusFetchError{Err: err}
	}

	var status export.ExportStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &export.StatusFetchError{Err: fmt.Errorf("failed to decode status response: %w", err)}
	}

	return &status, nil
}

// SaveExportData creates the durable record for an accepted export task.
// Not idempotent: the caller attempts it at most once per task ID.
func (c *Client) SaveExportData(ctx context.Context, task *export.ExportTask) error {
	log.Debug().Str("task_id", task.TaskID.String()).Msg("saving new export data")

	record := exportRecord{
		TaskID:        task.TaskID.String(),
		Status:        "pending",
		Polygon:       geojson.NewGeometry(task.Polygon),
		BBox:          task.BBox[:],
		MaxZoom:       task.MaxZoom,
		FileName:      task.FileName,
		DirectoryName: task.DirectoryName,
		URL:           task.URL,
		CreatedAt:     task.CreatedAt,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return &export.PersistError{TaskID: task.TaskID, Err: fmt.Errorf("failed to marshal export record: %w", err)}
	}

	if _, err := c.base.Post(ctx, exportsEndpoint, bytes.NewReader(payload)); err != nil {
		return &export.PersistError{TaskID: task.TaskID, Err: err}
	}

	log.Debug().Str("task_id", task.TaskID.String()).Msg("saved export data")
	return nil
}

// DeleteExportData removes the record for a task whose dispatch failed.
func (c *Client) DeleteExportData(ctx context.Context, taskID uuid.UUID) error {
	log.Debug().Str("task_id", taskID.String()).Msg("deleting export data")

	if _, err := c.base.Delete(ctx, exportsEndpoint+"/"+taskID.String()); err != nil {
		return fmt.Errorf("failed to delete export record %s: %w", taskID, err)
	}

	return nil
}
