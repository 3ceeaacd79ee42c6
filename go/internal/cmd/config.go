package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"storage"`
	Queue struct {
		URL     string `yaml:"url"`
		Stream  string `yaml:"stream"`
		Subject string `yaml:"subject"`
	} `yaml:"queue"`
	BBox struct {
		AreaLimitSqMeters float64 `yaml:"area_limit_sq_meters"`
	} `yaml:"bbox"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&config)
	return &config, nil
}

func applyEnvOverrides(config *Config) {
	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Storage.URL = getEnv("STORAGE_URL", config.Storage.URL)
	config.Storage.TimeoutSeconds = getEnvAsInt("STORAGE_TIMEOUT_SECONDS", config.Storage.TimeoutSeconds)
	config.Queue.URL = getEnv("NATS_URL", config.Queue.URL)
	config.Queue.Stream = getEnv("NATS_STREAM", config.Queue.Stream)
	config.Queue.Subject = getEnv("NATS_SUBJECT", config.Queue.Subject)
	config.BBox.AreaLimitSqMeters = getEnvAsFloat("BBOX_AREA_LIMIT_SQ_METERS", config.BBox.AreaLimitSqMeters)
	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)
}
