// Copyright (C) 2025 K-OOK (kook-backend maintainers)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the backend configuration.
//
// # Description
//
// Configuration is layered with koanf: built-in defaults first, then
// environment variables on top. Environment names keep backward
// compatibility with the deployment scripts (AWS_DEFAULT_REGION,
// BEDROCK_MODEL_ID, KNOWLEDGE_BASE_ID); backend-specific knobs use the
// KOOK_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the full backend configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	AWS      AWSConfig      `koanf:"aws"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Trending TrendingConfig `koanf:"trending"`
	Otel     OtelConfig     `koanf:"otel"`
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// AWSConfig names the Bedrock resources.
type AWSConfig struct {
	Region string `koanf:"region"`
	// ModelID is the Bedrock model used for generation.
	ModelID string `koanf:"model_id"`
	// KnowledgeBaseID selects the recipe knowledge base. Empty disables
	// retrieval; first turns then run without context.
	KnowledgeBaseID string `koanf:"knowledge_base_id"`
}

// PipelineConfig tunes the generation pipeline.
type PipelineConfig struct {
	RetrievalTopK        int           `koanf:"retrieval_top_k"`
	MaxAttempts          int           `koanf:"max_attempts"`
	RetryBackoff         time.Duration `koanf:"retry_backoff"`
	RequestTimeout       time.Duration `koanf:"request_timeout"`
	MaxConcurrentStreams int64         `koanf:"max_concurrent_streams"`
}

// TrendingConfig locates the trending database.
type TrendingConfig struct {
	DSN string `koanf:"dsn"`
}

// OtelConfig tunes trace export.
type OtelConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
}

// defaultConfig returns the built-in defaults, suitable for local
// development against a seeded trending database.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: 8000,
		},
		AWS: AWSConfig{
			Region:  "us-east-1",
			ModelID: "anthropic.claude-3-sonnet-20240229-v1:0",
		},
		Pipeline: PipelineConfig{
			RetrievalTopK:        5,
			MaxAttempts:          3,
			RetryBackoff:         1 * time.Second,
			RequestTimeout:       120 * time.Second,
			MaxConcurrentStreams: 32,
		},
		Trending: TrendingConfig{
			DSN: "file:./data/trending.db",
		},
		Otel: OtelConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
		},
	}
}

// Load builds the configuration: defaults first, environment on top.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.AWS.Region == "" {
		return fmt.Errorf("aws region must be set")
	}
	if c.AWS.ModelID == "" {
		return fmt.Errorf("bedrock model id must be set")
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline max attempts must be positive")
	}
	if c.Pipeline.MaxConcurrentStreams <= 0 {
		return fmt.Errorf("pipeline max concurrent streams must be positive")
	}
	return nil
}

// envTransform maps environment variable names to config paths. Unknown
// variables map to nothing and are ignored.
func envTransform(key string) string {
	mappings := map[string]string{
		// Deployment-script compatible names.
		"AWS_DEFAULT_REGION": "aws.region",
		"BEDROCK_MODEL_ID":   "aws.model_id",
		"KNOWLEDGE_BASE_ID":  "aws.knowledge_base_id",
		"PORT":               "server.port",

		// Backend-specific knobs.
		"KOOK_RETRIEVAL_TOP_K":        "pipeline.retrieval_top_k",
		"KOOK_MAX_ATTEMPTS":           "pipeline.max_attempts",
		"KOOK_RETRY_BACKOFF":          "pipeline.retry_backoff",
		"KOOK_REQUEST_TIMEOUT":        "pipeline.request_timeout",
		"KOOK_MAX_CONCURRENT_STREAMS": "pipeline.max_concurrent_streams",
		"KOOK_TRENDING_DSN":           "trending.dsn",
		"KOOK_OTEL_ENABLED":           "otel.enabled",
		"KOOK_OTEL_ENDPOINT":          "otel.endpoint",
	}
	if path, ok := mappings[strings.ToUpper(key)]; ok {
		return path
	}
	return ""
}
