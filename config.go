package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultMatchTolerance = 500 * time.Millisecond

// ModelMap maps model ids to display names. It is read only once loaded.
type ModelMap map[string]string

// Name returns the mapped name of id, or fallback when unknown.
func (m ModelMap) Name(id, fallback string) string {
	if name, ok := m[id]; ok {
		return name
	}
	return fallback
}

// Config is the optional YAML configuration of a parse run.
type Config struct {
	Models         ModelMap       `yaml:"models"`
	MatchTolerance time.Duration  `yaml:"match_tolerance"`
	ShortRows      ShortRowPolicy `yaml:"short_rows"`
}

func defaultConfig() *Config {
	return &Config{
		Models:         ModelMap{},
		MatchTolerance: defaultMatchTolerance,
		ShortRows:      ShortRowsDrop,
	}
}

// LoadConfig reads path, or returns the defaults when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (*Config, error) {
	cfg := defaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if cfg.Models == nil {
		cfg.Models = ModelMap{}
	}
	if cfg.MatchTolerance <= 0 {
		return nil, fmt.Errorf("match_tolerance must be positive, got %s", cfg.MatchTolerance)
	}
	if !cfg.ShortRows.Valid() {
		return nil, fmt.Errorf("short_rows must be %q or %q, got %q", ShortRowsDrop, ShortRowsError, cfg.ShortRows)
	}
	return cfg, nil
}
