// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

// Package config loads the layered application configuration: built-in
// defaults, an optional YAML file, then VINYLVAULT_-prefixed environment
// variables, highest priority last.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/vinylvault/internal/imagecache"
	"github.com/tomtom215/vinylvault/internal/logging"
	"github.com/tomtom215/vinylvault/internal/selection"
)

// StoreConfig holds BadgerDB settings.
type StoreConfig struct {
	// Path is the BadgerDB directory. Required unless InMemory is set.
	Path string `koanf:"path" json:"path" validate:"required_without=InMemory"`

	// InMemory runs Badger without disk persistence, for tests.
	InMemory bool `koanf:"in_memory" json:"in_memory"`
}

// Config is the full application configuration.
type Config struct {
	Log    logging.Config    `koanf:"log" json:"log"`
	Engine selection.Config  `koanf:"engine" json:"engine" validate:"required"`
	Images imagecache.Config `koanf:"images" json:"images" validate:"required"`
	Store  StoreConfig       `koanf:"store" json:"store" validate:"required"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Log:    logging.DefaultConfig(),
		Engine: *selection.DefaultConfig(),
		Images: *imagecache.DefaultConfig(),
		Store: StoreConfig{
			Path: "data/vinylvault",
		},
	}
}

// structValidate is shared; validator instances cache struct metadata.
var structValidate = validator.New()

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := structValidate.Struct(c); err != nil {
		return fmt.Errorf("config structure: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Images.Validate(); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store: path is required")
	}
	return nil
}
