// Package config loads graft's YAML configuration. Decoding is strict:
// unknown keys are an error, so typos fail loudly at startup instead of
// silently falling back to defaults.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration for one graft instance.
type Config struct {
	// GraphDB and LedgerDB are the SQLite file paths for the two stores.
	GraphDB  string `yaml:"graph_db"`
	LedgerDB string `yaml:"ledger_db"`

	// Audit records every operation as action/action_result facts in
	// the ledger.
	Audit bool `yaml:"audit"`

	Trace  TraceConfig  `yaml:"trace"`
	Scopes ScopesConfig `yaml:"scopes"`
	Vocab  VocabConfig  `yaml:"vocab"`
}

// TraceConfig bounds causal traces.
type TraceConfig struct {
	// MaxDepth caps trace recursion. Must be positive.
	MaxDepth int `yaml:"max_depth"`
}

// ScopesConfig tunes the context manager.
type ScopesConfig struct {
	// MaxFramesPerOwner caps active scopes per owner. Must be positive.
	MaxFramesPerOwner int `yaml:"max_frames_per_owner"`

	// LockTimeout bounds per-owner lock acquisition.
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// VocabConfig points at CUE vocabulary files.
type VocabConfig struct {
	// Paths lists vocabulary files compiled at startup.
	Paths []string `yaml:"paths"`

	// Strict rejects unknown type tags on create/link/append.
	Strict bool `yaml:"strict"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		GraphDB:  "graft-graph.db",
		LedgerDB: "graft-ledger.db",
		Trace:    TraceConfig{MaxDepth: 8},
		Scopes: ScopesConfig{
			MaxFramesPerOwner: 32,
			LockTimeout:       5 * time.Second,
		},
	}
}

// Load reads and validates a config file, filling omitted fields from
// Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw YAML into a validated Config.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if raw.GraphDB != "" {
		cfg.GraphDB = raw.GraphDB
	}
	if raw.LedgerDB != "" {
		cfg.LedgerDB = raw.LedgerDB
	}
	if raw.Trace.MaxDepth != 0 {
		cfg.Trace.MaxDepth = raw.Trace.MaxDepth
	}
	if raw.Scopes.MaxFramesPerOwner != 0 {
		cfg.Scopes.MaxFramesPerOwner = raw.Scopes.MaxFramesPerOwner
	}
	if raw.Scopes.LockTimeout != 0 {
		cfg.Scopes.LockTimeout = raw.Scopes.LockTimeout
	}
	cfg.Vocab = raw.Vocab
	cfg.Audit = raw.Audit

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GraphDB == "" || c.LedgerDB == "" {
		return fmt.Errorf("config: graph_db and ledger_db are required")
	}
	if c.GraphDB == c.LedgerDB {
		return fmt.Errorf("config: graph_db and ledger_db must be distinct files")
	}
	if c.Trace.MaxDepth <= 0 {
		return fmt.Errorf("config: trace.max_depth must be positive, got %d", c.Trace.MaxDepth)
	}
	if c.Scopes.MaxFramesPerOwner <= 0 {
		return fmt.Errorf("config: scopes.max_frames_per_owner must be positive, got %d", c.Scopes.MaxFramesPerOwner)
	}
	if c.Scopes.LockTimeout <= 0 {
		return fmt.Errorf("config: scopes.lock_timeout must be positive, got %s", c.Scopes.LockTimeout)
	}
	return nil
}
