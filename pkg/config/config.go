// Package config loads worker pool configuration from YAML or JSON
// files and builds pools from it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/threadsmith/gothreadpool/pkg/threadpool"
	"github.com/threadsmith/gothreadpool/pkg/types"
)

// Config describes a pool in a form loadable from a file. Fields left
// out of the file keep the pool defaults.
type Config struct {
	// Mode is the worker-count policy, "fixed" or "cached"
	Mode string `yaml:"mode" json:"mode"`

	// InitialWorkers is the start count; zero or less means the number
	// of CPUs
	InitialWorkers int `yaml:"initial_workers" json:"initial_workers"`

	// MaxWorkers caps cached-mode growth
	MaxWorkers int `yaml:"max_workers" json:"max_workers"`

	// MaxIdleTime is the cached-mode idle retirement threshold
	MaxIdleTime Duration `yaml:"max_idle_time" json:"max_idle_time"`

	// MaxQueueSize bounds the task queue
	MaxQueueSize int `yaml:"max_queue_size" json:"max_queue_size"`

	// SubmitWait is how long a submission blocks on a full queue
	// before being rejected
	SubmitWait Duration `yaml:"submit_wait" json:"submit_wait"`
}

// Default returns the configuration an unconfigured pool runs with
func Default() *Config {
	return &Config{
		Mode:           types.ModeFixed.String(),
		InitialWorkers: 0,
		MaxWorkers:     threadpool.DefaultMaxWorkers,
		MaxIdleTime:    Duration(threadpool.DefaultMaxIdleTime),
		MaxQueueSize:   threadpool.DefaultMaxQueueSize,
		SubmitWait:     Duration(threadpool.DefaultSubmitWait),
	}
}

// Load reads a pool configuration from path, detecting the format by
// file extension. Unknown extensions are treated as YAML.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	default:
		return LoadYAML(path)
	}
}

// LoadYAML reads a YAML pool configuration from path
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadJSON reads a JSON pool configuration from path
func LoadJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the pool would reject
func (c *Config) Validate() error {
	mode, err := types.ParsePoolMode(c.Mode)
	if err != nil {
		return err
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be positive, got %d", c.MaxWorkers)
	}
	if c.MaxQueueSize < 1 {
		return fmt.Errorf("max_queue_size must be positive, got %d", c.MaxQueueSize)
	}
	if c.MaxIdleTime <= 0 {
		return fmt.Errorf("max_idle_time must be positive, got %s", time.Duration(c.MaxIdleTime))
	}
	if c.SubmitWait < 0 {
		return fmt.Errorf("submit_wait must not be negative, got %s", time.Duration(c.SubmitWait))
	}
	if mode == types.ModeCached && c.InitialWorkers > c.MaxWorkers {
		return fmt.Errorf("initial_workers (%d) must be <= max_workers (%d)",
			c.InitialWorkers, c.MaxWorkers)
	}
	return nil
}

// Build validates the configuration and assembles an unstarted pool
// from it. The caller starts it, typically with InitialWorkers.
func (c *Config) Build() (*threadpool.Pool, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Validate already proved the mode parses
	mode, _ := types.ParsePoolMode(c.Mode)

	pool := threadpool.New()
	pool.SetMode(mode)
	pool.SetMaxWorkerCount(c.MaxWorkers)
	pool.SetMaxIdleTime(time.Duration(c.MaxIdleTime))
	pool.SetMaxQueueSize(c.MaxQueueSize)
	pool.SetSubmitWait(time.Duration(c.SubmitWait))
	return pool, nil
}
