// Package config holds harvester configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Render modes for the batch coordinator.
const (
	RenderBrowser = "browser"
	RenderStatic  = "static"
)

// Config holds harvester configuration. Every heuristic threshold of the
// stabilization loop and the pagination driver is a field here so test
// suites can run with tiny values.
type Config struct {
	RenderMode   string
	AutoPaginate bool

	// Browser session.
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	NavigationRetries int
	RetryBackoff      time.Duration

	// Scroll stabilization.
	SettleInterval  time.Duration
	StableThreshold int
	MaxScrollIters  int

	// Pagination.
	MaxPages        int
	PolitenessDelay time.Duration
	PageParam       string
	RequiredParams  []string

	// Output.
	OutputFile   string
	OutputFormat string // csv, json, xlsx, or all
	MetricsAddr  string
	Verbose      bool
}

// DefaultConfig returns conservative defaults for storefront grids.
func DefaultConfig() *Config {
	return &Config{
		RenderMode:        RenderBrowser,
		AutoPaginate:      true,
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		NavigationTimeout: 60 * time.Second,
		NavigationRetries: 1,
		RetryBackoff:      2 * time.Second,
		SettleInterval:    1200 * time.Millisecond,
		StableThreshold:   5,
		MaxScrollIters:    100,
		MaxPages:          50,
		PolitenessDelay:   2 * time.Second,
		PageParam:         "page",
		RequiredParams:    []string{"sortBy"},
		OutputFile:        "output/listings.csv",
		OutputFormat:      "csv",
		MetricsAddr:       "",
		Verbose:           false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.RenderMode != RenderBrowser && c.RenderMode != RenderStatic {
		return fmt.Errorf("render mode must be %s or %s", RenderBrowser, RenderStatic)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.NavigationRetries < 0 {
		return fmt.Errorf("navigation retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.SettleInterval <= 0 {
		return fmt.Errorf("settle interval must be positive")
	}
	if c.StableThreshold <= 0 {
		return fmt.Errorf("stable threshold must be positive")
	}
	if c.MaxScrollIters <= 0 {
		return fmt.Errorf("max scroll iterations must be positive")
	}
	if c.MaxScrollIters < c.StableThreshold {
		return fmt.Errorf("max scroll iterations (%d) cannot be below stable threshold (%d)", c.MaxScrollIters, c.StableThreshold)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.PolitenessDelay < 0 {
		return fmt.Errorf("politeness delay cannot be negative")
	}
	if c.PageParam == "" {
		return fmt.Errorf("page parameter name cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "xlsx", "all":
	default:
		return fmt.Errorf("output format must be csv, json, xlsx, or all")
	}
	return nil
}

// EnvInt reads an integer environment variable. The second return value
// reports whether the variable was set.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable, reporting presence.
func EnvString(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
