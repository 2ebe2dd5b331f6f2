package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad render mode", mutate: func(c *Config) { c.RenderMode = "ftp" }},
		{name: "empty user agent", mutate: func(c *Config) { c.UserAgent = "" }},
		{name: "zero navigation timeout", mutate: func(c *Config) { c.NavigationTimeout = 0 }},
		{name: "negative retries", mutate: func(c *Config) { c.NavigationRetries = -1 }},
		{name: "zero settle interval", mutate: func(c *Config) { c.SettleInterval = 0 }},
		{name: "zero stable threshold", mutate: func(c *Config) { c.StableThreshold = 0 }},
		{name: "ceiling below threshold", mutate: func(c *Config) { c.MaxScrollIters = 2; c.StableThreshold = 5 }},
		{name: "zero max pages", mutate: func(c *Config) { c.MaxPages = 0 }},
		{name: "negative politeness delay", mutate: func(c *Config) { c.PolitenessDelay = -time.Second }},
		{name: "empty page param", mutate: func(c *Config) { c.PageParam = "" }},
		{name: "empty output file", mutate: func(c *Config) { c.OutputFile = "" }},
		{name: "bad output format", mutate: func(c *Config) { c.OutputFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("HARVEST_TEST_INT", "12")
	value, ok, err := EnvInt("HARVEST_TEST_INT")
	if err != nil || !ok || value != 12 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (12, true, nil)", value, ok, err)
	}

	t.Setenv("HARVEST_TEST_INT", "twelve")
	if _, _, err := EnvInt("HARVEST_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}

	if _, ok, _ := EnvInt("HARVEST_TEST_INT_UNSET"); ok {
		t.Fatalf("unset variable should not report presence")
	}
}

func TestEnvString(t *testing.T) {
	t.Setenv("HARVEST_TEST_STR", "output/run.csv")
	value, ok := EnvString("HARVEST_TEST_STR")
	if !ok || value != "output/run.csv" {
		t.Fatalf("EnvString = (%q, %v)", value, ok)
	}
}
