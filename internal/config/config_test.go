package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg.DataSource.Tickers, DefaultTickers) {
		t.Errorf("unexpected tickers %v", cfg.DataSource.Tickers)
	}
	if cfg.DataSource.PeerDelay != 1500*time.Millisecond {
		t.Errorf("unexpected delay %v", cfg.DataSource.PeerDelay)
	}
	if cfg.Elastic.Index != "stocks_data" || cfg.Elastic.Username != "elastic" {
		t.Errorf("unexpected elastic defaults %+v", cfg.Elastic)
	}
	if cfg.Generator.Model != "microsoft/Phi-3.5-mini-instruct" || cfg.Generator.MaxNewTokens != 200 {
		t.Errorf("unexpected generator defaults %+v", cfg.Generator)
	}
	if cfg.Schedule.ProbeTicker != "AAPL" {
		t.Errorf("unexpected probe ticker %q", cfg.Schedule.ProbeTicker)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  addr: ":9000"
data_source:
  tickers: [" nvda", "amd ", "intc"]
  peer_delay: 250ms
generator:
  provider: gemini
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINNHUB_API_KEY", "fh-key")
	t.Setenv("ELASTIC_PASSWORD", "pw")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("HF_TOKEN", "hf-key")
	t.Setenv("LISTEN_ADDR", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr)
	}
	if !reflect.DeepEqual(cfg.DataSource.Tickers, []string{"NVDA", "AMD", "INTC"}) {
		t.Errorf("unexpected tickers %v", cfg.DataSource.Tickers)
	}
	if cfg.DataSource.PeerDelay != 250*time.Millisecond {
		t.Errorf("unexpected delay %v", cfg.DataSource.PeerDelay)
	}
	if cfg.DataSource.APIKey != "fh-key" || cfg.Elastic.Password != "pw" {
		t.Errorf("env overrides not applied: %+v %+v", cfg.DataSource, cfg.Elastic)
	}
	if cfg.Generator.Token != "gm-key" || cfg.Generator.Model != "gemini-2.0-flash" {
		t.Errorf("unexpected generator %+v", cfg.Generator)
	}
}

func TestLoad_BadPeerDelay(t *testing.T) {
	t.Setenv("PEER_DELAY", "soon")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for invalid PEER_DELAY")
	}
}

func TestLoad_ZeroPeerDelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_source:\n  peer_delay: 0s\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.PeerDelay != 0 {
		t.Errorf("yaml peer_delay 0s replaced with %v", cfg.DataSource.PeerDelay)
	}

	t.Setenv("PEER_DELAY", "0s")
	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.PeerDelay != 0 {
		t.Errorf("PEER_DELAY=0s replaced with %v", cfg.DataSource.PeerDelay)
	}
}

func TestLoad_HealthTickerNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("schedule:\n  probe_ticker: \" msft\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Schedule.ProbeTicker != "MSFT" {
		t.Errorf("unexpected probe ticker %q", cfg.Schedule.ProbeTicker)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"single ticker", func(c *Config) { c.DataSource.Tickers = []string{"AAPL"} }},
		{"duplicate ticker", func(c *Config) { c.DataSource.Tickers = []string{"AAPL", "AAPL"} }},
		{"negative delay", func(c *Config) { c.DataSource.PeerDelay = -time.Second }},
		{"provider", func(c *Config) { c.Generator.Provider = "openai" }},
		{"top k", func(c *Config) { c.Elastic.TopK = -1 }},
		{"health ticker outside universe", func(c *Config) { c.Schedule.ProbeTicker = "IBM" }},
	}
	for _, tt := range tests {
		cfg := base()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
