package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTickers is the fixed technology universe, in display order.
var DefaultTickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA", "AMD", "CRM", "ADBE", "INTC", "ORCL"}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr          string `yaml:"addr"`
		Timezone      string `yaml:"timezone"`
		MaxUploadMiB  int64  `yaml:"max_upload_mib"`
		AllowedOrigin string `yaml:"allowed_origin"`
	} `yaml:"server"`
	DataSource struct {
		BaseURL   string        `yaml:"base_url"`
		APIKey    string        `yaml:"api_key"`
		Tickers   []string      `yaml:"tickers"`
		PeerDelay time.Duration `yaml:"peer_delay"`
	} `yaml:"data_source"`
	Elastic struct {
		Endpoint string `yaml:"endpoint"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Index    string `yaml:"index"`
		TopK     int    `yaml:"top_k"`
	} `yaml:"elastic"`
	Generator struct {
		Provider     string `yaml:"provider"` // "huggingface" or "gemini"
		Model        string `yaml:"model"`
		Token        string `yaml:"token"`
		MaxNewTokens int    `yaml:"max_new_tokens"`
	} `yaml:"generator"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	Schedule struct {
		ProbeCron      string `yaml:"probe_cron"`
		IndexResetCron string `yaml:"index_reset_cron"`
		ProbeTicker    string `yaml:"probe_ticker"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// unsetDelay marks a peer_delay absent from both the file and the environment,
// so an explicit 0s disables the pause instead of falling back to the default.
const unsetDelay = time.Duration(math.MinInt64)

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.DataSource.PeerDelay = unsetDelay

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("PEER_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse PEER_DELAY: %w", err)
		}
		cfg.DataSource.PeerDelay = d
	}
	if v := os.Getenv("ELASTIC_ENDPOINT"); v != "" {
		cfg.Elastic.Endpoint = v
	}
	if v := os.Getenv("ELASTIC_PASSWORD"); v != "" {
		cfg.Elastic.Password = v
	}
	if v := os.Getenv("HF_TOKEN"); v != "" && cfg.Generator.Provider != "gemini" {
		cfg.Generator.Token = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Generator.Provider == "gemini" {
		cfg.Generator.Token = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Server.Timezone == "" {
		cfg.Server.Timezone = "America/Chicago"
	}
	if cfg.Server.MaxUploadMiB == 0 {
		cfg.Server.MaxUploadMiB = 32
	}
	if cfg.Server.AllowedOrigin == "" {
		cfg.Server.AllowedOrigin = "*"
	}
	if len(cfg.DataSource.Tickers) == 0 {
		cfg.DataSource.Tickers = append([]string(nil), DefaultTickers...)
	}
	for i, t := range cfg.DataSource.Tickers {
		cfg.DataSource.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if cfg.DataSource.PeerDelay == unsetDelay {
		cfg.DataSource.PeerDelay = 1500 * time.Millisecond
	}
	if cfg.Elastic.Username == "" {
		cfg.Elastic.Username = "elastic"
	}
	if cfg.Elastic.Index == "" {
		cfg.Elastic.Index = "stocks_data"
	}
	if cfg.Elastic.TopK == 0 {
		cfg.Elastic.TopK = 10
	}
	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = "huggingface"
	}
	if cfg.Generator.Model == "" {
		switch cfg.Generator.Provider {
		case "gemini":
			cfg.Generator.Model = "gemini-2.0-flash"
		default:
			cfg.Generator.Model = "microsoft/Phi-3.5-mini-instruct"
		}
	}
	if cfg.Generator.MaxNewTokens == 0 {
		cfg.Generator.MaxNewTokens = 200
	}
	if cfg.Schedule.ProbeCron == "" {
		cfg.Schedule.ProbeCron = "0 */5 * * * *"
	}
	if cfg.Schedule.IndexResetCron == "" {
		cfg.Schedule.IndexResetCron = "0 0 4 * * *"
	}
	cfg.Schedule.ProbeTicker = strings.ToUpper(strings.TrimSpace(cfg.Schedule.ProbeTicker))
	if cfg.Schedule.ProbeTicker == "" {
		cfg.Schedule.ProbeTicker = cfg.DataSource.Tickers[0]
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/techpulse.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.DataSource.Tickers) < 2 {
		return fmt.Errorf("data_source.tickers needs at least two tickers")
	}
	seen := make(map[string]bool, len(c.DataSource.Tickers))
	for _, t := range c.DataSource.Tickers {
		if t == "" {
			return fmt.Errorf("data_source.tickers contains an empty ticker")
		}
		if seen[t] {
			return fmt.Errorf("data_source.tickers contains %s twice", t)
		}
		seen[t] = true
	}
	if !seen[c.Schedule.ProbeTicker] {
		return fmt.Errorf("schedule.probe_ticker %q is not in data_source.tickers", c.Schedule.ProbeTicker)
	}
	if c.DataSource.PeerDelay < 0 {
		return fmt.Errorf("data_source.peer_delay must not be negative")
	}
	switch c.Generator.Provider {
	case "huggingface", "gemini":
	default:
		return fmt.Errorf("generator.provider must be huggingface or gemini, got %q", c.Generator.Provider)
	}
	if c.Generator.MaxNewTokens <= 0 {
		return fmt.Errorf("generator.max_new_tokens must be positive")
	}
	if c.Elastic.TopK <= 0 {
		return fmt.Errorf("elastic.top_k must be positive")
	}
	if c.Server.MaxUploadMiB <= 0 {
		return fmt.Errorf("server.max_upload_mib must be positive")
	}
	return nil
}
