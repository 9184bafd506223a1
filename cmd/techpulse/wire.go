package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"TechPulse/internal/calculator"
	"TechPulse/internal/collector"
	"TechPulse/internal/config"
	"TechPulse/internal/rag"
	"TechPulse/internal/recorder"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// newFetcher uses Finnhub when an API key is configured and Yahoo otherwise.
func newFetcher(cfg *config.Config) collector.Fetcher {
	if cfg.DataSource.APIKey != "" {
		return collector.NewFinnhubFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	return collector.NewYahooFetcher(cfg.Proxy)
}

func newCollector(cfg *config.Config, delay time.Duration) (*collector.Collector, error) {
	loc, err := calculator.LoadZone(cfg.Server.Timezone)
	if err != nil {
		return nil, err
	}
	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	return collector.NewCollector(fetcher, cfg.DataSource.Tickers, loc, delay), nil
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

// newStore uses Elasticsearch when an endpoint is configured, unless forceMemory is set.
func newStore(cfg *config.Config, forceMemory bool) (rag.DocumentStore, error) {
	if forceMemory || cfg.Elastic.Endpoint == "" {
		return rag.NewMemoryStore(), nil
	}
	return rag.NewElasticStore(rag.ElasticConfig{
		Endpoint: cfg.Elastic.Endpoint,
		Username: cfg.Elastic.Username,
		Password: cfg.Elastic.Password,
		Index:    cfg.Elastic.Index,
	})
}

func newGenerator(ctx context.Context, cfg *config.Config) (rag.Generator, error) {
	g := cfg.Generator
	switch g.Provider {
	case "gemini":
		if g.Token == "" {
			return nil, fmt.Errorf("generator: gemini requires GEMINI_API_KEY")
		}
		return rag.NewGeminiGenerator(ctx, g.Token, g.Model, g.MaxNewTokens)
	default:
		return rag.NewHuggingFaceGenerator(g.Model, g.Token, g.MaxNewTokens), nil
	}
}

// openSession builds and opens the report session. Opening resets the index.
func openSession(ctx context.Context, cfg *config.Config, forceMemory bool) (*rag.Session, error) {
	store, err := newStore(cfg, forceMemory)
	if err != nil {
		return nil, err
	}
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	sess := rag.NewSession(store, gen)
	sess.TopK = cfg.Elastic.TopK
	if err := sess.Open(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}
