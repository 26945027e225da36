package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/entrhq/pagewise/pkg/config"
	"github.com/entrhq/pagewise/pkg/llm/tokenizer"
	"github.com/entrhq/pagewise/pkg/logging"
	"github.com/entrhq/pagewise/pkg/metrics"
	"github.com/entrhq/pagewise/pkg/tools/browser"
	"github.com/entrhq/pagewise/pkg/tools/browser/backend"
	"github.com/entrhq/pagewise/pkg/tools/browser/pagination"
)

type globalFlags struct {
	configPath  string
	metricsAddr string
	backend     string
}

// app is one wired browser with its logger and optional metrics endpoint.
type app struct {
	browser *browser.Browser
	logger  *logging.Logger
	metrics *http.Server
}

func newApp(flags *globalFlags, component string) (*app, error) {
	logger, err := logging.NewLogger(component)
	if err != nil {
		// the fallback logger writes to stderr; keep going
		logger.Warnf("file logging unavailable: %v", err)
	}

	if err := config.Initialize(flags.configPath); err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}
	browserCfg := config.GetBrowser()
	backendCfg := config.GetBackend()

	backendCfg.ApplyEnvironment(os.LookupEnv)
	if flags.backend != "" {
		if err := backendCfg.SetData(map[string]interface{}{"driver": flags.backend}); err != nil {
			return nil, err
		}
	}
	for _, section := range config.Global().GetSections() {
		if err := section.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s configuration: %w", section.ID(), err)
		}
	}

	viewTokens, cacheSize, encoding := browserCfg.Rendering()
	var counter pagination.TokenCounter
	if tok, err := tokenizer.NewWithEncoding(encoding); err != nil {
		logger.Warnf("token counting falls back to %d characters per token: %v", tokenizer.CharsPerToken, err)
	} else {
		counter = tok
	}

	cfg := backendCfg.BackendConfig()
	cfg.Logger = logger.With("backend")
	b, err := backend.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", cfg.Driver, err)
	}
	logger.Infof("using %s backend", cfg.Driver)

	a := &app{logger: logger}

	var m *metrics.Metrics
	if flags.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if m, err = metrics.New(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		a.metrics = &http.Server{
			Addr:              flags.metricsAddr,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Infof("serving metrics on %s", flags.metricsAddr)
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	a.browser = browser.New(b, browser.Options{
		ViewTokens: viewTokens,
		CacheSize:  cacheSize,
		Find:       browserCfg.FindOptions(),
		Counter:    counter,
		Logger:     logger.With("browser"),
		Metrics:    m,
	})
	return a, nil
}

func (a *app) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.metrics.Shutdown(ctx)
	}
	_ = a.logger.Close()
}
