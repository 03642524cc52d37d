package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ian939/jobtrack/internal/adapter"
	"github.com/ian939/jobtrack/internal/browse"
	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/ratelimit"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse tracked listings interactively (TUI)",
	Long:  "Opens the split-pane browser over the stores: active listings on the\nleft, closed ones on the right, with posting content in the detail view.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The TUI owns the terminal; route store-load logging to nowhere so
	// nothing printed before the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend, closeBackend, err := openBackend(cfg, silentLogger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	stores, err := backend.Load()
	if err != nil {
		logger.Error("failed to load stores", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.MinInterval, cfg.RateLimit.HostOverrides)
	var fetcher model.ContentFetcher = adapter.NewPageContentFetcher(httpClient, silentLogger)
	fetcher = ratelimit.NewPoliteFetcher(fetcher, limiter)

	if err := browse.Run(stores, fetcher); err != nil {
		logger.Error("browse error", "error", err)
		os.Exit(1)
	}
	return nil
}
