package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ian939/jobtrack/internal/adapter"
	"github.com/ian939/jobtrack/internal/config"
	"github.com/ian939/jobtrack/internal/content"
	"github.com/ian939/jobtrack/internal/filter"
	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/notifier"
	"github.com/ian939/jobtrack/internal/pipeline"
	"github.com/ian939/jobtrack/internal/ratelimit"
	"github.com/ian939/jobtrack/internal/reconcile"
	"github.com/ian939/jobtrack/internal/retry"
	"github.com/ian939/jobtrack/internal/store"
)

// Default source endpoints, overridable per source in config.yaml.
const (
	defaultBEPURL     = "https://bep.co.kr/Career/recruitment?type=3"
	defaultBEPCompany = "워터(BEP)"
	defaultSaraminURL = "https://www.saramin.co.kr/zf_user/search/recruit"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobtrack",
	Short: "EV-charging job listing tracker",
	Long:  "Jobtrack scrapes career pages and recruit portals for target companies,\nreconciles listings against its stores, and alerts on new postings.",
	// Default to `run` so that `jobtrack` with no args does one pass.
	// This matches invoking the binary straight from cron.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBTRACK_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBTRACK_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	// Secrets like the webhook URL come in via ${VAR} expansion, so pull in
	// a local .env first when one exists.
	_ = godotenv.Load()

	if path == "" {
		if env := os.Getenv("JOBTRACK_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// openBackend creates the configured persistence backend. The returned close
// func is a no-op for CSV.
func openBackend(cfg *config.Config, logger *slog.Logger) (store.Backend, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite":
		b, err := store.NewSQLiteBackend(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	default:
		b := store.NewCSVBackend(cfg.Store.ActivePath, cfg.Store.ArchivePath, cfg.Store.ContentPath, logger)
		return b, func() {}, nil
	}
}

func buildAdapters(cfg *config.Config, httpClient *http.Client, limiter *ratelimit.HostLimiter, logger *slog.Logger) []model.SourceAdapter {
	var adapters []model.SourceAdapter
	for _, s := range cfg.Sources {
		if !s.Enabled {
			continue
		}

		var a model.SourceAdapter
		switch s.Name {
		case "bep":
			url, company := s.URL, s.Company
			if url == "" {
				url = defaultBEPURL
			}
			if company == "" {
				company = defaultBEPCompany
			}
			a = adapter.NewBEPAdapter(url, company, httpClient, limiter)
		case "saramin":
			url := s.URL
			if url == "" {
				url = defaultSaraminURL
			}
			a = adapter.NewSaraminAdapter(url, cfg.Companies, httpClient, limiter)
		default:
			logger.Warn("unsupported source, skipping", "source", s.Name)
			continue
		}

		a = retry.Wrap(a, 2, 5*time.Second, logger)
		adapters = append(adapters, a)
		logger.Info("registered source", "source", s.Name)
	}
	return adapters
}

// buildPipeline assembles one fully wired pipeline over the given backend.
func buildPipeline(cfg *config.Config, backend store.Backend, httpClient *http.Client, logger *slog.Logger) *pipeline.Pipeline {
	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.MinInterval, cfg.RateLimit.HostOverrides)
	logger.Info("rate limiter configured", "min_interval", cfg.RateLimit.MinInterval.String())

	adapters := buildAdapters(cfg, httpClient, limiter, logger)
	// The official careers page only ever lists its own postings, so it is
	// exempt from the target-company check.
	targets := filter.NewTargetFilter(cfg.Companies, "bep")

	var fetcher model.ContentFetcher = adapter.NewPageContentFetcher(httpClient, logger)
	fetcher = ratelimit.NewPoliteFetcher(fetcher, limiter)

	classifier := content.NewClassifier(cfg.Content.MinLength, cfg.Content.NoisePhrases)
	backfill := content.NewBackfill(fetcher, classifier, cfg.Content.MaxWorkers, cfg.Content.FetchTimeout, logger)

	n := setupNotifier(cfg, httpClient, logger)

	p := pipeline.New(adapters, targets, backend, reconcile.New(logger), backfill, n, logger)
	p.SetExportDir(cfg.Store.ExportDir)
	return p
}
