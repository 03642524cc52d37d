package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ian939/jobtrack/internal/notifier"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Send a status report of tracked listings",
	Long:  "Renders the currently tracked listings into a status report and delivers\nit through the configured notifier. Useful from cron as a periodic digest.",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	backend, closeBackend, err := openBackend(cfg, logger)
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
	n := setupNotifier(cfg, httpClient, logger)
	r, ok := n.(notifier.Reporter)
	if !ok {
		logger.Error("configured notifier cannot deliver reports", "type", cfg.Notification.Type)
		os.Exit(1)
	}

	if err := r.Report(stores.Active.All(), cfg.Notification.ReportLink); err != nil {
		logger.Error("report delivery failed", "error", err)
		os.Exit(1)
	}
	logger.Info("report sent", "listings", stores.Active.Len())
	return nil
}
