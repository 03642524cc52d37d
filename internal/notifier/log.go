package notifier

import (
	"log/slog"

	"github.com/ian939/jobtrack/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new listings to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each listing via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each listing. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(listings []model.Listing) error {
	for _, l := range listings {
		args := []any{"company", l.Company, "title", l.Title, "link", l.Link, "source", l.Source}
		if l.Experience != "" {
			args = append(args, "experience", l.Experience)
		}
		n.logger.Info("new listing", args...)
	}
	return nil
}
