package notifier

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ian939/jobtrack/internal/model"
)

// maxReportRows caps how many listings a status report renders inline.
const maxReportRows = 30

// Reporter delivers a periodic status report over the whole tracked set, as
// opposed to Notify which announces only one run's new listings.
type Reporter interface {
	Report(listings []model.Listing, downloadURL string) error
}

var (
	_ Reporter = (*SlackNotifier)(nil)
	_ Reporter = (*LogNotifier)(nil)
)

// Report posts a status report message to the webhook channel.
func (s *SlackNotifier) Report(listings []model.Listing, downloadURL string) error {
	body, err := json.Marshal(slackPayload{Text: buildReportMessage(listings, downloadURL, time.Now())})
	if err != nil {
		return fmt.Errorf("marshal slack report: %w", err)
	}
	if err := s.post(body); err != nil {
		return err
	}
	s.logger.Info("slack report sent", "listings", len(listings))
	return nil
}

// Report logs a line per listing plus a summary.
func (n *LogNotifier) Report(listings []model.Listing, downloadURL string) error {
	for _, l := range listings {
		n.logger.Info("tracked listing",
			"company", l.Company, "title", l.Title, "link", l.Link,
			"first_seen", l.FirstSeen.Format(model.DateLayout))
	}
	args := []any{"total", len(listings)}
	if downloadURL != "" {
		args = append(args, "download", downloadURL)
	}
	n.logger.Info("listing report", args...)
	return nil
}

// buildReportMessage renders the most recent rows of the tracked set, newest
// file rows last, with an optional link to the full master file.
func buildReportMessage(listings []model.Listing, downloadURL string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *채용 공고 현황 (%s)*\n", now.Format(model.DateLayout))
	fmt.Fprintf(&b, "전체 %d건\n\n", len(listings))

	shown := listings
	if len(shown) > maxReportRows {
		shown = shown[len(shown)-maxReportRows:]
		fmt.Fprintf(&b, "최근 %d건:\n", maxReportRows)
	}
	for _, l := range shown {
		exp := l.Experience
		if exp == "" {
			exp = "공고 확인"
		}
		seen := ""
		if !l.FirstSeen.IsZero() {
			seen = " " + l.FirstSeen.Format(model.DateLayout)
		}
		fmt.Fprintf(&b, "• *[%s]* %s (%s)%s\n  <%s|공고 보기>\n", l.Company, l.Title, exp, seen, l.Link)
	}
	if downloadURL != "" {
		fmt.Fprintf(&b, "\n📎 <%s|전체 목록 다운로드>\n", downloadURL)
	}
	return b.String()
}
