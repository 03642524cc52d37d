package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ian939/jobtrack/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxListingsPerMessage keeps the payload under Slack's size limits.
const maxListingsPerMessage = 30

// SlackNotifier announces new listings in a Slack channel via an Incoming
// Webhook, one aggregated message per run.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

// Notify sends one message summarizing all new listings. Best-effort by
// contract: the error is for the caller's log, never fatal to a run.
func (s *SlackNotifier) Notify(listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	body, err := json.Marshal(slackPayload{Text: buildMessage(listings)})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	if err := s.post(body); err != nil {
		return err
	}
	s.logger.Info("slack notification sent", "listings", len(listings))
	return nil
}

func (s *SlackNotifier) post(body []byte) error {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()
		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}

func buildMessage(listings []model.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📢 *신규 채용 공고 (%d건)*\n\n", len(listings))

	shown := listings
	if len(shown) > maxListingsPerMessage {
		shown = shown[:maxListingsPerMessage]
	}
	for _, l := range shown {
		exp := l.Experience
		if exp == "" {
			exp = "공고 확인"
		}
		fmt.Fprintf(&b, "• *[%s]* %s (%s)\n  <%s|공고 보기>\n\n", l.Company, l.Title, exp, l.Link)
	}
	if len(listings) > maxListingsPerMessage {
		fmt.Fprintf(&b, "…외 %d건\n", len(listings)-maxListingsPerMessage)
	}
	return b.String()
}

// SendTestMessage sends a dummy listing to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	test := model.Listing{
		Source:     "test",
		Company:    "jobtrack",
		Title:      "테스트 알림 (연동 확인)",
		Experience: "무관",
		Link:       "https://example.com/jobs/test",
		FirstSeen:  now,
	}
	return n.Notify([]model.Listing{test})
}
