package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"jobagent-engine/internal/domain"
)

// SlackNotifier posts newly eligible postings to a Slack incoming webhook.
// Delivery is best-effort: the store has already committed when it runs.
type SlackNotifier struct {
	WebhookURL string
	HC         *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		HC:         &http.Client{Timeout: 15 * time.Second},
	}
}

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify sends one message summarizing the run. A failure is returned for
// logging but never affects store state.
func (s *SlackNotifier) Notify(report domain.RunReport) error {
	if len(report.Eligible) == 0 {
		return nil
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("%d new job match(es)", len(report.Eligible))},
		},
	}
	for _, c := range report.Eligible {
		p := c.Posting
		line := fmt.Sprintf("*<%s|%s>* — %s (%s) · score %d", p.URL, p.Title, p.Company, p.Location, c.Score)
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: line},
		})
	}

	body, err := json.Marshal(slackPayload{Blocks: blocks})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.HC.Post(s.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}
