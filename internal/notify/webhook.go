package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// WebhookMessenger posts summary text as JSON to a configured webhook URL
// (Slack-style incoming webhook).
type WebhookMessenger struct {
	URL    string
	client *http.Client
}

func NewWebhookMessenger(url string) *WebhookMessenger {
	return &WebhookMessenger{
		URL:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (m *WebhookMessenger) Post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post failed with status %d", resp.StatusCode)
	}

	return nil
}

// LogMessenger is the fallback when no webhook URL is configured.
type LogMessenger struct{}

func (LogMessenger) Post(ctx context.Context, text string) error {
	log.Printf("summary notification:\n%s", text)
	return nil
}
