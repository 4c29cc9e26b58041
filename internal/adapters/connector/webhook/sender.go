package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bnema/agentdeck/internal/ports"
)

const defaultTimeout = 10 * time.Second

type payload struct {
	Connector string `json:"connector,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Text      string `json:"text"`
}

// Sender posts outbound connector messages as JSON to one webhook URL.
type Sender struct {
	url    string
	client *http.Client
}

var _ ports.ConnectorSender = (*Sender)(nil)

func NewSender(url string, client *http.Client) *Sender {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Sender{url: url, client: client}
}

func (s *Sender) Send(ctx context.Context, msg ports.ConnectorMessage) error {
	body, err := json.Marshal(payload{Connector: msg.ConnectorID, Channel: msg.ChannelID, Text: msg.Text})
	if err != nil {
		return fmt.Errorf("encode connector message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build connector request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send connector message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send connector message: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
