// internal/email/client.go
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SenderInterface defines the transport capability consumed by the worker
// and the subscription flow: attempt one send, report success or failure.
type SenderInterface interface {
	Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error
}

// Client delivers email through an HTTP API (Postmark-compatible shape).
// All failures are reported as errors; callers decide whether to retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sender     string
	authToken  string
}

func NewClient(baseURL, sender, authToken string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		sender:     sender,
		authToken:  authToken,
	}
}

type sendRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

// Send posts one message to the API. The client timeout bounds the call.
func (c *Client) Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	payload, err := json.Marshal(sendRequest{
		From:     c.sender,
		To:       recipient,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Server-Token", c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach email API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}
	return nil
}

var _ SenderInterface = (*Client)(nil)
