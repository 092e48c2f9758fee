// Package assistant talks to the AI trip-planning chat backend.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	chatPath       = "/api/chat"
	defaultTimeout = 60 * time.Second

	// errBodyLimit caps how much of a failed response is kept for the error.
	errBodyLimit = 512
)

// Client calls the chat backend. Replies are returned as raw text; the
// backend's own trip_data field is ignored.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient constructs a Client for the backend at baseURL. An empty token
// sends no Authorization header; a non-positive timeout uses the default.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{baseURL: baseURL, token: token, client: &http.Client{Timeout: timeout}}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Message string `json:"message"`
}

// Chat sends message for sessionID and returns the backend's reply text.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (string, error) {
	var resp chatResponse
	if err := c.doPost(ctx, chatPath, chatRequest{SessionID: sessionID, Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// doPost sends body as JSON and decodes the JSON response into dst.
func (c *Client) doPost(ctx context.Context, path string, body, dst any) error {
	rawURL := c.baseURL + path

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request for %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return &StatusError{URL: rawURL, Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}

// StatusError is returned when the backend answers with a non-200 status.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("POST %s returned status %d", e.URL, e.Code)
	}
	return fmt.Sprintf("POST %s returned status %d: %s", e.URL, e.Code, e.Body)
}
