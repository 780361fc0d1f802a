package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client posts workflow notifications to the configured webhook endpoint.
// Dispatch is fire-and-forget relative to the status mutation: the caller
// commits first and a delivery failure never reverses the transition.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Snapshot captures quantity and distribution at one point in time, used for
// before/after pairs on correction notices.
type Snapshot struct {
	TotalQuantity float64            `json:"total_quantity"`
	Distribution  map[string]float64 `json:"distribution"`
}

// Message is the wire format consumed by the notification service.
type Message struct {
	Event         string    `json:"event"`
	ProjectID     string    `json:"project_id"`
	ProjectNumber int64     `json:"project_number"`
	Customer      string    `json:"customer"`
	Article       string    `json:"article"`
	Status        int       `json:"status"`
	ActorID       string    `json:"actor_id"`
	ActorName     string    `json:"actor_name"`
	CreatorID     string    `json:"creator_id"`
	Reason        string    `json:"reason,omitempty"`
	Before        *Snapshot `json:"before,omitempty"`
	After         *Snapshot `json:"after,omitempty"`
}

// Send delivers one message. Callers run this in a goroutine and log the
// error themselves; there is nothing to roll back on failure.
func (c *Client) Send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %d", resp.StatusCode)
	}
	return nil
}
