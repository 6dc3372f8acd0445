package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"municipal-planning-collab/internal/engine"
	"municipal-planning-collab/internal/worker"
)

// Client forwards engine events to the external realtime push gateway,
// which owns the actual client connections (websocket/SSE). Delivery is
// best-effort: a gateway failure is logged and never propagated back to
// the request that triggered the event.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type eventEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Forward pushes one event to the gateway
func (c *Client) Forward(ctx context.Context, event string, payload any) error {
	url := fmt.Sprintf("%s/internal/events", c.baseURL)

	body, err := json.Marshal(eventEnvelope{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf(
			"push gateway error: status=%d body=%s",
			resp.StatusCode,
			string(b),
		)
	}

	return nil
}

// Events the gateway cares about. Everything else stays in-process.
var forwardedEvents = []string{
	"comment",
	"notification",
	"participant_joined",
	"participant_left",
	"presence",
	"session_ended",
}

// Register subscribes the client to the engine. Forwards run on the worker
// pool so Emit stays synchronous and cheap for the caller.
func (c *Client) Register(eng *engine.Engine, pool *worker.WorkerPool) {
	for _, event := range forwardedEvents {
		name := event
		eng.Subscribe(name, func(payload any) {
			pool.Submit(func(ctx context.Context) error {
				if err := c.Forward(ctx, name, payload); err != nil {
					log.Printf("[PUSH GATEWAY ERROR] Failed to forward %s event: %v", name, err)
				}
				return nil
			})
		})
	}
}
