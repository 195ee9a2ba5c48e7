// Package gamebackend publishes events to the game platform's messaging
// service. A published message is a JSON document carried as a string in
// the "message" field of the request body, which is the shape game servers
// subscribe to.
package gamebackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public messaging service root.
const DefaultBaseURL = "https://apis.roblox.com/messaging-service/v1"

// DefaultDowntimeTopic is the topic game servers listen on for downtime.
const DefaultDowntimeTopic = "DowntimeEvent"

// ErrNotConfigured is returned when no universe id or API key is set.
var ErrNotConfigured = errors.New("game backend publisher not configured")

// StatusError is a non-2xx response from the messaging service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("messaging service returned %d", e.Code)
	}
	return fmt.Sprintf("messaging service returned %d: %s", e.Code, e.Body)
}

// Publisher posts messages to topics of one universe.
type Publisher struct {
	BaseURL       string
	UniverseID    string
	APIKey        string
	DowntimeTopic string
	Client        *http.Client
}

// New returns a Publisher with defaults filled in.
func New(baseURL, universeID, apiKey, downtimeTopic string, timeout time.Duration) *Publisher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(downtimeTopic) == "" {
		downtimeTopic = DefaultDowntimeTopic
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		UniverseID:    universeID,
		APIKey:        apiKey,
		DowntimeTopic: downtimeTopic,
		Client:        &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the publisher can reach a universe.
func (p *Publisher) Enabled() bool {
	return p != nil && p.UniverseID != "" && p.APIKey != ""
}

type downtimeMessage struct {
	Enabled   bool   `json:"enabled"`
	UpdatedBy string `json:"updatedBy"`
}

// PublishDowntime announces the downtime flag on the downtime topic.
func (p *Publisher) PublishDowntime(ctx context.Context, enabled bool, updatedBy string) error {
	return p.Publish(ctx, p.DowntimeTopic, downtimeMessage{Enabled: enabled, UpdatedBy: updatedBy})
}

// Publish JSON-encodes payload and posts it to topic.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	if !p.Enabled() {
		return ErrNotConfigured
	}
	inner, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	body, err := json.Marshal(map[string]string{"message": string(inner)})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/universes/%s/topics/%s",
		p.BaseURL, url.PathEscape(p.UniverseID), url.PathEscape(topic))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
