package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

// Notifier delivers newly raised alerts to an operations endpoint.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// Noop discards every alert. It is used when no webhook is configured.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, domain.Alert) error { return nil }

// HTTPClient posts alerts as JSON to a webhook.
type HTTPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   zerolog.Logger
}

// NewHTTPClient constructs a webhook notifier. Alerts are posted to <baseURL>/alerts.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse alert webhook url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("alert webhook url must be http or https, got %q", baseURL)
	}
	endpoint := parsed.ResolveReference(&url.URL{Path: parsed.Path + "/alerts"})
	return &HTTPClient{
		endpoint: endpoint.String(),
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger.With().Str("component", "notify").Logger(),
	}, nil
}

// Notify posts one alert. Any non-2xx status is an error.
func (c *HTTPClient) Notify(ctx context.Context, alert domain.Alert) error {
	body, err := json.Marshal(toPayload(alert))
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("alert_id", alert.ID).Msg("webhook rejected alert")
		return fmt.Errorf("notify: webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Payload is the JSON body posted to the webhook.
type Payload struct {
	ID        string    `json:"id"`
	CoachID   string    `json:"coachId"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPayload(a domain.Alert) Payload {
	return Payload{
		ID:        a.ID,
		CoachID:   a.CoachID,
		Type:      a.Type,
		Severity:  string(a.Severity),
		Message:   a.Message,
		CreatedAt: a.CreatedAt.UTC(),
	}
}
