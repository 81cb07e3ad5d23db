package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"anubis-watch/internal/config"
	"anubis-watch/internal/domain"
)

// Webhook posts alerts as JSON to an HTTP endpoint. Retries are
// bounded by MaxRetries with exponential backoff, and a circuit
// breaker stops hammering an endpoint that keeps failing.
type Webhook struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	retries uint64
	log     *zap.Logger
}

// NewWebhook returns a webhook notifier for the configured endpoint.
func NewWebhook(cfg config.NotifierConfig, log *zap.Logger) *Webhook {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "alert-webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("webhook breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Webhook{
		url:     cfg.WebhookURL,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		retries: cfg.MaxRetries,
		log:     log,
	}
}

// webhookPayload is the posted JSON body.
type webhookPayload struct {
	Wallet    string   `json:"wallet"`
	Mint      string   `json:"mint"`
	Level     string   `json:"level"`
	Reasons   []string `json:"reasons"`
	Score     float64  `json:"score"`
	Tier      string   `json:"tier"`
	CreatedAt string   `json:"created_at"`
}

// Notify posts the alert, retrying transient failures.
func (w *Webhook) Notify(ctx context.Context, a *domain.AlertEvent) error {
	body, err := json.Marshal(webhookPayload{
		Wallet:    a.Wallet,
		Mint:      a.Mint,
		Level:     string(a.Level),
		Reasons:   a.Reasons,
		Score:     a.Score,
		Tier:      string(a.Tier),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling alert payload: %w", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), w.retries), ctx)

	return backoff.Retry(func() error {
		_, err := w.breaker.Execute(func() (interface{}, error) {
			return nil, w.post(ctx, body)
		})
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			// The breaker is refusing calls; retrying inside this
			// delivery will not help.
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ Notifier = (*Webhook)(nil)
	_ Notifier = Nop{}
)
