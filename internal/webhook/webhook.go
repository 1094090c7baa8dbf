// Package webhook delivers pipeline events to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	EventHeader     = "X-Webhook-Event"
	DeliveryHeader  = "X-Webhook-Delivery"
)

// Retry delays between delivery attempts
var defaultBackoff = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	15 * time.Second,
	1 * time.Minute,
}

// Publisher posts events to every configured URL. Delivery runs in the
// background so a slow endpoint never holds up a clip request.
type Publisher struct {
	client      *http.Client
	urls        []string
	secret      string
	events      map[string]bool
	maxAttempts int
	backoff     []time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a webhook publisher
func New(cfg config.WebhookConfig) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var filter map[string]bool
	if len(cfg.Events) > 0 {
		filter = make(map[string]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			filter[e] = true
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Publisher{
		client:      &http.Client{Timeout: timeout},
		urls:        cfg.URLs,
		secret:      cfg.Secret,
		events:      filter,
		maxAttempts: attempts,
		backoff:     defaultBackoff,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Publish queues evt for delivery. It only fails if evt cannot be encoded.
func (p *Publisher) Publish(_ context.Context, evt *models.Event) error {
	if p.events != nil && !p.events[evt.Type] {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	for _, url := range p.urls {
		p.wg.Add(1)
		go func(url string) {
			defer p.wg.Done()
			p.deliver(url, evt.Type, uuid.NewString(), payload)
		}(url)
	}
	return nil
}

// Close abandons pending retries and waits for in-flight requests
func (p *Publisher) Close() error {
	p.cancel()
	p.wg.Wait()
	return nil
}

// Flush waits for every queued delivery to finish
func (p *Publisher) Flush() {
	p.wg.Wait()
}

func (p *Publisher) deliver(url, event, deliveryID string, payload []byte) {
	for attempt := 1; ; attempt++ {
		status, err := p.send(url, event, deliveryID, payload)
		if err == nil {
			metrics.RecordWebhookDelivery(event, "delivered")
			return
		}
		metrics.RecordWebhookDelivery(event, "failed")

		logEvt := log.Warn().Err(err).
			Str("url", url).
			Str("event", event).
			Str("delivery_id", deliveryID).
			Int("attempt", attempt).
			Int("status_code", status)

		if attempt >= p.maxAttempts {
			logEvt.Msg("Webhook delivery abandoned")
			return
		}
		logEvt.Msg("Webhook delivery failed, retrying")

		delay := p.backoff[len(p.backoff)-1]
		if attempt-1 < len(p.backoff) {
			delay = p.backoff[attempt-1]
		}
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (p *Publisher) send(url, event, deliveryID string, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(p.ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ytclipper-webhook/1.0")
	req.Header.Set(EventHeader, event)
	req.Header.Set(DeliveryHeader, deliveryID)
	if p.secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, p.secret))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Sign returns the HMAC-SHA256 signature header value for payload
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches payload under secret
func Verify(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}
