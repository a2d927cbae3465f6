// Package notifications delivers committed-transaction events to an external
// endpoint, typically a budgeting or alerting webhook configured per
// deployment.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Samson397/spendflow-core/spendflow/backoff"
	"github.com/Samson397/spendflow-core/spendflow/log"
)

// Event describes a committed mutation.
type Event struct {
	Type      string          `json:"type"`
	UserID    string          `json:"userId"`
	CardID    string          `json:"cardId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
}

// Notifier receives events for committed mutations. Delivery is best effort;
// implementations must not block a commit on a slow receiver.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Webhook posts each event as JSON to a configured URL, retrying transient
// failures with exponentially backed-off, jittered delays. Delivery runs in
// its own goroutine so a slow receiver never holds up the commit path.
type Webhook struct {
	url      string
	client   *http.Client
	logger   log.Logger
	attempts int
	baseWait time.Duration
	inflight sync.WaitGroup
}

// NewWebhook creates a webhook notifier. The client timeout caps how long a
// slow receiver can hold a delivery goroutine.
func NewWebhook(url string, logger log.Logger) *Webhook {
	return &Webhook{
		url:      url,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
		attempts: 3,
		baseWait: 200 * time.Millisecond,
	}
}

// Notify hands the event to a delivery goroutine and returns immediately.
// The delivery context is detached from the caller's cancellation, so a
// finished request does not abort retries still in flight. Failures are
// logged, never returned: the commit has already happened.
func (w *Webhook) Notify(ctx context.Context, event Event) {
	w.inflight.Add(1)

	go func() {
		defer w.inflight.Done()
		w.deliver(context.WithoutCancel(ctx), event)
	}()
}

// Flush blocks until every in-flight delivery has finished or given up.
// Called on shutdown.
func (w *Webhook) Flush() {
	w.inflight.Wait()
}

func (w *Webhook) deliver(ctx context.Context, event Event) {
	var err error

	for attempt := 0; attempt < w.attempts; attempt++ {
		if err = w.send(ctx, event); err == nil {
			return
		}

		w.logger.Warnf("webhook delivery attempt %d failed: %v", attempt+1, err)

		if sleepErr := backoff.SleepWithContext(ctx, backoff.ExponentialWithJitter(w.baseWait, attempt)); sleepErr != nil {
			return
		}
	}

	w.logger.Errorf("webhook delivery gave up after %d attempts: %v", w.attempts, err)
}

func (w *Webhook) send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SpendFlow-Webhook/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return fmt.Errorf("receiver returned status %d", resp.StatusCode)
}
