package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samson397/spendflow-core/spendflow/log"
)

func TestWebhook_Notify(t *testing.T) {
	t.Parallel()

	var received Event

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL, log.NewNop())
	webhook.Notify(context.Background(), Event{
		Type:      "transaction.committed",
		UserID:    "user-1",
		CardID:    "card-1",
		Amount:    decimal.NewFromInt(42),
		Currency:  "GBP",
		Timestamp: time.Now().UTC(),
	})
	webhook.Flush()

	assert.Equal(t, "transaction.committed", received.Type)
	assert.True(t, received.Amount.Equal(decimal.NewFromInt(42)))
}

func TestWebhook_Notify_ReceiverError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// Failures are swallowed; delivery must finish normally.
	webhook := NewWebhook(server.URL, log.NewNop())
	webhook.baseWait = time.Millisecond
	webhook.Notify(context.Background(), Event{Type: "transfer.committed"})
	webhook.Flush()
}

func TestWebhook_Notify_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL, log.NewNop())
	webhook.baseWait = time.Millisecond
	webhook.Notify(context.Background(), Event{Type: "transaction.committed"})
	webhook.Flush()

	assert.Equal(t, 2, calls)
}

func TestWebhook_Notify_DoesNotBlockCaller(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	delivered := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
		close(delivered)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL, log.NewNop())

	// The receiver is stalled; Notify must still return immediately.
	start := time.Now()
	webhook.Notify(context.Background(), Event{Type: "transaction.committed"})
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	webhook.Flush()

	select {
	case <-delivered:
	default:
		t.Fatal("delivery did not complete")
	}
}

func TestWebhook_Notify_SurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	received := make(chan struct{}, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL, log.NewNop())

	// A finished request cancels its context; the delivery must not be
	// aborted with it.
	ctx, cancel := context.WithCancel(context.Background())
	webhook.Notify(ctx, Event{Type: "transaction.committed"})
	cancel()
	webhook.Flush()

	assert.Len(t, received, 1)
}

func TestNop_Notify(t *testing.T) {
	t.Parallel()

	var n Notifier = Nop{}

	n.Notify(context.Background(), Event{})
}
