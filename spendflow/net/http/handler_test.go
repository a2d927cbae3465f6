package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samson397/spendflow-core/spendflow/ledger"
	"github.com/Samson397/spendflow-core/spendflow/log"
	"github.com/Samson397/spendflow-core/spendflow/money"
	"github.com/Samson397/spendflow-core/spendflow/store"
)

func newTestApp() *fiber.App {
	svc := ledger.New(store.NewMemory(), log.NewNop(), nil, money.DefaultCurrency)

	return NewRouter(svc, log.NewNop())
}

func request(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderUserID, "user-1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func createCard(t *testing.T, app *fiber.App, body map[string]any) map[string]any {
	t.Helper()

	resp := request(t, app, fiber.MethodPost, "/v1/cards", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var card map[string]any
	decode(t, resp, &card)

	return card
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	app := newTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouter_RequiresUserHeader(t *testing.T) {
	t.Parallel()

	app := newTestApp()

	req := httptest.NewRequest(fiber.MethodGet, "/v1/cards", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "MISSING_USER", body["code"])
}

func TestHandler_CreateCard(t *testing.T) {
	t.Parallel()

	app := newTestApp()

	card := createCard(t, app, map[string]any{
		"name":    "Current Account",
		"type":    "debit",
		"balance": "150.50",
	})
	assert.NotEmpty(t, card["id"])
	assert.Equal(t, "debit", card["type"])

	t.Run("unsupported type", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/cards", map[string]any{"type": "prepaid"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body map[string]any
		decode(t, resp, &body)
		assert.Equal(t, "INVALID_CARD", body["code"])
	})
}

func TestHandler_CreateTransaction(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	card := createCard(t, app, map[string]any{"type": "debit", "balance": 50})

	t.Run("insufficient funds is a 422 with the failure body", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/transactions", map[string]any{
			"amount": 60,
			"cardId": card["id"],
			"kind":   "expense",
		})
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		var body struct {
			Code    string `json:"code"`
			Failure struct {
				Kind      string `json:"kind"`
				Shortfall string `json:"shortfall"`
			} `json:"failure"`
		}
		decode(t, resp, &body)
		assert.Equal(t, "INSUFFICIENT_FUNDS", body.Code)
		assert.Equal(t, "10", body.Failure.Shortfall)
	})

	t.Run("invalid amount is a 400", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/transactions", map[string]any{
			"amount": 0,
			"cardId": card["id"],
			"kind":   "expense",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown card is a 404", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/transactions", map[string]any{
			"amount": 10,
			"cardId": "missing",
			"kind":   "expense",
		})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("success returns the committed record", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/transactions", map[string]any{
			"amount":      30,
			"cardId":      card["id"],
			"kind":        "expense",
			"description": "groceries",
		})
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var body struct {
			Transaction struct {
				ID     string `json:"id"`
				Kind   string `json:"kind"`
				Amount string `json:"amount"`
			} `json:"transaction"`
		}
		decode(t, resp, &body)
		assert.NotEmpty(t, body.Transaction.ID)
		assert.Equal(t, "expense", body.Transaction.Kind)
		assert.Equal(t, "30", body.Transaction.Amount)
	})
}

func TestHandler_ValidateTransaction(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	card := createCard(t, app, map[string]any{"type": "debit", "balance": 50})

	// A denial is still a successful validation: 200 with valid=false.
	resp := request(t, app, fiber.MethodPost, "/v1/transactions/validate", map[string]any{
		"amount": 60,
		"cardId": card["id"],
		"kind":   "expense",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Valid   bool `json:"valid"`
		Failure *struct {
			Kind string `json:"kind"`
		} `json:"failure"`
	}
	decode(t, resp, &body)
	assert.False(t, body.Valid)
	require.NotNil(t, body.Failure)
	assert.Equal(t, "INSUFFICIENT_FUNDS", body.Failure.Kind)

	// Nothing was committed.
	listResp := request(t, app, fiber.MethodGet, "/v1/transactions", nil)
	var txs []any
	decode(t, listResp, &txs)
	assert.Empty(t, txs)
}

func TestHandler_CreateTransfer(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	from := createCard(t, app, map[string]any{"type": "debit", "balance": 100})
	to := createCard(t, app, map[string]any{"type": "debit", "balance": 10})

	t.Run("same account", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/transfers", map[string]any{
			"amount":     10,
			"fromCardId": from["id"],
			"toCardId":   from["id"],
		})
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		var body map[string]any
		decode(t, resp, &body)
		assert.Equal(t, "SAME_ACCOUNT_TRANSFER", body["code"])
	})

	t.Run("success", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/transfers", map[string]any{
			"amount":     30,
			"fromCardId": from["id"],
			"toCardId":   to["id"],
		})
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})
}

func TestHandler_Refunds(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	card := createCard(t, app, map[string]any{"type": "debit", "balance": 200})

	resp := request(t, app, fiber.MethodPost, "/v1/transactions", map[string]any{
		"amount": 100,
		"cardId": card["id"],
		"kind":   "expense",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var committed struct {
		Transaction struct {
			ID string `json:"id"`
		} `json:"transaction"`
	}
	decode(t, resp, &committed)

	t.Run("refund of a missing original is a 404", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/refunds", map[string]any{
			"amount":     10,
			"originalId": "missing",
		})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("partial refund succeeds and keeps the candidate listed", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/refunds", map[string]any{
			"amount":     60,
			"originalId": committed.Transaction.ID,
		})
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		candResp := request(t, app, fiber.MethodGet, "/v1/refund-candidates", nil)
		var candidates []any
		decode(t, candResp, &candidates)
		assert.Len(t, candidates, 1)
	})

	t.Run("refund past the remainder is a 422", func(t *testing.T) {
		resp := request(t, app, fiber.MethodPost, "/v1/refunds", map[string]any{
			"amount":     41,
			"originalId": committed.Transaction.ID,
		})
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

		var body map[string]any
		decode(t, resp, &body)
		assert.Equal(t, "REFUND_EXCEEDS_REMAINING", body["code"])
	})
}

func TestHandler_Goals(t *testing.T) {
	t.Parallel()

	app := newTestApp()

	resp := request(t, app, fiber.MethodPost, "/v1/goals", map[string]any{
		"name":   "Holiday",
		"target": "1200",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	listResp := request(t, app, fiber.MethodGet, "/v1/goals", nil)
	var goals []any
	decode(t, listResp, &goals)
	assert.Len(t, goals, 1)
}
