package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Samson397/spendflow-core/spendflow"
	"github.com/Samson397/spendflow-core/spendflow/ledger"
	"github.com/Samson397/spendflow-core/spendflow/log"
	"github.com/Samson397/spendflow-core/spendflow/store"
	"github.com/Samson397/spendflow-core/spendflow/validation"
)

// Handler carries the ledger service behind the REST routes.
type Handler struct {
	Ledger *ledger.Service
	Logger log.Logger
}

type cardRequest struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Balance          any    `json:"balance"`
	Limit            any    `json:"limit"`
	OverdraftEnabled bool   `json:"overdraftEnabled"`
	OverdraftLimit   any    `json:"overdraftLimit"`
}

type transactionRequest struct {
	Amount      any    `json:"amount"`
	CardID      string `json:"cardId"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

type transferRequest struct {
	Amount      any    `json:"amount"`
	FromCardID  string `json:"fromCardId"`
	ToCardID    string `json:"toCardId"`
	Description string `json:"description"`
}

type refundRequest struct {
	Amount      any    `json:"amount"`
	OriginalID  string `json:"originalId"`
	Description string `json:"description"`
}

type goalRequest struct {
	Name   string `json:"name"`
	Target any    `json:"target"`
}

type commitResponse struct {
	Transaction *store.Transaction `json:"transaction"`
	Warning     string             `json:"warning,omitempty"`
}

func (h *Handler) CreateCard(c *fiber.Ctx) error {
	var req cardRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	card, err := h.Ledger.CreateCard(c.Context(), userID(c), ledger.CardInput{
		Name:             req.Name,
		Type:             validation.CardType(req.Type),
		Balance:          req.Balance,
		Limit:            req.Limit,
		OverdraftEnabled: req.OverdraftEnabled,
		OverdraftLimit:   req.OverdraftLimit,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(spendflow.Response{
			Code:    "INVALID_CARD",
			Title:   "Invalid Card",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(card)
}

func (h *Handler) ListCards(c *fiber.Ctx) error {
	cards, err := h.Ledger.ListCards(c.Context(), userID(c))
	if err != nil {
		return h.internal(c, err)
	}

	return c.JSON(cards)
}

func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	txs, err := h.Ledger.ListTransactions(c.Context(), userID(c))
	if err != nil {
		return h.internal(c, err)
	}

	return c.JSON(txs)
}

func (h *Handler) CreateTransaction(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	rec, res, err := h.Ledger.CommitTransaction(c.Context(), userID(c), ledger.TransactionInput{
		Amount:      req.Amount,
		CardID:      req.CardID,
		Kind:        validation.TransactionKind(req.Kind),
		Description: req.Description,
	})

	return h.commitReply(c, rec, res, err)
}

func (h *Handler) ValidateTransaction(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := h.Ledger.ValidateTransaction(c.Context(), userID(c), ledger.TransactionInput{
		Amount: req.Amount,
		CardID: req.CardID,
		Kind:   validation.TransactionKind(req.Kind),
	})
	if err != nil {
		return h.internal(c, err)
	}

	return c.JSON(res)
}

func (h *Handler) CreateTransfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	rec, res, err := h.Ledger.CommitTransfer(c.Context(), userID(c), ledger.TransferInput{
		Amount:      req.Amount,
		FromCardID:  req.FromCardID,
		ToCardID:    req.ToCardID,
		Description: req.Description,
	})

	return h.commitReply(c, rec, res, err)
}

func (h *Handler) ValidateTransfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := h.Ledger.ValidateTransfer(c.Context(), userID(c), ledger.TransferInput{
		Amount:     req.Amount,
		FromCardID: req.FromCardID,
		ToCardID:   req.ToCardID,
	})
	if err != nil {
		return h.internal(c, err)
	}

	return c.JSON(res)
}

func (h *Handler) CreateRefund(c *fiber.Ctx) error {
	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	rec, res, err := h.Ledger.CommitRefund(c.Context(), userID(c), ledger.RefundInput{
		Amount:      req.Amount,
		OriginalID:  req.OriginalID,
		Description: req.Description,
	})

	switch {
	case errors.Is(err, store.ErrTransactionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(spendflow.Response{
			Code:    "TRANSACTION_NOT_FOUND",
			Title:   "Transaction Not Found",
			Message: "The transaction to refund could not be found.",
		})
	case errors.Is(err, store.ErrNotRefundable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(spendflow.Response{
			Code:    "NOT_REFUNDABLE",
			Title:   "Not Refundable",
			Message: "Only expenses can be refunded.",
		})
	}

	return h.commitReply(c, rec, res, err)
}

func (h *Handler) ListRefundCandidates(c *fiber.Ctx) error {
	candidates, err := h.Ledger.RefundCandidates(c.Context(), userID(c))
	if err != nil {
		return h.internal(c, err)
	}

	return c.JSON(candidates)
}

func (h *Handler) CreateGoal(c *fiber.Ctx) error {
	var req goalRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	goal, err := h.Ledger.CreateGoal(c.Context(), userID(c), req.Name, req.Target)
	if err != nil {
		return h.internal(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (h *Handler) ListGoals(c *fiber.Ctx) error {
	goals, err := h.Ledger.ListGoals(c.Context(), userID(c))
	if err != nil {
		return h.internal(c, err)
	}

	return c.JSON(goals)
}

// commitReply translates a commit outcome: infrastructure error, business
// denial, or success with an optional warning.
func (h *Handler) commitReply(c *fiber.Ctx, rec *store.Transaction, res validation.Result, err error) error {
	if err != nil {
		return h.internal(c, err)
	}

	if res.Failure != nil {
		body := struct {
			spendflow.Response
			Failure *validation.Failure `json:"failure"`
		}{
			Response: spendflow.ResponseFromFailure(res.Failure),
			Failure:  res.Failure,
		}

		return c.Status(StatusForKind(res.Failure.Kind)).JSON(body)
	}

	return c.Status(fiber.StatusCreated).JSON(commitResponse{Transaction: rec, Warning: res.Warning})
}

func (h *Handler) internal(c *fiber.Ctx, err error) error {
	h.Logger.Errorf("request failed: %v", err)

	return c.Status(fiber.StatusInternalServerError).JSON(spendflow.Response{
		Code:    "INTERNAL_ERROR",
		Title:   "Internal Error",
		Message: "Something went wrong. Try again later.",
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(spendflow.Response{
		Code:    "INVALID_BODY",
		Title:   "Invalid Body",
		Message: "The request body could not be parsed.",
	})
}
