package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Samson397/spendflow-core/spendflow"
	"github.com/Samson397/spendflow-core/spendflow/ledger"
	"github.com/Samson397/spendflow-core/spendflow/log"
)

const userIDKey = "userID"

// HeaderUserID identifies the acting user. There is no account system; the
// mobile client sends a stable device-scoped identifier.
const HeaderUserID = "X-User-ID"

// NewRouter builds the Fiber app with all routes mounted.
func NewRouter(svc *ledger.Service, logger log.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	h := &Handler{Ledger: svc, Logger: logger}

	api := app.Group("/v1", requireUser)
	api.Post("/cards", h.CreateCard)
	api.Get("/cards", h.ListCards)
	api.Get("/transactions", h.ListTransactions)
	api.Post("/transactions", h.CreateTransaction)
	api.Post("/transactions/validate", h.ValidateTransaction)
	api.Post("/transfers", h.CreateTransfer)
	api.Post("/transfers/validate", h.ValidateTransfer)
	api.Post("/refunds", h.CreateRefund)
	api.Get("/refund-candidates", h.ListRefundCandidates)
	api.Post("/goals", h.CreateGoal)
	api.Get("/goals", h.ListGoals)

	return app
}

func requireUser(c *fiber.Ctx) error {
	id := c.Get(HeaderUserID)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(spendflow.Response{
			Code:    "MISSING_USER",
			Title:   "Missing User",
			Message: "Set the " + HeaderUserID + " header.",
		})
	}

	c.Locals(userIDKey, id)

	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)

	return id
}
