package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Samson397/spendflow-core/spendflow/validation"
)

// StatusForKind maps a failure kind to an HTTP status. Malformed input is a
// 400, a dangling card reference is a 404, and every business rule denial is
// a 422: the request was well formed, the rules just said no.
func StatusForKind(kind validation.Kind) int {
	switch kind {
	case validation.KindInvalidAmount, validation.KindNoCardSelected:
		return fiber.StatusBadRequest
	case validation.KindCardNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusUnprocessableEntity
	}
}
