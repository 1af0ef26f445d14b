package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"pairpool/internal/pool"
)

// ErrInvalidRequestBody indicates that the request payload could not be
// parsed into the expected structure.
var ErrInvalidRequestBody = fiber.NewError(fiber.StatusBadRequest, "invalid request payload")

// ErrCallerRequired is returned when the caller identity is missing.
var ErrCallerRequired = fiber.NewError(fiber.StatusBadRequest, "caller address is required")

// ErrInvalidCaller is returned for a malformed caller identity.
var ErrInvalidCaller = fiber.NewError(fiber.StatusBadRequest, "invalid caller address")

// ErrAmountRequired is returned when an amount field is missing.
var ErrAmountRequired = fiber.NewError(fiber.StatusBadRequest, "amount is required")

// ErrInvalidAmountFormat is returned when an amount is not a base-10 integer.
var ErrInvalidAmountFormat = fiber.NewError(fiber.StatusBadRequest, "invalid amount format")

// ErrAmountNonPositive is returned when an amount is zero or negative.
var ErrAmountNonPositive = fiber.NewError(fiber.StatusBadRequest, "amount must be greater than zero")

// ErrInvalidToken is returned for a token side other than A or B.
var ErrInvalidToken = fiber.NewError(fiber.StatusBadRequest, "token must be A or B")

// ErrInternal signals a generic server-side failure.
var ErrInternal = fiber.NewError(fiber.StatusInternalServerError, "internal error")

// NewInvalidAddress returns a 400 Bad Request for an invalid address field.
func NewInvalidAddress(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field+" address")
}

// mapEngineError translates pool engine failures into HTTP errors. Engine
// errors are expected caller-recoverable conditions, so most map to 400; the
// defensive invariant checks surface as 500.
func mapEngineError(err error) error {
	switch {
	case errors.Is(err, pool.ErrInvalidAmount),
		errors.Is(err, pool.ErrUnknownToken),
		errors.Is(err, pool.ErrInsufficientLiquidity),
		errors.Is(err, pool.ErrNoBalance),
		errors.Is(err, pool.ErrInsufficientShares),
		errors.Is(err, pool.ErrFeeOutOfRange):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, pool.ErrUnauthorized):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, pool.ErrCorruptedPoolState),
		errors.Is(err, pool.ErrInvariantViolation):
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	default:
		return nil
	}
}
