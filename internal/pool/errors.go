package pool

import "errors"

var (
	// ErrInvalidAmount is returned when a zero or missing amount is supplied
	// where a positive amount is required.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientLiquidity is returned when the pool lacks depth to price
	// or satisfy a request.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInvariantViolation is returned by the defensive check on the pricing
	// formula's output.
	ErrInvariantViolation = errors.New("constant product invariant violated")

	// ErrCorruptedPoolState is returned when shares exist against an empty
	// balance, or vice versa.
	ErrCorruptedPoolState = errors.New("pool balances and shares are inconsistent")

	// ErrNoBalance is returned when the caller holds no shares at all.
	ErrNoBalance = errors.New("holder has no share balance")

	// ErrInsufficientShares is returned when a withdrawal exceeds the caller's
	// recorded share balance.
	ErrInsufficientShares = errors.New("withdrawal exceeds share balance")

	// ErrUnauthorized is returned when a fee update comes from any identity
	// other than the administrator fixed at construction.
	ErrUnauthorized = errors.New("caller is not the fee administrator")

	// ErrFeeOutOfRange is returned when a fee update exceeds MaxFeeBps.
	ErrFeeOutOfRange = errors.New("fee exceeds maximum")

	// ErrUnknownToken is returned for a token side other than A or B.
	ErrUnknownToken = errors.New("unknown token side")
)
