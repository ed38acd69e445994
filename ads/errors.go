package ads

import "errors"

var (
	// ErrBudgetExhausted is returned when the ad does not exist or its
	// remaining budget cannot cover the reward. The two cases are
	// deliberately indistinguishable to the caller.
	ErrBudgetExhausted = errors.New("ad budget exhausted")

	ErrInvalidAmount = errors.New("amount must be positive")
	ErrNotFound      = errors.New("ad not found")
	ErrForbidden     = errors.New("not the ad owner")

	// ErrDuplicateInteraction signals the idempotency key already exists:
	// the reward event was recorded by an earlier attempt.
	ErrDuplicateInteraction = errors.New("interaction already recorded")
)
