package restock

import "errors"

var (
	// ErrCycleBusy is returned when another cycle holds the cycle lock.
	ErrCycleBusy = errors.New("restock cycle busy")

	// ErrEmptySnapshot is returned when the inventory snapshot has no rows.
	ErrEmptySnapshot = errors.New("inventory snapshot is empty")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid restock config")

	// ErrForecastMismatch is returned when a forecaster does not produce
	// exactly one prediction per record.
	ErrForecastMismatch = errors.New("forecast length does not match snapshot")
)

// Skip reasons are sentinel errors so callers can match them with errors.Is
// while the report keeps their text.
var (
	ErrNoSupplierStock        = errors.New("no supplier stock")
	ErrCycleBudgetExceeded    = errors.New("cycle budget exceeded")
	ErrPriorityBudgetExceeded = errors.New("priority budget exceeded")
	ErrSupplierBudgetExceeded = errors.New("supplier budget exceeded")
	ErrInvalidCost            = errors.New("invalid order cost")
)
