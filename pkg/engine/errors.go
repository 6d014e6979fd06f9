package engine

import (
	"errors"
	"fmt"

	"sweetbox/pkg/models"
)

var (
	// ErrNotFound is returned when a referenced record is not in the working state.
	ErrNotFound = errors.New("record not found")
	// ErrConfirmationRequired guards irreversible deletes.
	ErrConfirmationRequired = errors.New("permanent delete requires explicit confirmation")
)

// ValidationError rejects user input before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// QuantityShortage reports a reservation or usage that exceeded stock.
// It is a warning: the quantity was clamped to zero and the operation went ahead.
type QuantityShortage struct {
	ItemID    string
	ItemName  string
	Requested float64
	Available float64
}

// Deducted is how much stock was actually taken.
func (e *QuantityShortage) Deducted() float64 {
	return e.Available
}

func (e *QuantityShortage) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %g, available %g", e.label(), e.Requested, e.Available)
}

func (e *QuantityShortage) label() string {
	if e.ItemName != "" {
		return e.ItemName
	}
	return e.ItemID
}

// RestoreConflict refuses a restore that would leave two active attendance
// logs for one employee on one day.
type RestoreConflict struct {
	LogID      string
	EmployeeID string
	Day        models.Date
	ConflictID string
}

func (e *RestoreConflict) Error() string {
	return fmt.Sprintf("cannot restore log %s: employee %s already has active log %s on %s",
		e.LogID, e.EmployeeID, e.ConflictID, e.Day)
}

func notFound(kind EntityKind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
