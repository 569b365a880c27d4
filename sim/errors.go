package sim

import (
	"errors"
	"fmt"
)

// ErrIntegrity marks a data-integrity violation. A run that hits one is
// aborted: continuing would corrupt every statistic computed downstream.
var ErrIntegrity = errors.New("integrity violation")

// integrityf builds an error wrapping ErrIntegrity.
func integrityf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

// RejectedError is returned when an insert is refused because the key is
// already present. State is left untouched; callers log it and continue.
type RejectedError struct {
	Op  string
	Key string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: duplicate key %s", e.Op, e.Key)
}

// IsRejected reports whether err is (or wraps) a RejectedError.
func IsRejected(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}

// AnomalyType classifies a soft anomaly.
type AnomalyType string

const (
	// AnomalyMicapCountExceeded: MICAP occupancy would exceed the fleet size.
	AnomalyMicapCountExceeded AnomalyType = "MICAP_COUNT_EXCEEDED"
	// AnomalyDuplicateAircraft: an aircraft already waiting was enqueued again.
	AnomalyDuplicateAircraft AnomalyType = "DUPLICATE_AC_ID"
	// AnomalyDuplicatePart: a part already in inventory was enqueued again.
	AnomalyDuplicatePart AnomalyType = "DUPLICATE_PART"
)

// Anomaly is a non-fatal condition recorded for post-run inspection.
type Anomaly struct {
	Type    AnomalyType `json:"type"`
	Time    float64     `json:"time"`
	Entity  int64       `json:"entity"`
	Message string      `json:"message"`
}
