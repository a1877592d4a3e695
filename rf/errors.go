package rf

import (
	stderrors "errors"
	"math"

	"github.com/pkg/errors"
)

// Error taxonomy. Callers match with errors.Is; the wrapped message carries
// the offending value.
var (
	ErrInvalidParameter = stderrors.New("invalid parameter")
	ErrInvalidGeometry  = stderrors.New("invalid geometry")
	ErrInvalidPattern   = stderrors.New("invalid pattern")
)

// InvalidParameter wraps ErrInvalidParameter with a formatted message.
func InvalidParameter(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidParameter, format, args...)
}

// InvalidGeometry wraps ErrInvalidGeometry with a formatted message.
func InvalidGeometry(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidGeometry, format, args...)
}

// InvalidPattern wraps ErrInvalidPattern with a formatted message.
func InvalidPattern(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidPattern, format, args...)
}

// Positive returns an InvalidParameter error unless v is a finite value > 0.
func Positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return InvalidParameter("%s must be > 0, got %v", name, v)
	}
	return nil
}

// NonNegative returns an InvalidParameter error unless v is a finite value >= 0.
func NonNegative(name string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return InvalidParameter("%s must be >= 0, got %v", name, v)
	}
	return nil
}

// Finite rejects NaN and infinities.
func Finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidParameter("%s must be finite, got %v", name, v)
	}
	return nil
}
