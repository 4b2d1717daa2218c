package navigation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned for settings the controller cannot run with.
var ErrInvalidConfiguration = errors.New("invalid navigation configuration")

// ValidatePrecision checks that an arrival precision is a non-negative number.
func ValidatePrecision(precision float32) error {
	p := float64(precision)
	if math.IsNaN(p) {
		return fmt.Errorf("%w: precision is NaN", ErrInvalidConfiguration)
	}
	if p < 0 {
		return fmt.Errorf("%w: precision %v is negative", ErrInvalidConfiguration, precision)
	}
	return nil
}
