package window

import (
	"errors"
	"fmt"
)

var (
	errEmptyCoeffs      = errors.New("window coefficients must not be empty")
	errZeroCoherentGain = errors.New("window coherent gain is zero")
	errZeroOverlapGain  = errors.New("window overlap gain is zero")
	errInvalidHop       = errors.New("window hop must be in [1, length]")
	errMismatchedLength = errors.New("samples and coefficients must have same length")
)

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}

	return nil
}
