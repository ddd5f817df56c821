package engine

import (
	"errors"

	"github.com/miradorstack/mirador-forecast/internal/utils"
)

var (
	// ErrInvalidInput marks malformed engine inputs. Concrete errors wrap it.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData signals that no retention curve could be fitted.
	ErrInsufficientData = errors.New("insufficient data")
)

func invalidInput(op, format string, args ...any) error {
	return utils.Errorf(op, ErrInvalidInput, format, args...)
}
