package inspection

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPIN is returned when a card approval PIN does not match.
	ErrInvalidPIN = errors.New("invalid manager pin")
	// ErrNoDevices is returned when a request names no device.
	ErrNoDevices = errors.New("no device serial numbers")
)

// ValidationError lists the labels of required fields left unanswered.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}
