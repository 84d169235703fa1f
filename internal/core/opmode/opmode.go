// Package opmode guards operation-mode changes of the snapshot lifecycle scheduler.
//
// The scheduler only ever moves through these transitions:
//
//	RUNNING → STOPPING → STOPPED → RUNNING
//	STOPPING → RUNNING (stop cancelled before in-flight snapshots drained)
//
// Setting the current mode again is a no-op and always allowed.
package opmode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/slmhealth/internal/core/domain"
)

// Mode is an alias for domain.OperationMode for internal use.
type Mode = domain.OperationMode

var (
	// ErrInvalidTransition is returned when an invalid mode transition is attempted.
	ErrInvalidTransition = errors.New("invalid operation mode transition")

	// ErrUnknownMode is returned when a mode string cannot be parsed.
	ErrUnknownMode = errors.New("unknown operation mode")
)

// ValidTransitions defines allowed mode transitions.
// Key is the current mode, value is the list of valid next modes.
var ValidTransitions = map[Mode][]Mode{
	domain.OperationModeRunning:  {domain.OperationModeStopping},
	domain.OperationModeStopping: {domain.OperationModeStopped, domain.OperationModeRunning},
	domain.OperationModeStopped:  {domain.OperationModeRunning},
}

// CanTransition checks if a transition from one mode to another is valid.
func CanTransition(from, to Mode) bool {
	if from == to {
		return to.IsValid()
	}

	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// Check returns ErrInvalidTransition wrapped with context if from → to is not allowed.
// An empty from mode is treated as RUNNING, the scheduler default.
func Check(from, to Mode) error {
	if from == "" {
		from = domain.OperationModeRunning
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Parse converts user input (case-insensitive) into a Mode.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running", "start":
		return domain.OperationModeRunning, nil
	case "stopping":
		return domain.OperationModeStopping, nil
	case "stopped", "stop":
		return domain.OperationModeStopped, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Transition represents a mode change with metadata.
type Transition struct {
	From      Mode
	To        Mode
	Reason    string
	Timestamp time.Time
}

// NewTransition creates a new transition record.
func NewTransition(from, to Mode, reason string) Transition {
	return Transition{
		From:      from,
		To:        to,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// IsValid returns true if this transition is allowed by the state machine.
func (t Transition) IsValid() bool {
	return CanTransition(t.From, t.To)
}

// Describe returns a human-readable description of a mode.
func Describe(m Mode) string {
	switch m {
	case domain.OperationModeRunning:
		return "Running - scheduled snapshots are created"
	case domain.OperationModeStopping:
		return "Stopping - waiting for in-flight snapshots before stopping"
	case domain.OperationModeStopped:
		return "Stopped - no scheduled snapshots are created"
	default:
		return "Unknown mode"
	}
}
