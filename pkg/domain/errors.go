package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownAbility is returned when a provider is asked for an ability it does not implement.
	ErrUnknownAbility = errors.New("unknown ability")

	// ErrUnknownProvider is returned when a stage addresses a provider that is not registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrMissingRequiredField is returned when a field is read before the stage producing it has run.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrExecutionAborted marks every failure surfaced by the executor.
	ErrExecutionAborted = errors.New("execution aborted")

	// ErrStageRevisited is returned when routing leads back to a stage that already ran.
	ErrStageRevisited = errors.New("stage revisited")

	// ErrNoTransition is returned when no outgoing edge of a stage matches the state.
	ErrNoTransition = errors.New("no matching transition")

	// ErrFieldRemoved is returned when a stage drops a field written earlier in the run.
	ErrFieldRemoved = errors.New("field removed")

	// ErrRunNotFound is returned when a run record cannot be found in the store.
	ErrRunNotFound = errors.New("run not found")
)

// UnknownAbilityError is a wiring defect between a stage and a provider.
type UnknownAbilityError struct {
	Provider string
	Ability  string
}

func (e *UnknownAbilityError) Error() string {
	return fmt.Sprintf("provider '%s' does not implement ability '%s'", e.Provider, e.Ability)
}

func (e *UnknownAbilityError) Unwrap() error { return ErrUnknownAbility }

// UnknownProviderError is returned when no provider is registered under the name.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("provider '%s' is not registered", e.Provider)
}

func (e *UnknownProviderError) Unwrap() error { return ErrUnknownProvider }

// MissingRequiredFieldError names the fields a stage or provider needed but did not find.
type MissingRequiredFieldError struct {
	Fields []string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

func (e *MissingRequiredFieldError) Unwrap() error { return ErrMissingRequiredField }

// ExecutionAbortedError wraps the failure of a stage together with the record as
// accumulated up to that point. Partial progress is kept for diagnosis.
type ExecutionAbortedError struct {
	Stage string
	State *State
	Err   error
}

func (e *ExecutionAbortedError) Error() string {
	return fmt.Sprintf("execution aborted at stage '%s': %v", e.Stage, e.Err)
}

// Unwrap exposes both the abort marker and the original cause to errors.Is / errors.As.
func (e *ExecutionAbortedError) Unwrap() []error {
	return []error{ErrExecutionAborted, e.Err}
}
