package fluo

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error conditions in the state machine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Caller passed a value the operation cannot accept
	ErrCodeInvalidArgument
	// No route or mapping allows the transition
	ErrCodeTransitionNotAllowed
	// Registration input is malformed
	ErrCodeInvalidConfiguration
	// A handler or condition panicked
	ErrCodeHandlerPanic
)

var (
	// ErrInvalidArgument is matched by every ArgumentError
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransitionNotAllowed is matched by every TransitionError
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	// ErrInvalidConfiguration is matched by every ConfigurationError
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ArgumentError reports a programmer mistake detectable at the call site
type ArgumentError struct {
	Operation string
	Argument  string
	Message   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s to %s: %s", e.Argument, e.Operation, e.Message)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewWildcardArgumentError reports a wildcard where a concrete state is required
func NewWildcardArgumentError(operation, argument string) *ArgumentError {
	return &ArgumentError{
		Operation: operation,
		Argument:  argument,
		Message:   "wildcard is not allowed, a concrete state is required",
	}
}

// TransitionError describes a rejected transition attempt.
// It is handed to observers, never returned from TryState or TryEvent.
type TransitionError struct {
	Code   ErrorCode
	From   string
	To     string
	Event  string
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("transition error [%s->%s]: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("transition error [%s->%s on %s]: %s", e.From, e.To, e.Event, e.Reason)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrTransitionNotAllowed
}

// NewTransitionNotAllowedError creates a new transition not allowed error
func NewTransitionNotAllowedError(from, to, event string) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeTransitionNotAllowed,
		From:   from,
		To:     to,
		Event:  event,
		Reason: "transition not allowed",
	}
}

// NewNoRouteForEventError reports that no route resolves an event from a state
func NewNoRouteForEventError(from, event string) *TransitionError {
	return &TransitionError{
		Code:   ErrCodeTransitionNotAllowed,
		From:   from,
		To:     from,
		Event:  event,
		Reason: fmt.Sprintf("no route found from state '%s' for event '%s'", from, event),
	}
}

// ConfigurationError represents malformed registration input
type ConfigurationError struct {
	Component string
	Issue     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Issue)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(component, issue string) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Issue:     issue,
	}
}

// HandlerError wraps a panic recovered from a handler or condition
type HandlerError struct {
	Transition string
	Recovered  any
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler panicked during '%s': %v", e.Transition, e.Recovered)
}

func (e *HandlerError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}

// NewHandlerError creates a new handler panic error
func NewHandlerError(transition string, recovered any) *HandlerError {
	return &HandlerError{
		Transition: transition,
		Recovered:  recovered,
	}
}

// IsArgumentError checks if an error is an ArgumentError
func IsArgumentError(err error) bool {
	var target *ArgumentError
	return errors.As(err, &target)
}

// IsTransitionError checks if an error is a TransitionError
func IsTransitionError(err error) bool {
	var target *TransitionError
	return errors.As(err, &target)
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsHandlerError checks if an error is a HandlerError
func IsHandlerError(err error) bool {
	var target *HandlerError
	return errors.As(err, &target)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var (
		argErr     *ArgumentError
		transErr   *TransitionError
		configErr  *ConfigurationError
		handlerErr *HandlerError
	)
	switch {
	case errors.As(err, &argErr):
		return ErrCodeInvalidArgument
	case errors.As(err, &transErr):
		return transErr.Code
	case errors.As(err, &configErr):
		return ErrCodeInvalidConfiguration
	case errors.As(err, &handlerErr):
		return ErrCodeHandlerPanic
	default:
		return ErrCodeNone
	}
}
