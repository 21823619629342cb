package fluo

import (
	"context"
	"fmt"
	"log/slog"
)

// RegistrationKind names what a registration key refers to
type RegistrationKind string

const (
	KindRoute        RegistrationKind = "route"
	KindHandler      RegistrationKind = "handler"
	KindErrorHandler RegistrationKind = "error_handler"
	KindMapping      RegistrationKind = "mapping"
)

// Observer represents an entity that observes machine transitions
type Observer[S, E comparable] interface {
	// OnTransition is called after a transition commits, before handlers run
	OnTransition(ctx *Context[S, E])

	// OnTransitionRejected is called when no route or mapping allows an attempt
	OnTransitionRejected(ctx *Context[S, E], err error)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver[S, E comparable] interface {
	Observer[S, E]

	// OnHandlerPanic is called when a handler panics; remaining handlers still run
	OnHandlerPanic(ctx *Context[S, E], err error)

	// OnRegistered is called for every route, handler and mapping added
	OnRegistered(kind RegistrationKind, key RegistrationKey)

	// OnDisposed is called when a registration is removed
	OnDisposed(kind RegistrationKind, key RegistrationKey)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver[S, E comparable] struct{}

// OnTransition implements the required Observer method
func (o *BaseObserver[S, E]) OnTransition(ctx *Context[S, E]) {}

// OnTransitionRejected implements the required Observer method
func (o *BaseObserver[S, E]) OnTransitionRejected(ctx *Context[S, E], err error) {}

// OnHandlerPanic implements the optional ExtendedObserver method
func (o *BaseObserver[S, E]) OnHandlerPanic(ctx *Context[S, E], err error) {}

// OnRegistered implements the optional ExtendedObserver method
func (o *BaseObserver[S, E]) OnRegistered(kind RegistrationKind, key RegistrationKey) {}

// OnDisposed implements the optional ExtendedObserver method
func (o *BaseObserver[S, E]) OnDisposed(kind RegistrationKind, key RegistrationKey) {}

// ObserverManager manages a collection of observers
type ObserverManager[S, E comparable] struct {
	observers []Observer[S, E]
}

// NewObserverManager creates a new observer manager
func NewObserverManager[S, E comparable]() *ObserverManager[S, E] {
	return &ObserverManager[S, E]{
		observers: make([]Observer[S, E], 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager[S, E]) AddObserver(observer Observer[S, E]) {
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager[S, E]) RemoveObserver(observer Observer[S, E]) {
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager[S, E]) Len() int {
	return len(om.observers)
}

func (om *ObserverManager[S, E]) snapshot() []Observer[S, E] {
	observers := make([]Observer[S, E], len(om.observers))
	copy(observers, om.observers)
	return observers
}

// NotifyTransition notifies all observers of a committed transition.
// A panicking observer is reported to itself and skipped.
func (om *ObserverManager[S, E]) NotifyTransition(ctx *Context[S, E]) {
	for _, observer := range om.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if extObs, ok := observer.(ExtendedObserver[S, E]); ok {
						func() {
							defer func() { _ = recover() }()
							extObs.OnHandlerPanic(ctx, fmt.Errorf("observer panic in OnTransition: %v", r))
						}()
					}
				}
			}()
			observer.OnTransition(ctx)
		}()
	}
}

// NotifyTransitionRejected notifies all observers of a rejected attempt
func (om *ObserverManager[S, E]) NotifyTransitionRejected(ctx *Context[S, E], err error) {
	for _, observer := range om.snapshot() {
		func() {
			defer func() { _ = recover() }()
			observer.OnTransitionRejected(ctx, err)
		}()
	}
}

// NotifyHandlerPanic notifies all observers of a recovered handler panic
func (om *ObserverManager[S, E]) NotifyHandlerPanic(ctx *Context[S, E], err error) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver[S, E]); ok {
			func() {
				defer func() { _ = recover() }()
				extObs.OnHandlerPanic(ctx, err)
			}()
		}
	}
}

// NotifyRegistered notifies all observers of a new registration
func (om *ObserverManager[S, E]) NotifyRegistered(kind RegistrationKind, key RegistrationKey) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver[S, E]); ok {
			func() {
				defer func() { _ = recover() }()
				extObs.OnRegistered(kind, key)
			}()
		}
	}
}

// NotifyDisposed notifies all observers of a removed registration
func (om *ObserverManager[S, E]) NotifyDisposed(kind RegistrationKind, key RegistrationKey) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver[S, E]); ok {
			func() {
				defer func() { _ = recover() }()
				extObs.OnDisposed(kind, key)
			}()
		}
	}
}

// LoggingObserver writes transitions and rejections to a slog.Logger
type LoggingObserver[S, E comparable] struct {
	BaseObserver[S, E]
	logger *slog.Logger
	level  slog.Level
}

// NewLoggingObserver creates a logging observer; transitions are logged at
// level, rejections and handler panics one level above it.
func NewLoggingObserver[S, E comparable](logger *slog.Logger, level slog.Level) *LoggingObserver[S, E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver[S, E]{
		logger: logger.WithGroup("fsm"),
		level:  level,
	}
}

func contextAttrs[S, E comparable](ctx *Context[S, E]) []slog.Attr {
	attrs := []slog.Attr{
		slog.Any("from", ctx.FromState),
		slog.Any("to", ctx.ToState),
	}
	if event, ok := ctx.Event(); ok {
		attrs = append(attrs, slog.Any("event", event))
	}
	return attrs
}

// OnTransition logs committed transitions
func (o *LoggingObserver[S, E]) OnTransition(ctx *Context[S, E]) {
	o.logger.LogAttrs(ctx, o.level, "Transition committed", contextAttrs(ctx)...)
}

// OnTransitionRejected logs rejected attempts
func (o *LoggingObserver[S, E]) OnTransitionRejected(ctx *Context[S, E], err error) {
	attrs := append(contextAttrs(ctx), slog.String("error", err.Error()))
	o.logger.LogAttrs(ctx, o.level+4, "Transition rejected", attrs...)
}

// OnHandlerPanic logs recovered handler panics
func (o *LoggingObserver[S, E]) OnHandlerPanic(ctx *Context[S, E], err error) {
	attrs := append(contextAttrs(ctx), slog.String("error", err.Error()))
	o.logger.LogAttrs(ctx, slog.LevelError, "Handler panicked", attrs...)
}

// OnRegistered logs new registrations at debug level
func (o *LoggingObserver[S, E]) OnRegistered(kind RegistrationKind, key RegistrationKey) {
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "Registered",
		slog.String("kind", string(kind)), slog.String("key", key.String()))
}

// OnDisposed logs removed registrations at debug level
func (o *LoggingObserver[S, E]) OnDisposed(kind RegistrationKind, key RegistrationKey) {
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "Disposed",
		slog.String("kind", string(kind)), slog.String("key", key.String()))
}
