package fluo

import (
	"context"
	"fmt"
)

// Context describes one attempted or committed transition. The same
// value is handed to every condition and handler of a single attempt.
type Context[S, E comparable] struct {
	context.Context

	// Machine is the machine the transition runs on
	Machine *Machine[S, E]
	// FromState is the state before the transition
	FromState S
	// ToState is the target state; on a failed event attempt it equals FromState
	ToState S
	// UserInfo is the caller supplied payload
	UserInfo any

	event    E
	hasEvent bool
	data     map[string]any
}

func newContext[S, E comparable](parent context.Context, m *Machine[S, E], from, to S, userInfo any) *Context[S, E] {
	if parent == nil {
		parent = context.Background()
	}
	return &Context[S, E]{
		Context:   parent,
		Machine:   m,
		FromState: from,
		ToState:   to,
		UserInfo:  userInfo,
	}
}

func (ctx *Context[S, E]) withEvent(event E) *Context[S, E] {
	ctx.event = event
	ctx.hasEvent = true
	return ctx
}

// Event returns the triggering event; false for state-triggered transitions
func (ctx *Context[S, E]) Event() (E, bool) {
	return ctx.event, ctx.hasEvent
}

// IsEventTriggered reports whether the transition came from TryEvent
func (ctx *Context[S, E]) IsEventTriggered() bool {
	return ctx.hasEvent
}

// Transition returns the concrete transition
func (ctx *Context[S, E]) Transition() Transition[S] {
	return NewTransition(ctx.FromState, ctx.ToState)
}

// Get retrieves a value stored by an earlier condition or handler of the same attempt
func (ctx *Context[S, E]) Get(key string) (any, bool) {
	value, exists := ctx.data[key]
	return value, exists
}

// Set stores a value visible to later handlers of the same attempt
func (ctx *Context[S, E]) Set(key string, value any) {
	if ctx.data == nil {
		ctx.data = make(map[string]any)
	}
	ctx.data[key] = value
}

func (ctx *Context[S, E]) String() string {
	if ctx.hasEvent {
		return fmt.Sprintf("%v => %v on %v", ctx.FromState, ctx.ToState, ctx.event)
	}
	return fmt.Sprintf("%v => %v", ctx.FromState, ctx.ToState)
}

// UserInfoAs returns the context's user info converted to T
func UserInfoAs[T any, S, E comparable](ctx *Context[S, E]) (T, bool) {
	value, ok := ctx.UserInfo.(T)
	return value, ok
}
