package fluo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// ReentrancyPolicy decides what happens when a handler or condition calls
// TryState or TryEvent on the machine that is currently transitioning.
type ReentrancyPolicy int

const (
	// ReentrancyUndefined runs nested attempts inline. Chain tracking may
	// miscount while a nested attempt interleaves with the outer handler pass.
	ReentrancyUndefined ReentrancyPolicy = iota
	// ReentrancyQueue defers nested attempts until the current handler pass
	// finishes. A queued attempt reports true when accepted into the queue.
	ReentrancyQueue
)

func (p ReentrancyPolicy) String() string {
	switch p {
	case ReentrancyQueue:
		return "queue"
	default:
		return "undefined"
	}
}

// Option configures a Machine
type Option func(*options)

type options struct {
	logger     *slog.Logger
	reentrancy ReentrancyPolicy
}

// WithLogger sets the logger used for debug records and handler panics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogHandler builds the machine logger from a slog.Handler
func WithLogHandler(handler slog.Handler) Option {
	return func(o *options) {
		if handler != nil {
			o.logger = slog.New(handler)
		}
	}
}

// WithReentrancy sets the policy for nested transition attempts
func WithReentrancy(policy ReentrancyPolicy) Option {
	return func(o *options) {
		o.reentrancy = policy
	}
}

// Machine is a finite state machine over states S and events E.
//
// A Machine is not safe for concurrent use; callers that share one across
// goroutines must serialise every call, handlers included.
type Machine[S, E comparable] struct {
	state S

	routes    *routeIndex[S, E]
	handlers  *handlerTable[S, E]
	mappings  *mappingRegistry[S, E]
	observers *ObserverManager[S, E]

	logger     *slog.Logger
	reentrancy ReentrancyPolicy

	seq          uint64
	inTransition bool
	pending      []func() bool
}

// New creates a machine in the initial state
func New[S, E comparable](initial S, opts ...Option) *Machine[S, E] {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Machine[S, E]{
		state:      initial,
		routes:     newRouteIndex[S, E](),
		handlers:   newHandlerTable[S, E](),
		mappings:   newMappingRegistry[S, E](),
		observers:  NewObserverManager[S, E](),
		logger:     o.logger,
		reentrancy: o.reentrancy,
	}
}

// NewConfigured creates a machine and hands it to configure for
// declarative setup before returning it
func NewConfigured[S, E comparable](initial S, configure func(m *Machine[S, E]), opts ...Option) *Machine[S, E] {
	m := New[S, E](initial, opts...)
	if configure != nil {
		configure(m)
	}
	return m
}

// State returns the current state
func (m *Machine[S, E]) State() S {
	return m.state
}

// Logger returns the machine logger
func (m *Machine[S, E]) Logger() *slog.Logger {
	return m.logger
}

// AddObserver adds an observer
func (m *Machine[S, E]) AddObserver(observer Observer[S, E]) {
	m.observers.AddObserver(observer)
}

// RemoveObserver removes an observer
func (m *Machine[S, E]) RemoveObserver(observer Observer[S, E]) {
	m.observers.RemoveObserver(observer)
}

// HasRoute reports whether transition is legal for a state-triggered
// attempt. Both state routes and event routes are eligible, followed by
// state route mappings. transition must be specific.
func (m *Machine[S, E]) HasRoute(transition Transition[S], userInfo any) (bool, error) {
	from, to, err := concretePair("HasRoute", transition)
	if err != nil {
		return false, err
	}
	ctx := newContext(context.Background(), m, from, to, userInfo)
	return m.hasStateRoute(ctx), nil
}

// HasRouteForEvent reports whether transition is legal when triggered by
// event. Only routes for event or for any event count, followed by event
// route mappings. transition must be specific.
func (m *Machine[S, E]) HasRouteForEvent(transition Transition[S], event E, userInfo any) (bool, error) {
	from, to, err := concretePair("HasRouteForEvent", transition)
	if err != nil {
		return false, err
	}
	ctx := newContext(context.Background(), m, from, to, userInfo).withEvent(event)
	return m.hasEventRoute(ctx, event), nil
}

// CanTryState reports whether TryState(to, userInfo) would succeed now
func (m *Machine[S, E]) CanTryState(to S, userInfo any) bool {
	ctx := newContext(context.Background(), m, m.state, to, userInfo)
	return m.hasStateRoute(ctx)
}

// CanTryEvent returns the state TryEvent(event, userInfo) would move to,
// without committing anything
func (m *Machine[S, E]) CanTryEvent(event E, userInfo any) (S, bool) {
	ctx := newContext(context.Background(), m, m.state, m.state, userInfo).withEvent(event)
	return m.resolveEvent(ctx, event)
}

// TryState moves to the target state if a route or mapping allows it
func (m *Machine[S, E]) TryState(to S, userInfo any) bool {
	return m.TryStateWithContext(context.Background(), to, userInfo)
}

// TryStateWithContext is TryState with a context.Context made available
// to conditions and handlers
func (m *Machine[S, E]) TryStateWithContext(parent context.Context, to S, userInfo any) bool {
	return m.attempt(func() bool {
		return m.tryState(parent, to, userInfo)
	})
}

// TryEvent resolves the event against the current state and moves to
// the resolved state
func (m *Machine[S, E]) TryEvent(event E, userInfo any) bool {
	return m.TryEventWithContext(context.Background(), event, userInfo)
}

// TryEventWithContext is TryEvent with a context.Context made available
// to conditions and handlers
func (m *Machine[S, E]) TryEventWithContext(parent context.Context, event E, userInfo any) bool {
	return m.attempt(func() bool {
		return m.tryEvent(parent, event, userInfo)
	})
}

// attempt runs fn, applying the reentrancy policy to nested calls and
// draining queued attempts once the outermost attempt is done.
func (m *Machine[S, E]) attempt(fn func() bool) bool {
	if m.inTransition {
		if m.reentrancy == ReentrancyQueue {
			m.pending = append(m.pending, fn)
			return true
		}
		return fn()
	}

	m.inTransition = true
	defer func() {
		m.inTransition = false
		m.pending = nil
	}()

	result := fn()
	for len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		next()
	}
	return result
}

func (m *Machine[S, E]) tryState(parent context.Context, to S, userInfo any) bool {
	from := m.state
	ctx := newContext(parent, m, from, to, userInfo)

	if !m.hasStateRoute(ctx) {
		m.reject(ctx, NewTransitionNotAllowedError(fmt.Sprint(from), fmt.Sprint(to), ""))
		return false
	}

	m.commit(ctx)
	return true
}

func (m *Machine[S, E]) tryEvent(parent context.Context, event E, userInfo any) bool {
	from := m.state
	ctx := newContext(parent, m, from, from, userInfo).withEvent(event)

	to, ok := m.resolveEvent(ctx, event)
	if !ok {
		ctx.ToState = from
		m.reject(ctx, NewNoRouteForEventError(fmt.Sprint(from), fmt.Sprint(event)))
		return false
	}

	ctx.ToState = to
	m.commit(ctx)
	return true
}

func (m *Machine[S, E]) hasStateRoute(ctx *Context[S, E]) bool {
	if m.routes.hasStateRoute(ctx.FromState, ctx.ToState, ctx) {
		return true
	}
	return m.mappings.hasStateRoute(ctx.FromState, ctx.ToState, ctx.UserInfo)
}

func (m *Machine[S, E]) hasEventRoute(ctx *Context[S, E], event E) bool {
	if m.routes.hasEventRoute(event, ctx.FromState, ctx.ToState, ctx) {
		return true
	}
	return m.mappings.hasEventRoute(event, ctx.FromState, ctx.ToState, ctx.UserInfo)
}

// resolveEvent consults static routes before event route mappings
func (m *Machine[S, E]) resolveEvent(ctx *Context[S, E], event E) (S, bool) {
	if to, ok := m.routes.resolveEvent(event, ctx.FromState, ctx); ok {
		return to, true
	}
	to, ok := m.mappings.resolveEvent(event, ctx.FromState, ctx.UserInfo)
	if ok {
		m.logger.Debug("Event resolved by route mapping",
			"event", event, "from", ctx.FromState, "to", to)
	}
	return to, ok
}

// commit sets the new state and then runs the collected handlers.
// Handlers are collected before the state changes so that handlers
// registered during the pass only apply to later transitions.
func (m *Machine[S, E]) commit(ctx *Context[S, E]) {
	entries := m.handlers.collect(ctx.FromState, ctx.ToState)

	m.state = ctx.ToState
	m.logger.Debug("Transition committed", logArgs(ctx)...)
	m.observers.NotifyTransition(ctx)

	for _, entry := range entries {
		if entry.removed {
			continue
		}
		m.invoke(entry, ctx)
	}
}

func (m *Machine[S, E]) reject(ctx *Context[S, E], err error) {
	m.logger.Debug("Transition rejected", append(logArgs(ctx), "error", err)...)
	m.observers.NotifyTransitionRejected(ctx, err)

	for _, entry := range m.handlers.errors() {
		if entry.removed {
			continue
		}
		m.invoke(entry, ctx)
	}
}

// invoke runs one handler, recovering and reporting a panic so the
// remaining handlers of the pass still run
func (m *Machine[S, E]) invoke(entry *handlerEntry[S, E], ctx *Context[S, E]) {
	defer func() {
		if r := recover(); r != nil {
			m.reportPanic(ctx, r)
		}
	}()
	entry.handler(ctx)
}

func (m *Machine[S, E]) reportPanic(ctx *Context[S, E], recovered any) {
	err := NewHandlerError(ctx.String(), recovered)
	m.logger.Error("Recovered panic", append(logArgs(ctx), "error", err)...)
	m.observers.NotifyHandlerPanic(ctx, err)
}

func logArgs[S, E comparable](ctx *Context[S, E]) []any {
	args := []any{"from", ctx.FromState, "to", ctx.ToState}
	if event, ok := ctx.Event(); ok {
		args = append(args, "event", event)
	}
	return args
}

func concretePair[S comparable](operation string, transition Transition[S]) (S, S, error) {
	var zero S
	from, ok := transition.From.Value()
	if !ok {
		return zero, zero, NewWildcardArgumentError(operation, "transition.From")
	}
	to, ok := transition.To.Value()
	if !ok {
		return zero, zero, NewWildcardArgumentError(operation, "transition.To")
	}
	return from, to, nil
}

// RouteInfo describes one registered route
type RouteInfo[S, E comparable] struct {
	Key        RegistrationKey
	Transition Transition[S]
	// Event is meaningful only when EventTriggered is true
	Event          Wildcard[E]
	EventTriggered bool
	Conditional    bool

	seq uint64
}

// Routes returns every registered route in registration order
func (m *Machine[S, E]) Routes() []RouteInfo[S, E] {
	var infos []RouteInfo[S, E]
	for _, entry := range m.routes.stateRoutes.ordered() {
		infos = append(infos, RouteInfo[S, E]{
			Key:         entry.key,
			Transition:  entry.transition,
			Conditional: entry.condition != nil,
			seq:         entry.seq,
		})
	}
	for event, table := range m.routes.eventRoutes {
		for _, entry := range table.ordered() {
			infos = append(infos, RouteInfo[S, E]{
				Key:            entry.key,
				Transition:     entry.transition,
				Event:          event,
				EventTriggered: true,
				Conditional:    entry.condition != nil,
				seq:            entry.seq,
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].seq < infos[j].seq })
	return infos
}

// RouteCount returns the number of registered routes
func (m *Machine[S, E]) RouteCount() int {
	n := m.routes.stateRoutes.len()
	for _, table := range m.routes.eventRoutes {
		n += table.len()
	}
	return n
}

// HandlerCount returns the number of registered handlers, error handlers
// and chain hooks included
func (m *Machine[S, E]) HandlerCount() int {
	return m.handlers.len()
}

// MappingCount returns the number of registered route mappings
func (m *Machine[S, E]) MappingCount() int {
	return m.mappings.len()
}
