package fluo

// RouteBuilder registers routes with a fluent interface:
//
//	m.From(Idle).To(Running).On(Start).When(ready).Do(logStart).Register()
//
// Without On the routes are state-triggered. Every target is combined
// with the source, and every event with every resulting transition.
type RouteBuilder[S, E comparable] struct {
	machine    *Machine[S, E]
	sources    []Wildcard[S]
	targets    []Wildcard[S]
	events     []Wildcard[E]
	conditions []Condition[S, E]
	handlers   []Handler[S, E]
	options    []HandlerOption
}

// From starts a route builder from one or more source states
func (m *Machine[S, E]) From(states ...S) *RouteBuilder[S, E] {
	b := &RouteBuilder[S, E]{machine: m}
	for _, state := range states {
		b.sources = append(b.sources, Concrete(state))
	}
	return b
}

// FromAny starts a route builder matching every source state
func (m *Machine[S, E]) FromAny() *RouteBuilder[S, E] {
	return &RouteBuilder[S, E]{machine: m, sources: []Wildcard[S]{Any[S]()}}
}

// To adds target states
func (b *RouteBuilder[S, E]) To(states ...S) *RouteBuilder[S, E] {
	for _, state := range states {
		b.targets = append(b.targets, Concrete(state))
	}
	return b
}

// ToAny targets every state. As an event route this is an identity
// transition that keeps the current state.
func (b *RouteBuilder[S, E]) ToAny() *RouteBuilder[S, E] {
	b.targets = append(b.targets, Any[S]())
	return b
}

// ToSelf adds a self transition for every concrete source
func (b *RouteBuilder[S, E]) ToSelf() *RouteBuilder[S, E] {
	for _, source := range b.sources {
		if !source.IsAny() {
			b.targets = append(b.targets, source)
		}
	}
	return b
}

// On makes the routes event-triggered
func (b *RouteBuilder[S, E]) On(events ...E) *RouteBuilder[S, E] {
	for _, event := range events {
		b.events = append(b.events, Concrete(event))
	}
	return b
}

// OnAny makes the routes takeable by every event
func (b *RouteBuilder[S, E]) OnAny() *RouteBuilder[S, E] {
	b.events = append(b.events, Any[E]())
	return b
}

// When adds a condition; all conditions must pass
func (b *RouteBuilder[S, E]) When(condition Condition[S, E]) *RouteBuilder[S, E] {
	b.conditions = append(b.conditions, condition)
	return b
}

// Unless adds a negated condition
func (b *RouteBuilder[S, E]) Unless(condition Condition[S, E]) *RouteBuilder[S, E] {
	b.conditions = append(b.conditions, Unless(condition))
	return b
}

// Do adds a handler run after the route is taken
func (b *RouteBuilder[S, E]) Do(handler Handler[S, E]) *RouteBuilder[S, E] {
	b.handlers = append(b.handlers, handler)
	return b
}

// WithPriority sets the priority of handlers added with Do
func (b *RouteBuilder[S, E]) WithPriority(priority Priority) *RouteBuilder[S, E] {
	b.options = append(b.options, WithPriority(priority))
	return b
}

// Transitions returns the transitions the builder would register
func (b *RouteBuilder[S, E]) Transitions() []Transition[S] {
	transitions := make([]Transition[S], 0, len(b.sources)*len(b.targets))
	for _, source := range b.sources {
		for _, target := range b.targets {
			transitions = append(transitions, NewWildcardTransition(source, target))
		}
	}
	return transitions
}

func (b *RouteBuilder[S, E]) condition() Condition[S, E] {
	switch len(b.conditions) {
	case 0:
		return nil
	case 1:
		return b.conditions[0]
	}
	conditions := append([]Condition[S, E](nil), b.conditions...)
	return func(ctx *Context[S, E]) bool {
		for _, condition := range conditions {
			if !passes(condition, ctx) {
				return false
			}
		}
		return true
	}
}

func (b *RouteBuilder[S, E]) handler() Handler[S, E] {
	if len(b.handlers) == 0 {
		return nil
	}
	handlers := append([]Handler[S, E](nil), b.handlers...)
	return func(ctx *Context[S, E]) {
		for _, handler := range handlers {
			handler(ctx)
		}
	}
}

// Register adds the routes and handlers and returns one Disposable for all
// of them. A builder without sources or targets registers nothing.
func (b *RouteBuilder[S, E]) Register() Disposable {
	transitions := b.Transitions()
	condition := b.condition()
	handler := b.handler()

	var disposables []Disposable
	if len(b.events) == 0 {
		for _, transition := range transitions {
			route := NewRoute(transition, condition)
			if handler != nil {
				disposables = append(disposables, b.machine.AddRouteWithHandler(route, handler, b.options...))
			} else {
				disposables = append(disposables, b.machine.AddRoute(route))
			}
		}
		return newCompositeDisposable(disposables...)
	}

	for _, event := range b.events {
		if handler != nil {
			disposables = append(disposables,
				b.machine.AddEventRoutesWithHandler(event, transitions, condition, handler, b.options...))
		} else {
			disposables = append(disposables, b.machine.AddEventRoutes(event, transitions, condition))
		}
	}
	return newCompositeDisposable(disposables...)
}
