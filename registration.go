package fluo

// HandlerOption configures a handler registration
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	priority Priority
}

// WithPriority sets the handler priority; lower runs earlier
func WithPriority(priority Priority) HandlerOption {
	return func(c *handlerConfig) {
		c.priority = priority
	}
}

func applyHandlerOptions(opts []HandlerOption) handlerConfig {
	c := handlerConfig{priority: DefaultPriority}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (m *Machine[S, E]) nextSeq() uint64 {
	m.seq++
	return m.seq
}

func (m *Machine[S, E]) registered(kind RegistrationKind, key RegistrationKey) {
	m.observers.NotifyRegistered(kind, key)
}

func (m *Machine[S, E]) disposed(kind RegistrationKind, key RegistrationKey) {
	m.logger.Debug("Registration disposed", "kind", string(kind), "key", key.String())
	m.observers.NotifyDisposed(kind, key)
}

// AddRoute registers a state-triggered route
func (m *Machine[S, E]) AddRoute(route Route[S, E]) Disposable {
	entry := &routeEntry[S, E]{
		key:        newRegistrationKey(),
		seq:        m.nextSeq(),
		transition: route.Transition,
		condition:  route.Condition,
	}
	m.routes.addStateRoute(entry)
	m.registered(KindRoute, entry.key)

	return newDisposer(func() {
		if m.routes.removeStateRoute(entry.transition, entry.key) {
			m.disposed(KindRoute, entry.key)
		}
	})
}

// AddRoutes registers one state-triggered route per transition, all
// sharing condition
func (m *Machine[S, E]) AddRoutes(transitions []Transition[S], condition Condition[S, E]) Disposable {
	disposables := make([]Disposable, 0, len(transitions))
	for _, transition := range transitions {
		disposables = append(disposables, m.AddRoute(NewRoute(transition, condition)))
	}
	return newCompositeDisposable(disposables...)
}

// AddRouteWithHandler registers a route and a handler that runs whenever
// a committed transition matches the route and passes its condition
func (m *Machine[S, E]) AddRouteWithHandler(route Route[S, E], handler Handler[S, E], opts ...HandlerOption) Disposable {
	routeDisposable := m.AddRoute(route)
	handlerDisposable := m.AddHandler(route.Transition, func(ctx *Context[S, E]) {
		if passes(route.Condition, ctx) {
			handler(ctx)
		}
	}, opts...)
	return newCompositeDisposable(routeDisposable, handlerDisposable)
}

// AddEventRoute registers a route that is taken when event is tried.
// Use Any for a route that every event may take.
func (m *Machine[S, E]) AddEventRoute(event Wildcard[E], route Route[S, E]) Disposable {
	entry := &routeEntry[S, E]{
		key:        newRegistrationKey(),
		seq:        m.nextSeq(),
		transition: route.Transition,
		condition:  route.Condition,
	}
	m.routes.addEventRoute(event, entry)
	m.registered(KindRoute, entry.key)

	return newDisposer(func() {
		if m.routes.removeEventRoute(event, entry.transition, entry.key) {
			m.disposed(KindRoute, entry.key)
		}
	})
}

// AddEventRoutes registers one event route per transition
func (m *Machine[S, E]) AddEventRoutes(event Wildcard[E], transitions []Transition[S], condition Condition[S, E]) Disposable {
	disposables := make([]Disposable, 0, len(transitions))
	for _, transition := range transitions {
		disposables = append(disposables, m.AddEventRoute(event, NewRoute(transition, condition)))
	}
	return newCompositeDisposable(disposables...)
}

// AddEventRoutesWithHandler registers event routes and a handler that runs
// for committed transitions triggered by a matching event over one of them
func (m *Machine[S, E]) AddEventRoutesWithHandler(event Wildcard[E], transitions []Transition[S], condition Condition[S, E], handler Handler[S, E], opts ...HandlerOption) Disposable {
	routesDisposable := m.AddEventRoutes(event, transitions, condition)
	disposables := []Disposable{routesDisposable}
	for _, transition := range transitions {
		disposables = append(disposables, m.AddEventHandler(event, transition, func(ctx *Context[S, E]) {
			if passes(condition, ctx) {
				handler(ctx)
			}
		}, opts...))
	}
	return newCompositeDisposable(disposables...)
}

func (m *Machine[S, E]) addHandlerEntry(transition Transition[S], priority Priority, handler Handler[S, E]) Disposable {
	entry := &handlerEntry[S, E]{
		key:        newRegistrationKey(),
		priority:   priority,
		transition: transition,
		handler:    handler,
	}
	m.handlers.add(entry)
	m.registered(KindHandler, entry.key)

	return newDisposer(func() {
		if m.handlers.remove(entry.transition, entry.key) {
			m.disposed(KindHandler, entry.key)
		}
	})
}

// AddHandler registers a handler for every committed transition matching
// transition, whether triggered by state or by event
func (m *Machine[S, E]) AddHandler(transition Transition[S], handler Handler[S, E], opts ...HandlerOption) Disposable {
	c := applyHandlerOptions(opts)
	return m.addHandlerEntry(transition, c.priority, handler)
}

// AddEventHandler registers a handler that runs only for event-triggered
// transitions whose event matches event
func (m *Machine[S, E]) AddEventHandler(event Wildcard[E], transition Transition[S], handler Handler[S, E], opts ...HandlerOption) Disposable {
	return m.AddHandler(transition, func(ctx *Context[S, E]) {
		if triggered, ok := ctx.Event(); ok && event.Matches(triggered) {
			handler(ctx)
		}
	}, opts...)
}

// AddEntryHandler runs handler whenever state is entered
func (m *Machine[S, E]) AddEntryHandler(state S, handler Handler[S, E], opts ...HandlerOption) Disposable {
	return m.AddHandler(TransitionFromAny(state), handler, opts...)
}

// AddExitHandler runs handler whenever state is left
func (m *Machine[S, E]) AddExitHandler(state S, handler Handler[S, E], opts ...HandlerOption) Disposable {
	return m.AddHandler(TransitionToAny(state), handler, opts...)
}

// AddAnyHandler runs handler after every committed transition
func (m *Machine[S, E]) AddAnyHandler(handler Handler[S, E], opts ...HandlerOption) Disposable {
	return m.AddHandler(AnyTransition[S](), handler, opts...)
}

// AddErrorHandler runs handler after every rejected attempt
func (m *Machine[S, E]) AddErrorHandler(handler Handler[S, E], opts ...HandlerOption) Disposable {
	c := applyHandlerOptions(opts)
	entry := &handlerEntry[S, E]{
		key:      newRegistrationKey(),
		priority: c.priority,
		handler:  handler,
	}
	m.handlers.addError(entry)
	m.registered(KindErrorHandler, entry.key)

	return newDisposer(func() {
		if m.handlers.removeError(entry.key) {
			m.disposed(KindErrorHandler, entry.key)
		}
	})
}

// AddRouteMapping registers an event route mapping, consulted for event
// attempts after static routes
func (m *Machine[S, E]) AddRouteMapping(mapping EventRouteMapping[S, E]) Disposable {
	key := newRegistrationKey()
	m.mappings.addEvent(key, mapping)
	m.registered(KindMapping, key)

	return newDisposer(func() {
		if m.mappings.removeEvent(key) {
			m.disposed(KindMapping, key)
		}
	})
}

// AddRouteMappingWithHandler registers an event route mapping and a
// handler that runs for committed event transitions the mapping agrees with
func (m *Machine[S, E]) AddRouteMappingWithHandler(mapping EventRouteMapping[S, E], handler Handler[S, E], opts ...HandlerOption) Disposable {
	mappingDisposable := m.AddRouteMapping(mapping)
	handlerDisposable := m.AddAnyHandler(func(ctx *Context[S, E]) {
		event, ok := ctx.Event()
		if !ok {
			return
		}
		if to, ok := mapping(event, ctx.FromState, ctx.UserInfo); ok && to == ctx.ToState {
			handler(ctx)
		}
	}, opts...)
	return newCompositeDisposable(mappingDisposable, handlerDisposable)
}

// AddStateRouteMapping registers a state route mapping, consulted for
// state attempts after static routes
func (m *Machine[S, E]) AddStateRouteMapping(mapping StateRouteMapping[S]) Disposable {
	key := newRegistrationKey()
	m.mappings.addState(key, mapping)
	m.registered(KindMapping, key)

	return newDisposer(func() {
		if m.mappings.removeState(key) {
			m.disposed(KindMapping, key)
		}
	})
}

// AddRouteChain registers a route for every leg of chain and, when
// handler is not nil, a chain handler fired each time the chain is
// walked start to finish without foreign transitions
func (m *Machine[S, E]) AddRouteChain(chain RouteChain[S, E], handler Handler[S, E]) (Disposable, error) {
	routes := chain.Routes()
	if len(routes) == 0 {
		return nil, NewConfigurationError("RouteChain", "chain has no transitions")
	}

	disposables := make([]Disposable, 0, len(routes)+1)
	for _, route := range routes {
		disposables = append(disposables, m.AddRoute(route))
	}
	if handler != nil {
		chainDisposable, err := m.addChainTracker(chain, handler, false)
		if err != nil {
			for _, d := range disposables {
				d.Dispose()
			}
			return nil, err
		}
		disposables = append(disposables, chainDisposable)
	}
	return newCompositeDisposable(disposables...), nil
}

// AddChainHandler fires handler when the legs of chain commit one after
// another. No routes are registered.
func (m *Machine[S, E]) AddChainHandler(chain RouteChain[S, E], handler Handler[S, E]) (Disposable, error) {
	if handler == nil {
		return nil, NewConfigurationError("AddChainHandler", "handler is nil")
	}
	return m.addChainTracker(chain, handler, false)
}

// AddChainErrorHandler fires handler when a started chain is broken by a
// transition that is not its next leg
func (m *Machine[S, E]) AddChainErrorHandler(chain RouteChain[S, E], handler Handler[S, E]) (Disposable, error) {
	if handler == nil {
		return nil, NewConfigurationError("AddChainErrorHandler", "handler is nil")
	}
	return m.addChainTracker(chain, handler, true)
}
