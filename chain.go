package fluo

// chainTracker detects whether the legs of a chain committed one after
// another with no foreign transition in between. Its hooks are ordinary
// handlers: first leg and every leg at DefaultPriority, every transition
// at priority 150, last leg at priority 200.
type chainTracker[S, E comparable] struct {
	routes  []Route[S, E]
	handler Handler[S, E]
	isError bool

	armed         bool
	canIncrement  bool
	chainingCount int
	allCount      int
}

func newChainTracker[S, E comparable](chain RouteChain[S, E], handler Handler[S, E], isError bool) *chainTracker[S, E] {
	return &chainTracker[S, E]{
		routes:       chain.Routes(),
		handler:      handler,
		isError:      isError,
		canIncrement: true,
	}
}

// onFirstRoute arms the tracker and resets both counters
func (ct *chainTracker[S, E]) onFirstRoute(ctx *Context[S, E]) {
	if !passes(ct.routes[0].Condition, ctx) {
		return
	}
	if !ct.armed {
		ct.armed = true
		ct.chainingCount = 0
		ct.allCount = 0
	}
}

// onRoute counts a recognised leg at most once per commit, e.g. for
// chain 0 => 1 => 0 => 1 while transiting 0 => 1.
func (ct *chainTracker[S, E]) onRoute(route Route[S, E]) Handler[S, E] {
	return func(ctx *Context[S, E]) {
		if !ct.canIncrement || !ct.armed {
			return
		}
		if passes(route.Condition, ctx) {
			ct.chainingCount++
			ct.canIncrement = false
		}
	}
}

// onAnyTransition counts every commit and detects a broken chain
func (ct *chainTracker[S, E]) onAnyTransition(ctx *Context[S, E]) {
	ct.canIncrement = true
	if !ct.armed {
		return
	}
	ct.allCount++
	if ct.chainingCount < ct.allCount {
		ct.armed = false
		if ct.isError {
			ct.handler(ctx)
		}
	}
}

// onLastRoute fires the chain handler when every leg was walked in order
func (ct *chainTracker[S, E]) onLastRoute(ctx *Context[S, E]) {
	last := ct.routes[len(ct.routes)-1]
	if !passes(last.Condition, ctx) {
		return
	}
	legs := len(ct.routes)
	if ct.armed && ct.chainingCount == ct.allCount && ct.chainingCount == legs {
		ct.armed = false
		if !ct.isError {
			ct.handler(ctx)
		}
	}
}

// addChainTracker wires a tracker onto the handler table and returns a
// bundle that removes all of its hooks at once.
func (m *Machine[S, E]) addChainTracker(chain RouteChain[S, E], handler Handler[S, E], isError bool) (Disposable, error) {
	routes := chain.Routes()
	if len(routes) == 0 {
		return nil, NewConfigurationError("RouteChain", "chain has no transitions")
	}
	tracker := newChainTracker(chain, handler, isError)

	disposables := make([]Disposable, 0, len(routes)+3)
	disposables = append(disposables, m.addHandlerEntry(routes[0].Transition, DefaultPriority, tracker.onFirstRoute))
	for _, route := range routes {
		disposables = append(disposables, m.addHandlerEntry(route.Transition, DefaultPriority, tracker.onRoute(route)))
	}
	disposables = append(disposables,
		m.addHandlerEntry(AnyTransition[S](), chainAllRoutesPriority, tracker.onAnyTransition),
		m.addHandlerEntry(routes[len(routes)-1].Transition, chainLastRoutePriority, tracker.onLastRoute),
	)
	return newCompositeDisposable(disposables...), nil
}
