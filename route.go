package fluo

// Condition decides whether a route is legal for the attempted transition.
// A nil Condition always passes.
type Condition[S, E comparable] func(ctx *Context[S, E]) bool

// Route is a transition guarded by an optional condition
type Route[S, E comparable] struct {
	Transition Transition[S]
	Condition  Condition[S, E]
}

// NewRoute creates a route for a transition
func NewRoute[S, E comparable](transition Transition[S], condition Condition[S, E]) Route[S, E] {
	return Route[S, E]{Transition: transition, Condition: condition}
}

// RouteChain registers a route for every leg of a transition chain
type RouteChain[S, E comparable] struct {
	Chain     TransitionChain[S]
	Condition Condition[S, E]
}

// NewRouteChain creates a route chain sharing one condition
func NewRouteChain[S, E comparable](chain TransitionChain[S], condition Condition[S, E]) RouteChain[S, E] {
	return RouteChain[S, E]{Chain: chain, Condition: condition}
}

// Routes returns one route per leg
func (rc RouteChain[S, E]) Routes() []Route[S, E] {
	legs := rc.Chain.Transitions()
	routes := make([]Route[S, E], 0, len(legs))
	for _, leg := range legs {
		routes = append(routes, Route[S, E]{Transition: leg, Condition: rc.Condition})
	}
	return routes
}

// Unless negates a condition; a nil condition negates to "never"
func Unless[S, E comparable](condition Condition[S, E]) Condition[S, E] {
	return func(ctx *Context[S, E]) bool {
		if condition == nil {
			return false
		}
		return !condition(ctx)
	}
}

// passes evaluates a condition; a panicking condition counts as failed
func passes[S, E comparable](condition Condition[S, E], ctx *Context[S, E]) (ok bool) {
	if condition == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if ctx.Machine != nil {
				ctx.Machine.reportPanic(ctx, r)
			}
		}
	}()
	return condition(ctx)
}
