// Package fluo provides a generic finite state machine driven by routes.
//
// A route declares that a transition between two states is legal, with
// either side optionally being Any. Routes can be state-triggered (taken
// by TryState) or event-triggered (taken by TryEvent), and may carry a
// condition evaluated against the attempted transition. Handlers run after
// a transition commits, ordered by priority; error handlers run when an
// attempt is rejected. Route mappings compute targets dynamically when
// enumerating routes is impractical, and route chains fire a handler when
// a sequence of transitions is walked without interruption.
//
//	m := fluo.New[State, Event](Idle)
//	m.AddRoute(fluo.NewRoute[State, Event](fluo.NewTransition(Idle, Running), nil))
//	m.AddEntryHandler(Running, func(ctx *fluo.Context[State, Event]) {
//		log.Println("running since", ctx.FromState)
//	})
//	m.TryState(Running, nil)
//
// Every Add method returns a Disposable removing exactly what it added.
// A Machine is meant for use from a single goroutine.
package fluo
