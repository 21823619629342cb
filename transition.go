package fluo

import "fmt"

// Transition is a (from, to) pair where either side may be Any.
// Only specific transitions ever reach conditions and handlers;
// wildcard transitions are for registration.
type Transition[S comparable] struct {
	From Wildcard[S]
	To   Wildcard[S]
}

// NewTransition creates a specific transition
func NewTransition[S comparable](from, to S) Transition[S] {
	return Transition[S]{From: Concrete(from), To: Concrete(to)}
}

// NewWildcardTransition creates a transition from already wrapped values
func NewWildcardTransition[S comparable](from, to Wildcard[S]) Transition[S] {
	return Transition[S]{From: from, To: to}
}

// TransitionFromAny matches every transition entering to
func TransitionFromAny[S comparable](to S) Transition[S] {
	return Transition[S]{From: Any[S](), To: Concrete(to)}
}

// TransitionToAny matches every transition leaving from
func TransitionToAny[S comparable](from S) Transition[S] {
	return Transition[S]{From: Concrete(from), To: Any[S]()}
}

// AnyTransition matches every transition
func AnyTransition[S comparable]() Transition[S] {
	return Transition[S]{From: Any[S](), To: Any[S]()}
}

// IsSpecific reports whether neither side is a wildcard
func (t Transition[S]) IsSpecific() bool {
	return !t.From.IsAny() && !t.To.IsAny()
}

// Matches reports whether the concrete pair (from, to) falls under t
func (t Transition[S]) Matches(from, to S) bool {
	return t.From.Matches(from) && t.To.Matches(to)
}

func (t Transition[S]) String() string {
	return fmt.Sprintf("%s => %s", t.From, t.To)
}

// validTransitions lists every registration key that can match the
// concrete pair. The order is fixed: specific, exit, entry, global.
func validTransitions[S comparable](from, to S) [4]Transition[S] {
	return [4]Transition[S]{
		NewTransition(from, to),
		TransitionToAny(from),
		TransitionFromAny(to),
		AnyTransition[S](),
	}
}

// TransitionChain is an ordered walk of at least two states
type TransitionChain[S comparable] struct {
	states []S
}

// NewTransitionChain creates a chain from consecutive states
func NewTransitionChain[S comparable](states ...S) (TransitionChain[S], error) {
	if len(states) < 2 {
		return TransitionChain[S]{}, NewConfigurationError("TransitionChain",
			fmt.Sprintf("a chain needs at least 2 states, got %d", len(states)))
	}
	return TransitionChain[S]{states: append([]S(nil), states...)}, nil
}

// MustTransitionChain is like NewTransitionChain but panics on invalid input
func MustTransitionChain[S comparable](states ...S) TransitionChain[S] {
	chain, err := NewTransitionChain(states...)
	if err != nil {
		panic(err)
	}
	return chain
}

// States returns a copy of the chain's states
func (c TransitionChain[S]) States() []S {
	return append([]S(nil), c.states...)
}

// Transitions decomposes the chain into its consecutive legs
func (c TransitionChain[S]) Transitions() []Transition[S] {
	if len(c.states) < 2 {
		return nil
	}
	legs := make([]Transition[S], 0, len(c.states)-1)
	for i := 0; i < len(c.states)-1; i++ {
		legs = append(legs, NewTransition(c.states[i], c.states[i+1]))
	}
	return legs
}

func (c TransitionChain[S]) String() string {
	s := ""
	for i, state := range c.states {
		if i > 0 {
			s += " => "
		}
		s += fmt.Sprint(state)
	}
	return s
}
