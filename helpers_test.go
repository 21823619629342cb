package fluo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testState int

const (
	S0 testState = iota
	S1
	S2
	S3
)

type testEvent string

const (
	EventGo    testEvent = "go"
	EventBack  testEvent = "back"
	EventReset testEvent = "reset"
)

type testMachine = Machine[testState, testEvent]
type testContext = Context[testState, testEvent]

func newTestMachine(initial testState) *testMachine {
	return New[testState, testEvent](initial)
}

func route(from, to testState) Route[testState, testEvent] {
	return NewRoute[testState, testEvent](NewTransition(from, to), nil)
}

func routeIf(transition Transition[testState], condition Condition[testState, testEvent]) Route[testState, testEvent] {
	return NewRoute(transition, condition)
}

// TestObserver records every observer callback
type TestObserver struct {
	Transitions []Transition[testState]
	Rejections  []error
	Panics      []error
	Registered  []RegistrationKind
	Disposed    []RegistrationKind
}

func NewTestObserver() *TestObserver {
	return &TestObserver{}
}

func (o *TestObserver) OnTransition(ctx *testContext) {
	o.Transitions = append(o.Transitions, ctx.Transition())
}

func (o *TestObserver) OnTransitionRejected(ctx *testContext, err error) {
	o.Rejections = append(o.Rejections, err)
}

func (o *TestObserver) OnHandlerPanic(ctx *testContext, err error) {
	o.Panics = append(o.Panics, err)
}

func (o *TestObserver) OnRegistered(kind RegistrationKind, key RegistrationKey) {
	o.Registered = append(o.Registered, kind)
}

func (o *TestObserver) OnDisposed(kind RegistrationKind, key RegistrationKey) {
	o.Disposed = append(o.Disposed, kind)
}

// recorder collects handler invocations by name
type recorder struct {
	calls []string
}

func (r *recorder) handler(name string) Handler[testState, testEvent] {
	return func(ctx *testContext) {
		r.calls = append(r.calls, name)
	}
}

func (r *recorder) count(name string) int {
	n := 0
	for _, call := range r.calls {
		if call == name {
			n++
		}
	}
	return n
}

// AssertState checks the machine's current state
func AssertState(t *testing.T, m *testMachine, expected testState) {
	t.Helper()
	assert.Equal(t, expected, m.State(), "unexpected machine state")
}

// walk tries each state in order and returns the results
func walk(m *testMachine, states ...testState) []bool {
	results := make([]bool, 0, len(states))
	for _, state := range states {
		results = append(results, m.TryState(state, nil))
	}
	return results
}
