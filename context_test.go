package fluo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext(t *testing.T) {
	t.Run("state triggered", func(t *testing.T) {
		ctx := newContext[testState, testEvent](nil, nil, S0, S1, "info")

		_, ok := ctx.Event()
		assert.False(t, ok)
		assert.False(t, ctx.IsEventTriggered())
		assert.Equal(t, NewTransition(S0, S1), ctx.Transition())
		assert.Equal(t, "0 => 1", ctx.String())
		assert.NotNil(t, ctx.Context)
	})

	t.Run("event triggered", func(t *testing.T) {
		ctx := newContext[testState, testEvent](nil, nil, S1, S2, nil).withEvent(EventGo)

		event, ok := ctx.Event()
		assert.True(t, ok)
		assert.Equal(t, EventGo, event)
		assert.Equal(t, "1 => 2 on go", ctx.String())
	})

	t.Run("data", func(t *testing.T) {
		ctx := newContext[testState, testEvent](nil, nil, S0, S1, nil)
		_, ok := ctx.Get("missing")
		assert.False(t, ok)

		ctx.Set("count", 3)
		value, ok := ctx.Get("count")
		assert.True(t, ok)
		assert.Equal(t, 3, value)
	})

	t.Run("user info as", func(t *testing.T) {
		ctx := newContext[testState, testEvent](nil, nil, S0, S1, "hello")

		s, ok := UserInfoAs[string](ctx)
		assert.True(t, ok)
		assert.Equal(t, "hello", s)

		_, ok = UserInfoAs[int](ctx)
		assert.False(t, ok)
	})
}
