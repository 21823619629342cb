package fluo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parametrised states: any int moves up or down by one
type level int

func TestEventRouteMapping(t *testing.T) {
	newLevelMachine := func() *Machine[level, testEvent] {
		m := New[level, testEvent](0)
		m.AddRouteMapping(func(event testEvent, from level, userInfo any) (level, bool) {
			switch event {
			case EventGo:
				return from + 1, true
			case EventBack:
				if from == 0 {
					return 0, false
				}
				return from - 1, true
			}
			return 0, false
		})
		return m
	}

	t.Run("resolves events dynamically", func(t *testing.T) {
		m := newLevelMachine()
		assert.True(t, m.TryEvent(EventGo, nil))
		assert.True(t, m.TryEvent(EventGo, nil))
		assert.Equal(t, level(2), m.State())
		assert.True(t, m.TryEvent(EventBack, nil))
		assert.Equal(t, level(1), m.State())
	})

	t.Run("no opinion rejects the event", func(t *testing.T) {
		m := newLevelMachine()
		var rejected int
		m.AddErrorHandler(func(*Context[level, testEvent]) { rejected++ })

		assert.False(t, m.TryEvent(EventBack, nil))
		assert.False(t, m.TryEvent(EventReset, nil))
		assert.Equal(t, 2, rejected)
	})

	t.Run("has route for event", func(t *testing.T) {
		m := newLevelMachine()
		ok, err := m.HasRouteForEvent(NewTransition[level](5, 6), EventGo, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = m.HasRouteForEvent(NewTransition[level](5, 7), EventGo, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("event mappings are not consulted for state attempts", func(t *testing.T) {
		m := newLevelMachine()
		assert.False(t, m.CanTryState(1, nil))
		assert.False(t, m.TryState(1, nil))
	})

	t.Run("static routes win over mappings", func(t *testing.T) {
		m := newLevelMachine()
		m.AddEventRoute(Concrete(EventGo), NewRoute[level, testEvent](NewTransition[level](0, 10), nil))

		to, ok := m.CanTryEvent(EventGo, nil)
		require.True(t, ok)
		assert.Equal(t, level(10), to)
		assert.True(t, m.TryEvent(EventGo, nil))
		assert.Equal(t, level(10), m.State())
	})

	t.Run("first registered mapping wins", func(t *testing.T) {
		m := New[level, testEvent](0)
		m.AddRouteMapping(func(testEvent, level, any) (level, bool) { return 0, false })
		m.AddRouteMapping(func(testEvent, level, any) (level, bool) { return 7, true })
		m.AddRouteMapping(func(testEvent, level, any) (level, bool) { return 8, true })

		to, ok := m.CanTryEvent(EventGo, nil)
		require.True(t, ok)
		assert.Equal(t, level(7), to)
	})

	t.Run("mapping with handler", func(t *testing.T) {
		m := New[level, testEvent](0)
		var seen []level
		d := m.AddRouteMappingWithHandler(func(event testEvent, from level, _ any) (level, bool) {
			if event != EventGo {
				return 0, false
			}
			return from + 1, true
		}, func(ctx *Context[level, testEvent]) {
			seen = append(seen, ctx.ToState)
		})
		m.AddRoute(NewRoute[level, testEvent](AnyTransition[level](), nil))

		m.TryEvent(EventGo, nil)
		m.TryState(5, nil)
		m.TryEvent(EventGo, nil)
		assert.Equal(t, []level{1, 6}, seen)

		assert.True(t, d.Dispose())
		assert.Equal(t, 0, m.MappingCount())
		assert.False(t, m.TryEvent(EventGo, nil))
	})

	t.Run("user info reaches the mapping", func(t *testing.T) {
		m := New[level, testEvent](0)
		m.AddRouteMapping(func(_ testEvent, from level, userInfo any) (level, bool) {
			step, ok := userInfo.(int)
			if !ok {
				return 0, false
			}
			return from + level(step), true
		})

		assert.True(t, m.TryEvent(EventGo, 3))
		assert.Equal(t, level(3), m.State())
		assert.False(t, m.TryEvent(EventGo, "three"))
	})
}

func TestStateRouteMapping(t *testing.T) {
	neighbours := func(from level, _ any) []level {
		if from == 0 {
			return []level{1}
		}
		return []level{from - 1, from + 1}
	}

	t.Run("membership allows the transition", func(t *testing.T) {
		m := New[level, testEvent](0)
		m.AddStateRouteMapping(neighbours)

		assert.False(t, m.TryState(2, nil))
		assert.True(t, m.TryState(1, nil))
		assert.True(t, m.TryState(2, nil))
		assert.True(t, m.TryState(1, nil))
		assert.Equal(t, level(1), m.State())

		ok, err := m.HasRoute(NewTransition[level](4, 5), nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("state mappings are not consulted for events", func(t *testing.T) {
		m := New[level, testEvent](0)
		m.AddStateRouteMapping(neighbours)

		_, ok := m.CanTryEvent(EventGo, nil)
		assert.False(t, ok)
		ok, err := m.HasRouteForEvent(NewTransition[level](0, 1), EventGo, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil result has no opinion", func(t *testing.T) {
		m := New[level, testEvent](0)
		m.AddStateRouteMapping(func(level, any) []level { return nil })
		assert.False(t, m.CanTryState(1, nil))
	})

	t.Run("dispose", func(t *testing.T) {
		m := New[level, testEvent](0)
		d := m.AddStateRouteMapping(neighbours)
		assert.Equal(t, 1, m.MappingCount())
		assert.True(t, d.Dispose())
		assert.False(t, d.Dispose())
		assert.False(t, m.CanTryState(1, nil))
	})
}
