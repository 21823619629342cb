package fluo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWildcard(t *testing.T) {
	t.Run("concrete values compare structurally", func(t *testing.T) {
		assert.Equal(t, Concrete(S1), Concrete(S1))
		assert.NotEqual(t, Concrete(S1), Concrete(S2))
		assert.NotEqual(t, Concrete(S0), Any[testState]())
		assert.Equal(t, Any[testState](), Any[testState]())
	})

	t.Run("zero value is concrete", func(t *testing.T) {
		var w Wildcard[testState]
		assert.False(t, w.IsAny())
		assert.Equal(t, Concrete(S0), w)
	})

	t.Run("any matches everything", func(t *testing.T) {
		anyState := Any[testState]()
		for _, s := range []testState{S0, S1, S2, S3} {
			assert.True(t, anyState.Matches(s))
		}
		assert.True(t, Concrete(S2).Matches(S2))
		assert.False(t, Concrete(S2).Matches(S3))
	})

	t.Run("value", func(t *testing.T) {
		v, ok := Concrete(S3).Value()
		assert.True(t, ok)
		assert.Equal(t, S3, v)

		_, ok = Any[testState]().Value()
		assert.False(t, ok)
	})

	t.Run("usable as map key", func(t *testing.T) {
		m := map[Wildcard[string]]int{
			Concrete("a"): 1,
			Any[string](): 2,
		}
		assert.Equal(t, 1, m[Concrete("a")])
		assert.Equal(t, 2, m[Any[string]()])
		assert.Equal(t, "*", Any[string]().String())
		assert.Equal(t, "a", Concrete("a").String())
	})
}
