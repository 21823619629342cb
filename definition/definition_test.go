package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anggasct/fluo/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turnstileYAML = `
initial: locked
routes:
  - from: locked
    to: unlocked
    events: [coin]
  - from: unlocked
    to: locked
    events: [push]
  - from: unlocked
    to: "*"
    events: [inspect]
  - from: locked
    to: broken
    when: vandalised
chains:
  - name: cycle
    states: [locked, unlocked, locked]
`

const turnstileTOML = `
initial = "locked"

[[routes]]
from = "locked"
to = "unlocked"
events = ["coin"]

[[routes]]
from = "unlocked"
to = "locked"
events = ["push"]

[[routes]]
from = "unlocked"
to = "*"
events = ["inspect"]

[[routes]]
from = "locked"
to = "broken"
when = "vandalised"

[[chains]]
name = "cycle"
states = ["locked", "unlocked", "locked"]
`

func TestParseYAML(t *testing.T) {
	def, err := ParseYAML([]byte(turnstileYAML))
	require.NoError(t, err)

	assert.Equal(t, "locked", def.Initial)
	require.Len(t, def.Routes, 4)
	assert.Equal(t, Route{From: "locked", To: "unlocked", Events: []string{"coin"}}, def.Routes[0])
	assert.Equal(t, "vandalised", def.Routes[3].When)
	require.Len(t, def.Chains, 1)
	assert.Equal(t, []string{"locked", "unlocked", "locked"}, def.Chains[0].States)
}

func TestParseTOML(t *testing.T) {
	fromTOML, err := ParseTOML([]byte(turnstileTOML))
	require.NoError(t, err)

	fromYAML, err := ParseYAML([]byte(turnstileYAML))
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromTOML)
}

func TestParse_Errors(t *testing.T) {
	_, err := ParseYAML(nil)
	assert.ErrorIs(t, err, ErrNoSourceData)

	_, err = ParseTOML(nil)
	assert.ErrorIs(t, err, ErrNoSourceData)

	_, err = ParseYAML([]byte("initial: [unterminated"))
	assert.ErrorIs(t, err, ErrParseYAML)

	_, err = ParseTOML([]byte("initial = "))
	assert.ErrorIs(t, err, ErrParseTOML)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"empty initial", Definition{}},
		{"wildcard initial", Definition{Initial: Wildcard}},
		{"route without from", Definition{Initial: "a", Routes: []Route{{To: "b"}}}},
		{"route without to", Definition{Initial: "a", Routes: []Route{{From: "a"}}}},
		{"empty event", Definition{Initial: "a", Routes: []Route{{From: "a", To: "b", Events: []string{""}}}}},
		{"short chain", Definition{Initial: "a", Chains: []Chain{{States: []string{"a"}}}}},
		{"wildcard chain", Definition{Initial: "a", Chains: []Chain{{States: []string{"a", Wildcard}}}}},
		{"duplicate chain", Definition{Initial: "a", Chains: []Chain{
			{Name: "c", States: []string{"a", "b"}},
			{Name: "c", States: []string{"b", "a"}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.def.Validate(), ErrInvalidDefinition)
		})
	}

	valid := Definition{Initial: "a", Routes: []Route{{From: Wildcard, To: "b"}}}
	assert.NoError(t, valid.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "turnstile.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(turnstileYAML), 0o644))
	tomlPath := filepath.Join(dir, "turnstile.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(turnstileTOML), 0o644))
	jsonPath := filepath.Join(dir, "turnstile.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0o644))

	def, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "locked", def.Initial)

	def, err = Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "locked", def.Initial)

	_, err = Load(jsonPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	def, err := ParseYAML([]byte(turnstileYAML))
	require.NoError(t, err)

	vandalised := false
	cycles := 0
	m, err := def.Build(
		WithCondition("vandalised", func(*fluo.Context[string, string]) bool { return vandalised }),
		WithChainHandler("cycle", func(*fluo.Context[string, string]) { cycles++ }),
	)
	require.NoError(t, err)

	assert.Equal(t, "locked", m.State())
	assert.False(t, m.TryEvent("push", nil))
	assert.False(t, m.TryEvent("inspect", nil))

	assert.True(t, m.TryEvent("coin", nil))
	assert.Equal(t, "unlocked", m.State())

	// chain legs are state routes
	assert.True(t, m.TryState("locked", nil))
	assert.Equal(t, 1, cycles)

	// the wildcard target keeps the current state and breaks the cycle
	assert.True(t, m.TryEvent("coin", nil))
	assert.True(t, m.TryEvent("inspect", nil))
	assert.Equal(t, "unlocked", m.State())
	assert.True(t, m.TryEvent("push", nil))
	assert.Equal(t, 1, cycles)

	assert.False(t, m.TryState("broken", nil))
	vandalised = true
	assert.True(t, m.TryState("broken", nil))
}

func TestBuild_Errors(t *testing.T) {
	def := &Definition{
		Initial: "a",
		Routes:  []Route{{From: "a", To: "b", When: "missing"}},
	}
	_, err := def.Build()
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	def = &Definition{Initial: "a", Chains: []Chain{{Name: "c", States: []string{"a", "b"}, When: "missing"}}}
	_, err = def.Build()
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	def = &Definition{Initial: "a"}
	_, err = def.Build(WithChainHandler("nope", func(*fluo.Context[string, string]) {}))
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = (&Definition{}).Build()
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestBuild_MachineOptions(t *testing.T) {
	def := &Definition{Initial: "a", Routes: []Route{{From: "a", To: "b"}}}

	m, err := def.Build(WithMachineOptions(fluo.WithReentrancy(fluo.ReentrancyQueue)))
	require.NoError(t, err)
	assert.Equal(t, 1, m.RouteCount())
}

func TestBuild_WildcardEventRouteAllowsStateAttempts(t *testing.T) {
	def := &Definition{
		Initial: "locked",
		Routes: []Route{
			{From: "locked", To: "broken", When: "vandalised"},
			{From: Wildcard, To: Wildcard, Events: []string{"inspect"}},
		},
	}

	m, err := def.Build(WithCondition("vandalised", func(*fluo.Context[string, string]) bool { return false }))
	require.NoError(t, err)

	ok, err := m.HasRouteForEvent(fluo.NewTransition("locked", "broken"), "inspect", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// event routes of every event are legal for state attempts
	assert.True(t, m.TryState("broken", nil))
}
