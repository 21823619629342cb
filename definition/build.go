package definition

import (
	"fmt"

	"github.com/anggasct/fluo/v2"
)

type (
	// Handler is the handler type of machines built from definitions
	Handler = fluo.Handler[string, string]
	// Condition is the condition type of machines built from definitions
	Condition = fluo.Condition[string, string]
)

// BuildOption configures Build
type BuildOption func(*buildConfig)

type buildConfig struct {
	machineOptions []fluo.Option
	conditions     map[string]Condition
	chainHandlers  map[string]Handler
}

// WithMachineOptions passes options through to fluo.New
func WithMachineOptions(opts ...fluo.Option) BuildOption {
	return func(c *buildConfig) {
		c.machineOptions = append(c.machineOptions, opts...)
	}
}

// WithCondition makes condition available to routes and chains under name
func WithCondition(name string, condition Condition) BuildOption {
	return func(c *buildConfig) {
		c.conditions[name] = condition
	}
}

// WithChainHandler attaches handler to the chain called name
func WithChainHandler(name string, handler Handler) BuildOption {
	return func(c *buildConfig) {
		c.chainHandlers[name] = handler
	}
}

func (c *buildConfig) condition(name string) (Condition, error) {
	if name == "" {
		return nil, nil
	}
	condition, ok := c.conditions[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidDefinition, name)
	}
	return condition, nil
}

// Build creates a machine in the initial state with every route and chain
// of the definition registered
func (d *Definition) Build(opts ...BuildOption) (*fluo.Machine[string, string], error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	cfg := &buildConfig{
		conditions:    make(map[string]Condition),
		chainHandlers: make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	for name := range cfg.chainHandlers {
		if !d.hasChain(name) {
			return nil, fmt.Errorf("%w: handler for unknown chain %q", ErrInvalidDefinition, name)
		}
	}

	m := fluo.New[string, string](d.Initial, cfg.machineOptions...)

	for i, route := range d.Routes {
		condition, err := cfg.condition(route.When)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}

		r := fluo.NewRoute(fluo.NewWildcardTransition(wildcard(route.From), wildcard(route.To)), condition)
		if len(route.Events) == 0 {
			m.AddRoute(r)
			continue
		}
		for _, event := range route.Events {
			m.AddEventRoute(wildcard(event), r)
		}
	}

	for i, chain := range d.Chains {
		condition, err := cfg.condition(chain.When)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", i, err)
		}

		transitions, err := fluo.NewTransitionChain(chain.States...)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", i, err)
		}

		var handler Handler
		if chain.Name != "" {
			handler = cfg.chainHandlers[chain.Name]
		}
		if _, err := m.AddRouteChain(fluo.NewRouteChain(transitions, condition), handler); err != nil {
			return nil, fmt.Errorf("chain %d: %w", i, err)
		}
	}

	return m, nil
}

func (d *Definition) hasChain(name string) bool {
	for _, chain := range d.Chains {
		if chain.Name == name {
			return true
		}
	}
	return false
}
