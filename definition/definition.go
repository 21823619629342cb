// Package definition loads machine definitions from YAML or TOML and builds
// string-typed machines from them. The value "*" stands for any state or
// any event.
package definition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anggasct/fluo/v2"
	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Wildcard is the token for any state or any event
const Wildcard = "*"

var (
	ErrNoSourceData      = errors.New("no source data provided")
	ErrParseYAML         = errors.New("failed to parse YAML definition")
	ErrParseTOML         = errors.New("failed to parse TOML definition")
	ErrUnsupportedFormat = errors.New("unsupported definition format")
	ErrInvalidDefinition = errors.New("invalid definition")
)

// Route is one route of a definition. A route without events is
// state-triggered.
type Route struct {
	From   string   `yaml:"from" toml:"from"`
	To     string   `yaml:"to" toml:"to"`
	Events []string `yaml:"events,omitempty" toml:"events,omitempty"`
	When   string   `yaml:"when,omitempty" toml:"when,omitempty"`
}

// Chain is a named sequence of states registered as a route chain
type Chain struct {
	Name   string   `yaml:"name" toml:"name"`
	States []string `yaml:"states" toml:"states"`
	When   string   `yaml:"when,omitempty" toml:"when,omitempty"`
}

// Definition describes a machine
type Definition struct {
	Initial string  `yaml:"initial" toml:"initial"`
	Routes  []Route `yaml:"routes" toml:"routes"`
	Chains  []Chain `yaml:"chains,omitempty" toml:"chains,omitempty"`
}

// ParseYAML parses and validates a YAML definition
func ParseYAML(source []byte) (*Definition, error) {
	if len(source) == 0 {
		return nil, ErrNoSourceData
	}

	var def Definition
	if err := yaml.Unmarshal(source, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseYAML, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseTOML parses and validates a TOML definition
func ParseTOML(source []byte) (*Definition, error) {
	if len(source) == 0 {
		return nil, ErrNoSourceData
	}

	var def Definition
	if err := gotoml.Unmarshal(source, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseTOML, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads a definition file, choosing the parser by extension
func Load(path string) (*Definition, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(source)
	case ".toml":
		return ParseTOML(source)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Validate checks the definition for missing or misplaced values
func (d *Definition) Validate() error {
	var errs []error

	switch d.Initial {
	case "":
		errs = append(errs, errors.New("initial state is empty"))
	case Wildcard:
		errs = append(errs, errors.New("initial state cannot be a wildcard"))
	}

	for i, route := range d.Routes {
		if route.From == "" {
			errs = append(errs, fmt.Errorf("route %d: from is empty", i))
		}
		if route.To == "" {
			errs = append(errs, fmt.Errorf("route %d: to is empty", i))
		}
		for _, event := range route.Events {
			if event == "" {
				errs = append(errs, fmt.Errorf("route %d: empty event", i))
			}
		}
	}

	names := make(map[string]bool)
	for i, chain := range d.Chains {
		if chain.Name != "" {
			if names[chain.Name] {
				errs = append(errs, fmt.Errorf("chain %d: duplicate name %q", i, chain.Name))
			}
			names[chain.Name] = true
		}
		if len(chain.States) < 2 {
			errs = append(errs, fmt.Errorf("chain %d: needs at least two states", i))
		}
		for _, state := range chain.States {
			if state == "" || state == Wildcard {
				errs = append(errs, fmt.Errorf("chain %d: states must be concrete, got %q", i, state))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, errors.Join(errs...))
	}
	return nil
}

func wildcard(value string) fluo.Wildcard[string] {
	if value == Wildcard {
		return fluo.Any[string]()
	}
	return fluo.Concrete(value)
}
