// Package visualization renders the routes of a machine as Graphviz DOT
package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/anggasct/fluo/v2"
)

// DOTGenerator generates Graphviz DOT format representations of a machine's routes
type DOTGenerator[S, E comparable] struct {
	machine *fluo.Machine[S, E]
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowEvents          bool
	ShowConditions      bool
	HighlightCurrent    bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
	WildcardShape       string
	ConditionalStyle    string
	EventTransitionFont string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowEvents:          true,
		ShowConditions:      true,
		HighlightCurrent:    true,
		RankDirection:       "LR",
		NodeShape:           "box",
		WildcardShape:       "circle",
		ConditionalStyle:    "dashed",
		EventTransitionFont: "10",
	}
}

// NewDOTGenerator creates a new DOT generator for the given machine
func NewDOTGenerator[S, E comparable](machine *fluo.Machine[S, E], options ...DOTOptions) *DOTGenerator[S, E] {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator[S, E]{
		machine: machine,
		options: opts,
	}
}

const wildcardNode = "__any__"

// node identifies a graph node; the wildcard never shares an ID with a
// concrete state, whatever that state prints as
type node struct {
	name  string
	isAny bool
}

func nodeOf[S comparable](w fluo.Wildcard[S]) node {
	if w.IsAny() {
		return node{isAny: true}
	}
	return node{name: w.String()}
}

// quote renders s as a DOT double-quoted string
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}

// nodeIDs assigns DOT IDs. Concrete states use their own name; the
// wildcard gets wildcardNode, padded until no concrete state uses it.
func nodeIDs(nodes []node) map[node]string {
	names := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if !n.isAny {
			names[n.name] = true
		}
	}
	anyID := wildcardNode
	for names[anyID] {
		anyID = "_" + anyID + "_"
	}

	ids := make(map[node]string, len(nodes))
	for _, n := range nodes {
		if n.isAny {
			ids[n] = quote(anyID)
		} else {
			ids[n] = quote(n.name)
		}
	}
	return ids
}

// Generate creates a DOT representation of the machine's routes
func (g *DOTGenerator[S, E]) Generate() (string, error) {
	if g.machine == nil {
		return "", fmt.Errorf("no machine to render")
	}
	routes := g.machine.Routes()

	current := node{name: fmt.Sprint(g.machine.State())}
	nodes := collectNodes(current, routes)
	ids := nodeIDs(nodes)

	var dot strings.Builder

	dot.WriteString("digraph StateMachine {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString(fmt.Sprintf("  edge [fontsize=%s];\n\n", g.options.EventTransitionFont))

	g.generateStates(&dot, nodes, ids, current)
	g.generateTransitions(&dot, routes, ids)

	dot.WriteString("}\n")

	return dot.String(), nil
}

// collectNodes lists every node referenced by a route, plus the current
// state even when no route mentions it, sorted by name with the wildcard first
func collectNodes[S, E comparable](current node, routes []fluo.RouteInfo[S, E]) []node {
	seen := map[node]bool{current: true}
	nodes := []node{current}
	for _, route := range routes {
		for _, n := range []node{nodeOf(route.Transition.From), nodeOf(route.Transition.To)} {
			if !seen[n] {
				seen[n] = true
				nodes = append(nodes, n)
			}
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].isAny != nodes[j].isAny {
			return nodes[i].isAny
		}
		return nodes[i].name < nodes[j].name
	})
	return nodes
}

func (g *DOTGenerator[S, E]) generateStates(dot *strings.Builder, nodes []node, ids map[node]string, current node) {
	dot.WriteString("  // States\n")
	for _, n := range nodes {
		id := ids[n]
		switch {
		case n.isAny:
			dot.WriteString(fmt.Sprintf("  %s [shape=%s label=\"any\"];\n", id, g.options.WildcardShape))
		case g.options.HighlightCurrent && n == current:
			dot.WriteString(fmt.Sprintf("  %s [style=\"filled\" fillcolor=lightgreen label=%s];\n",
				id, quote(n.name+"\n(current)")))
		default:
			dot.WriteString(fmt.Sprintf("  %s;\n", id))
		}
	}
	dot.WriteString("\n")
}

// generateTransitions writes one edge per route
func (g *DOTGenerator[S, E]) generateTransitions(dot *strings.Builder, routes []fluo.RouteInfo[S, E], ids map[node]string) {
	dot.WriteString("  // Transitions\n")

	for _, route := range routes {
		var attrs []string

		var label []string
		if g.options.ShowEvents && route.EventTriggered {
			label = append(label, route.Event.String())
		}
		if g.options.ShowConditions && route.Conditional {
			label = append(label, "[guarded]")
		}
		if len(label) > 0 {
			attrs = append(attrs, "label="+quote(strings.Join(label, " ")))
		}
		if route.Conditional {
			attrs = append(attrs, fmt.Sprintf("style=%s", g.options.ConditionalStyle))
		}

		edge := fmt.Sprintf("  %s -> %s", ids[nodeOf(route.Transition.From)], ids[nodeOf(route.Transition.To)])
		if len(attrs) > 0 {
			edge += " [" + strings.Join(attrs, " ") + "]"
		}
		dot.WriteString(edge + ";\n")
	}
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator[S, E]) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// GenerateSVG converts the DOT output to SVG by calling Graphviz
func (g *DOTGenerator[S, E]) GenerateSVG() (string, error) {
	dotContent, err := g.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}
