package transform

import (
	"fmt"
	"math"
	"strings"
)

// FlowInput is one named edge before indexing.
type FlowInput struct {
	Source string
	Target string
	Value  float64
}

// Node is a deduplicated flow node.
type Node struct {
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

// Link connects two nodes by index.
type Link struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

// FlowGraph is the node/link structure a Sankey layout consumes.
type FlowGraph struct {
	Nodes   []Node `json:"nodes"`
	Links   []Link `json:"links"`
	Dropped int    `json:"dropped"`
}

// BuildFlow indexes named edges. Nodes are deduplicated by name in
// first-seen order. Edges with a blank endpoint or a value that is not a
// positive finite number are dropped and counted.
func BuildFlow(inputs []FlowInput) FlowGraph {
	var g FlowGraph
	idx := make(map[string]int)
	node := func(name string) int {
		if i, ok := idx[name]; ok {
			return i
		}
		idx[name] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{Name: name})
		return idx[name]
	}

	for _, in := range inputs {
		src := strings.TrimSpace(in.Source)
		dst := strings.TrimSpace(in.Target)
		if src == "" || dst == "" || !(in.Value > 0) || math.IsInf(in.Value, 0) {
			g.Dropped++
			continue
		}
		g.Links = append(g.Links, Link{Source: node(src), Target: node(dst), Value: in.Value})
	}
	return g
}

// NodeIndex returns the index of the named node, or -1.
func (g FlowGraph) NodeIndex(name string) int {
	for i, n := range g.Nodes {
		if n.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that every link references an existing node and carries a
// positive value.
func (g FlowGraph) Validate() error {
	for i, l := range g.Links {
		if l.Source < 0 || l.Source >= len(g.Nodes) || l.Target < 0 || l.Target >= len(g.Nodes) {
			return fmt.Errorf("link %d: endpoint out of range (%d -> %d, %d nodes)", i, l.Source, l.Target, len(g.Nodes))
		}
		if !(l.Value > 0) {
			return fmt.Errorf("link %d: non-positive value %g", i, l.Value)
		}
	}
	return nil
}
