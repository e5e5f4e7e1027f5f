// Package layout positions flow nodes, map geometry, dodged circles and
// radar axes.
package layout

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vizwizards/lifeviz/internal/transform"
)

// ErrLayout indicates a node/link structure that cannot be laid out.
var ErrLayout = errors.New("malformed node/link structure")

// Sankey defaults.
const (
	DefaultNodeWidth   = 15.0
	DefaultNodePadding = 10.0
)

// Sankey lays out a flow graph in columns.
type Sankey struct {
	Width, Height float64
	NodeWidth     float64
	NodePadding   float64
}

// SankeyNode is a positioned node.
type SankeyNode struct {
	Name   string  `json:"name"`
	Column int     `json:"column"`
	Value  float64 `json:"value"`
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
	Y0     float64 `json:"y0"`
	Y1     float64 `json:"y1"`
}

// SankeyLink is a positioned link. Y0 is the band center at the source node
// and Y1 at the target node.
type SankeyLink struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
	Width  float64 `json:"width"`
	Y0     float64 `json:"y0"`
	Y1     float64 `json:"y1"`
}

// SankeyResult is the output of Sankey.Layout.
type SankeyResult struct {
	Nodes   []SankeyNode `json:"nodes"`
	Links   []SankeyLink `json:"links"`
	Columns int          `json:"columns"`
}

// Layout positions g. Columns are the longest-path depth from a source, and
// nodes without outgoing links are pushed to the last column. Node height
// is proportional to max(in-flow, out-flow). Invalid links or cycles fail
// with ErrLayout.
func (s Sankey) Layout(g transform.FlowGraph) (*SankeyResult, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLayout, err)
	}
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrLayout)
	}
	nw, pad := s.NodeWidth, s.NodePadding
	if nw <= 0 {
		nw = DefaultNodeWidth
	}
	if pad < 0 {
		pad = DefaultNodePadding
	}

	n := len(g.Nodes)
	in := make([]float64, n)
	out := make([]float64, n)
	outgoing := make([][]int, n)
	incoming := make([][]int, n)
	indeg := make([]int, n)
	for li, l := range g.Links {
		out[l.Source] += l.Value
		in[l.Target] += l.Value
		outgoing[l.Source] = append(outgoing[l.Source], li)
		incoming[l.Target] = append(incoming[l.Target], li)
		indeg[l.Target]++
	}

	// Longest-path depth via Kahn's algorithm.
	depth := make([]int, n)
	var queue []int
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	visited := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		visited++
		for _, li := range outgoing[u] {
			v := g.Links[li].Target
			if depth[u]+1 > depth[v] {
				depth[v] = depth[u] + 1
			}
			indeg[v]--
			if indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	if visited != n {
		return nil, fmt.Errorf("%w: cycle among %d nodes", ErrLayout, n-visited)
	}

	maxCol := 0
	for _, d := range depth {
		maxCol = max(maxCol, d)
	}
	for i := range depth {
		if len(outgoing[i]) == 0 {
			depth[i] = maxCol
		}
	}

	res := &SankeyResult{Nodes: make([]SankeyNode, n), Columns: maxCol + 1}
	columns := make([][]int, maxCol+1)
	for i, node := range g.Nodes {
		res.Nodes[i] = SankeyNode{Name: node.Name, Column: depth[i], Value: max(in[i], out[i])}
		columns[depth[i]] = append(columns[depth[i]], i)
	}

	// One vertical scale for all columns, fitted to the fullest column.
	ky := -1.0
	for _, col := range columns {
		var total float64
		for _, i := range col {
			total += res.Nodes[i].Value
		}
		if total == 0 {
			continue
		}
		k := (s.Height - float64(len(col)-1)*pad) / total
		if ky < 0 || k < ky {
			ky = k
		}
	}
	if ky <= 0 {
		return nil, fmt.Errorf("%w: height %g too small for %d nodes", ErrLayout, s.Height, n)
	}

	for c, col := range columns {
		x0 := 0.0
		if maxCol > 0 {
			x0 = float64(c) * (s.Width - nw) / float64(maxCol)
		}
		var used float64
		for _, i := range col {
			used += res.Nodes[i].Value * ky
		}
		used += float64(len(col)-1) * pad
		y := (s.Height - used) / 2
		for _, i := range col {
			nd := &res.Nodes[i]
			nd.X0, nd.X1 = x0, x0+nw
			nd.Y0 = y
			nd.Y1 = y + nd.Value*ky
			y = nd.Y1 + pad
		}
	}

	// Stack link bands in node order at both ends.
	res.Links = make([]SankeyLink, len(g.Links))
	for li, l := range g.Links {
		res.Links[li] = SankeyLink{Source: l.Source, Target: l.Target, Value: l.Value, Width: l.Value * ky}
	}
	for i := 0; i < n; i++ {
		outs := append([]int(nil), outgoing[i]...)
		sort.SliceStable(outs, func(a, b int) bool {
			return res.Nodes[g.Links[outs[a]].Target].Y0 < res.Nodes[g.Links[outs[b]].Target].Y0
		})
		y := res.Nodes[i].Y0
		for _, li := range outs {
			res.Links[li].Y0 = y + res.Links[li].Width/2
			y += res.Links[li].Width
		}

		ins := append([]int(nil), incoming[i]...)
		sort.SliceStable(ins, func(a, b int) bool {
			return res.Nodes[g.Links[ins[a]].Source].Y0 < res.Nodes[g.Links[ins[b]].Source].Y0
		})
		y = res.Nodes[i].Y0
		for _, li := range ins {
			res.Links[li].Y1 = y + res.Links[li].Width/2
			y += res.Links[li].Width
		}
	}
	return res, nil
}

// LinkPath returns the SVG path of a horizontal link band's center line,
// drawn with stroke width l.Width.
func (r *SankeyResult) LinkPath(l SankeyLink) string {
	x0 := r.Nodes[l.Source].X1
	x1 := r.Nodes[l.Target].X0
	xm := (x0 + x1) / 2
	var b strings.Builder
	fmt.Fprintf(&b, "M%s,%sC%s,%s %s,%s %s,%s",
		num(x0), num(l.Y0), num(xm), num(l.Y0), num(xm), num(l.Y1), num(x1), num(l.Y1))
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
