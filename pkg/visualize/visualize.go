// Package visualize renders the propagation graph of an engine as a diagram.
package visualize

import (
	"fmt"

	"github.com/emicklei/dot"

	"github.com/l7mp/dmultiset/pkg/reactive"
)

// Graph is the visualization graph of an engine.
type Graph struct {
	Title string
	Nodes []reactive.NodeInfo
}

// BuildGraph takes a snapshot of the propagation graph of eng.
func BuildGraph(title string, eng *reactive.Engine) *Graph {
	return &Graph{Title: title, Nodes: eng.Graph()}
}

// Generator renders a graph in some diagram format.
type Generator interface {
	Generate(g *Graph) string
}

// NewGenerator returns the generator for the given format, "dot" or "mermaid".
func NewGenerator(format string) (Generator, error) {
	switch format {
	case "dot":
		return &DotGenerator{}, nil
	case "mermaid":
		return &MermaidGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown diagram format %q: must be dot or mermaid", format)
	}
}

// fillColor returns the fill color of a node kind.
func fillColor(kind string) string {
	switch kind {
	case "source":
		return "lightgreen"
	case "signal":
		return "lightblue"
	case "fold":
		return "lightyellow"
	case "lift":
		return "lightcyan"
	default:
		return "white"
	}
}

// nodeStyler decorates a node of the diagram. Node attributes are format specific: the Mermaid
// renderer of the dot library reads "shape" as one of its own shape values and copies "style"
// verbatim into a Mermaid style statement.
type nodeStyler func(info reactive.NodeInfo, n dot.Node)

// build lays out the nodes of g and an edge from every source to its dependent.
func build(g *Graph, style nodeStyler) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	nodes := make(map[string]dot.Node, len(g.Nodes))
	for _, info := range g.Nodes {
		n := graph.Node(info.Name)
		style(info, n)
		nodes[info.Name] = n
	}

	for _, info := range g.Nodes {
		for _, src := range info.Sources {
			from, ok := nodes[src]
			if !ok {
				continue
			}
			graph.Edge(from, nodes[info.Name])
		}
	}
	return graph
}
