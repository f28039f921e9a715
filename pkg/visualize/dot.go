package visualize

import (
	"fmt"

	"github.com/emicklei/dot"

	"github.com/l7mp/dmultiset/pkg/reactive"
)

// DotGenerator generates Graphviz DOT diagrams.
type DotGenerator struct{}

// Generate renders g as a left-to-right Graphviz digraph. Sources are drawn as ellipses, all other
// nodes as rounded boxes, each labeled with its kind and level.
func (d *DotGenerator) Generate(g *Graph) string {
	graph := build(g, func(info reactive.NodeInfo, n dot.Node) {
		shape := "box"
		if info.Kind == "source" {
			shape = "ellipse"
		}
		n.Attr("label", fmt.Sprintf("%s (%s@%d)", info.Name, info.Kind, info.Level)).
			Attr("shape", shape).
			Attr("style", "filled,rounded").
			Attr("fillcolor", fillColor(info.Kind)).
			Attr("fontname", "helvetica")
	})

	graph.Attr("rankdir", "LR")
	graph.Attr("newrank", "true")
	if g.Title != "" {
		graph.Attr("label", g.Title)
		graph.Attr("labelloc", "t")
		graph.Attr("fontsize", "16")
	}
	return graph.String()
}
