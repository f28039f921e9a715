package visualize

import (
	"fmt"
	"strings"

	"github.com/emicklei/dot"

	"github.com/l7mp/dmultiset/pkg/reactive"
)

// MermaidGenerator generates Mermaid flowchart diagrams.
type MermaidGenerator struct{}

// Generate renders g as a fenced Mermaid flowchart. Sources are drawn as stadiums, other nodes as
// rounded boxes.
func (m *MermaidGenerator) Generate(g *Graph) string {
	graph := build(g, func(info reactive.NodeInfo, n dot.Node) {
		shape := dot.MermaidShapeRound
		if info.Kind == "source" {
			shape = dot.MermaidShapeStadium
		}
		n.Attr("label", fmt.Sprintf("%s: %s@%d", info.Name, info.Kind, info.Level)).
			Attr("shape", shape).
			Attr("style", "fill:"+fillColor(info.Kind))
	})

	var b strings.Builder
	b.WriteString("```mermaid\n")
	if g.Title != "" {
		fmt.Fprintf(&b, "---\ntitle: %s\n---\n", g.Title)
	}
	b.WriteString(dot.MermaidFlowchart(graph, dot.MermaidLeftToRight))
	b.WriteString("```\n")
	return b.String()
}
