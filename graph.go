package matpool

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

// ToDot renders the slot tables of the pool as a graphviz digraph: one cluster of
// persistent tensors, one of temporaries and one of input slots pointing at the
// tensors that back them.
func (p *Pool) ToDot() (string, error) {
	persistent, temporary, inputs, epoch := p.snapshot()

	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return "", errors.WithStack(err)
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.WithStack(err)
	}

	var m maebe
	m.subgraph(g, "cluster_persistent", "persistent")
	for i, t := range persistent {
		h := Handle{kind: Persistent, index: i}
		m.node(g, "cluster_persistent", nodeName(h), fmt.Sprintf("%v (%d)\n%dx%d", h, h.Int(), t.Width(), t.Height()))
	}
	m.subgraph(g, "cluster_temporary", fmt.Sprintf("temporary, epoch %d", epoch))
	for i, t := range temporary {
		h := Handle{kind: Temporary, index: i, epoch: epoch}
		m.node(g, "cluster_temporary", nodeName(h), fmt.Sprintf("%v (%d)\n%dx%d", h, h.Int(), t.Width(), t.Height()))
	}
	m.subgraph(g, "cluster_inputs", "inputs")
	for slot, h := range inputs {
		name := fmt.Sprintf("in%d", slot)
		m.node(g, "cluster_inputs", name, fmt.Sprintf("input %d", slot))
		m.edge(g, name, nodeName(h))
	}
	if m.err != nil {
		return "", m.err
	}
	return g.String(), nil
}

func nodeName(h Handle) string {
	if h.IsTemporary() {
		return fmt.Sprintf("T%d", h.index)
	}
	return fmt.Sprintf("P%d", h.index)
}

// maebe carries the first error of a sequence of graph building calls.
type maebe struct {
	err error
}

func (m *maebe) subgraph(g *gographviz.Graph, name, label string) {
	if m.err != nil {
		return
	}
	m.err = errors.WithStack(g.AddSubGraph("G", name, map[string]string{"label": strconv.Quote(label)}))
}

func (m *maebe) node(g *gographviz.Graph, parent, name, label string) {
	if m.err != nil {
		return
	}
	attrs := map[string]string{
		"fontname": "Monaco",
		"shape":    "box",
		"label":    strconv.Quote(label),
	}
	m.err = errors.WithStack(g.AddNode(parent, name, attrs))
}

func (m *maebe) edge(g *gographviz.Graph, src, dst string) {
	if m.err != nil {
		return
	}
	m.err = errors.WithStack(g.AddEdge(src, dst, true, nil))
}
