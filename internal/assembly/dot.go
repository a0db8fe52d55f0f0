package assembly

import (
	"fmt"
	"io"
	"strings"

	"github.com/ahrav/go-reactor/internal/domain"
)

// ExportDataflow writes the data-flow graph in DOT format. Nodes are
// labeled with their hierarchical component paths, reactions boxed,
// ports rounded, so the dump can be pasted straight into a graphviz
// viewer when debugging a topology.
func (w *World) ExportDataflow(out io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph dataflow {\n")
	index := make(map[graphNode]int, len(w.dataflow.order))
	for i, n := range w.dataflow.order {
		index[n] = i
		shape := "ellipse"
		if n.kind == nodeReaction {
			shape = "box"
		}
		fmt.Fprintf(&b, "  n%d [ label = %q, shape = %s ];\n",
			i, w.dataflow.describe(n, w.registry), shape)
	}
	for _, from := range w.dataflow.order {
		for _, to := range w.dataflow.edges[from] {
			fmt.Fprintf(&b, "  n%d -> n%d;\n", index[from], index[to])
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(out, b.String())
	return err
}

// ExportTriggers writes the trigger graph in DOT format: edges from
// actions to the reactions they trigger, and from reactions to the
// actions they schedule. Unlike the data-flow dump this graph may
// legitimately contain cycles.
func (w *World) ExportTriggers(out io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph triggers {\n")

	names := make(map[string]struct{})
	declare := func(label, shape string) {
		if _, ok := names[label]; ok {
			return
		}
		names[label] = struct{}{}
		fmt.Fprintf(&b, "  %q [ shape = %s ];\n", label, shape)
	}

	actionLabel := func(id domain.GlobalID) string { return w.registry.ComponentPath(id) }
	reactionLabel := func(id domain.GlobalReactionID) string { return w.registry.ReactionPath(id) }

	for _, action := range w.triggers.actionOrder {
		declare(actionLabel(action), "diamond")
		for _, reaction := range w.triggers.actionTriggers[action] {
			declare(reactionLabel(reaction), "box")
			fmt.Fprintf(&b, "  %q -> %q;\n", actionLabel(action), reactionLabel(reaction))
		}
	}
	for _, reaction := range w.triggers.reactionOrder {
		declare(reactionLabel(reaction), "box")
		for _, action := range w.triggers.reactionSchedules[reaction] {
			declare(actionLabel(action), "diamond")
			fmt.Fprintf(&b, "  %q -> %q [ style = dashed ];\n", reactionLabel(reaction), actionLabel(action))
		}
	}

	b.WriteString("}\n")
	_, err := io.WriteString(out, b.String())
	return err
}
