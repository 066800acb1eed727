package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/docplan/internal/record"
)

// GenerateMermaid produces a Mermaid graph TD diagram of a discourse tree.
// Relation nodes are drawn as hexagons and messages as boxes; edges are
// labelled with the child's role.
func GenerateMermaid(root record.Node) string {
	nextID := 0
	newID := func() string {
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var emit func(n record.Node) string
	emit = func(n record.Node) string {
		id := newID()
		cs, ok := n.(*record.ConstituentSet)
		if !ok {
			sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", id, label(fmt.Sprint(n))))
			return id
		}
		sb.WriteString(fmt.Sprintf("  %s{{\"%s\"}}\n", id, label(cs.Relation())))
		nid := emit(cs.Nucleus())
		sid := emit(cs.Satellite())
		sb.WriteString(fmt.Sprintf("  %s -->|nucleus| %s\n", id, nid))
		sb.WriteString(fmt.Sprintf("  %s -.->|satellite| %s\n", id, sid))
		return id
	}
	if root != nil {
		emit(root)
	}
	return sb.String()
}

// label escapes quotes and truncates long labels for readability.
func label(s string) string {
	const maxLabel = 48
	if r := []rune(s); len(r) > maxLabel {
		s = string(r[:maxLabel-1]) + "…"
	}
	return strings.ReplaceAll(s, `"`, "#quot;")
}
