package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/record"
)

// Outline renders a tree as an indented, nucleus-first listing, which is
// the order a linearizer would read it in:
//
//	evaluation
//	  N elaboration
//	    N id {name=X1}
//	    S feature {match=[cpu, ram]}
//	  S price {value=999 (good)}
func Outline(root record.Node) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	record.Walk(root, func(n record.Node, depth int, role record.Role) {
		sb.WriteString(strings.Repeat("  ", depth))
		switch role {
		case record.RoleNucleus:
			sb.WriteString("N ")
		case record.RoleSatellite:
			sb.WriteString("S ")
		}
		if cs, ok := n.(*record.ConstituentSet); ok {
			sb.WriteString(cs.Relation())
		} else {
			sb.WriteString(fmt.Sprint(n))
		}
		sb.WriteByte('\n')
	})
	return sb.String()
}

// PlanOutline is Outline preceded by a header line naming the item.
func PlanOutline(dp *planner.DocumentPlan) string {
	header := dp.ItemID
	if dp.Title != "" {
		header = fmt.Sprintf("%s %q", dp.ItemID, dp.Title)
	}
	return fmt.Sprintf("# %s (score %.2f)\n%s", header, dp.Score, Outline(dp.Root))
}
