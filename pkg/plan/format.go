package plan

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// FormatPlan generates a visual string representation of the join tree
func FormatPlan(n Node) string {
	var sb strings.Builder
	formatRecursive(n, "", true, &sb)
	return sb.String()
}

func formatRecursive(n Node, prefix string, last bool, sb *strings.Builder) {
	sb.WriteString(prefix)
	if last {
		sb.WriteString("└─ ")
		prefix += "   "
	} else {
		sb.WriteString("├─ ")
		prefix += "│  "
	}
	sb.WriteString(n.Explain())
	sb.WriteString("\n")

	children := n.Children()
	for i, child := range children {
		formatRecursive(child, prefix, i == len(children)-1, sb)
	}
}

// FormatColumns renders the projected columns of s with their origin table
// and join depth, one per line. The reported id is marked with '*'.
func FormatColumns(s Select) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCOLUMN\tTABLE\tDEPTH")

	idName := ""
	if id := ID(s); id != nil {
		idName = Name(id)
	}
	for i, c := range Columns(s) {
		base := Resolve(c)
		mark := ""
		if base.Name == idName {
			mark = "*"
		}
		fmt.Fprintf(w, "%d\t%s%s\t%s\t%d\n", i+1, base.Name, mark, base.Table, Depth(c))
	}
	w.Flush()
	return sb.String()
}
