package plan

import (
	"strings"
)

// FormatPlan generates a visual string representation of the plan tree
func FormatPlan(op *Operator) string {
	var sb strings.Builder
	formatRecursive(op, "", true, &sb)
	return sb.String()
}

func formatRecursive(op *Operator, prefix string, checkLast bool, sb *strings.Builder) {
	sb.WriteString(prefix)
	if checkLast {
		sb.WriteString("└─ ")
		prefix += "   "
	} else {
		sb.WriteString("├─ ")
		prefix += "│  "
	}
	sb.WriteString(op.Explain())
	sb.WriteString("\n")

	children := op.Children()
	for i, child := range children {
		formatRecursive(child, prefix, i == len(children)-1, sb)
	}
}
