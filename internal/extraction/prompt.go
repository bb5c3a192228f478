package extraction

import (
	"fmt"
	"strings"

	"github.com/dmodern/invoice-etl/internal/schema"
)

// extractInstruction is the shared instruction sent with every invoice
const extractInstruction = `Parse this invoice and provide the output as a JSON object according to the schema. Extract all relevant details including line items. Return ONLY valid JSON with no text before or after it and no markdown code blocks. Use null for any field you cannot find.`

// buildPrompt renders the instruction plus a JSON skeleton of the schema
// for backends that have no structured-output support and must be told
// the expected shape in prose
func buildPrompt(node *schema.Node) string {
	var sb strings.Builder
	sb.WriteString(extractInstruction)
	sb.WriteString("\n\nThe JSON must have exactly this shape:\n")
	renderSkeleton(&sb, node, 0)
	sb.WriteString("\n")
	return sb.String()
}

func renderSkeleton(sb *strings.Builder, n *schema.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case schema.KindObject:
		sb.WriteString("{\n")
		for i, p := range n.Properties {
			fmt.Fprintf(sb, "%s  %q: ", indent, p.Name)
			renderSkeleton(sb, p.Schema, depth+1)
			if i < len(n.Properties)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		sb.WriteString(indent + "}")
	case schema.KindArray:
		sb.WriteString("[\n" + indent + "  ")
		renderSkeleton(sb, n.Items, depth+1)
		sb.WriteString("\n" + indent + "]")
	default:
		if n.Description != "" {
			fmt.Fprintf(sb, "<%s: %s>", n.Kind, n.Description)
		} else {
			fmt.Fprintf(sb, "<%s>", n.Kind)
		}
	}
}
