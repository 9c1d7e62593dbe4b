package em

import (
	"fmt"
	"strings"
)

// DebugString renders the tree rooted at node as an indented listing of
// each node's surviving candidate functions, for use behind a zerolog
// debug-level check rather than a compile-time flag.
func (node *DepTree) DebugString() string {
	var b strings.Builder
	node.writeDebug(&b, 0)
	return b.String()
}

func (node *DepTree) writeDebug(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%s#%d(%s)", strings.Repeat("  ", depth), node.Index, node.Label)
	if len(node.Choices) == 0 {
		b.WriteString(" pass-through")
	} else {
		b.WriteString(":")
		for _, c := range node.Choices {
			fmt.Fprintf(b, " %s", c.Stats.Fun)
		}
	}
	b.WriteString("\n")
	for _, child := range node.Children {
		child.writeDebug(b, depth+1)
	}
}
