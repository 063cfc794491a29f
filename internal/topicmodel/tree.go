// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topicmodel

import (
	"fmt"
	"strings"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

// TopicTree renders merges as an indented text tree rooted at the last
// merge. Leaves show the topic label and id.
func (m *Model) TopicTree(merges []types.Merge) string {
	if len(merges) == 0 {
		return ""
	}
	byParent := make(map[int]types.Merge, len(merges))
	for _, mg := range merges {
		byParent[mg.Parent] = mg
	}

	var b strings.Builder
	root := merges[len(merges)-1]
	b.WriteString(".\n")
	m.writeNode(&b, byParent, root.Parent, "", true)
	return b.String()
}

func (m *Model) writeNode(b *strings.Builder, byParent map[int]types.Merge, id int, indent string, last bool) {
	branch, next := "├─", indent+"│    "
	if last {
		branch, next = "└─", indent+"     "
	}

	mg, ok := byParent[id]
	if !ok {
		fmt.Fprintf(b, "%s%s■──%s ── Topic: %d\n", indent, branch, m.Label(id), id)
		return
	}
	fmt.Fprintf(b, "%s%s%s\n", indent, branch, mg.ParentName)
	for i, c := range mg.Children {
		m.writeNode(b, byParent, c, next, i == len(mg.Children)-1)
	}
}
