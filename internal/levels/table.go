// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package levels

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

// Row is one sampled document with its position and level assignments.
// Levels[i] is the representative at level i+1.
type Row struct {
	Doc    int
	Text   string
	Topic  int
	X, Y   float64
	Levels []int
}

// Sample draws up to perTopic document indices from each topic, visiting
// topics in ascending order. perTopic <= 0 keeps every document. The order
// within a topic is a random permutation drawn from seed.
func Sample(topics []int, perTopic int, seed int64) []int {
	byTopic := make(map[int][]int)
	for i, t := range topics {
		byTopic[t] = append(byTopic[t], i)
	}
	ids := make([]int, 0, len(byTopic))
	for t := range byTopic {
		ids = append(ids, t)
	}
	sort.Ints(ids)

	rng := rand.New(rand.NewSource(seed))
	out := make([]int, 0, len(topics))
	for _, t := range ids {
		docs := byTopic[t]
		size := len(docs)
		if perTopic > 0 && size > perTopic {
			size = perTopic
		}
		for _, j := range rng.Perm(len(docs))[:size] {
			out = append(out, docs[j])
		}
	}
	return out
}

// Table builds the per-document level table for the documents at indices.
// texts, topics and points are indexed by document; points may be nil when
// no projection is available.
func Table(indices []int, texts []string, topics []int, points []types.Point, levels []Level) ([]Row, error) {
	if len(texts) != len(topics) {
		return nil, fmt.Errorf("%d documents but %d topic assignments", len(texts), len(topics))
	}
	if points != nil && len(points) != len(topics) {
		return nil, fmt.Errorf("%d documents but %d projected points", len(topics), len(points))
	}

	rows := make([]Row, len(indices))
	for i, doc := range indices {
		if doc < 0 || doc >= len(topics) {
			return nil, fmt.Errorf("document index %d out of range", doc)
		}
		r := Row{Doc: doc, Text: texts[doc], Topic: topics[doc], Levels: make([]int, len(levels))}
		if points != nil {
			r.X, r.Y = points[doc].X, points[doc].Y
		}
		for k, l := range levels {
			r.Levels[k] = l.Mapping.Apply(r.Topic)
		}
		rows[i] = r
	}
	return rows, nil
}
