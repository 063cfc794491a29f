// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package levels collapses fine-grained topics into coarser clusters by
// cutting the topic dendrogram at several merge distances.
//
// The merge records must form a tree: every id is merged into at most one
// parent, and parent ids share the id space of topic ids.
package levels

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

var (
	// ErrInvalidLevelScale is returned for a spacing policy other than
	// linear or logarithmic.
	ErrInvalidLevelScale = errors.New("level scale must be one of 'log' or 'linear'")

	// ErrTooFewMerges is returned when the merge sequence is too short to
	// place the requested number of cut points.
	ErrTooFewMerges = errors.New("too few merges for the requested levels")
)

// DefaultLevels is the number of levels produced when none is configured.
const DefaultLevels = 5

// ParseScale normalizes a spacing policy name. "lin" and "log" are accepted
// as short forms.
func ParseScale(s string) (types.LevelScale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lin", string(types.LevelScaleLinear):
		return types.LevelScaleLinear, nil
	case "log", string(types.LevelScaleLogarithmic):
		return types.LevelScaleLogarithmic, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidLevelScale, s)
	}
}

// Distances returns the merge distances in clustering order.
func Distances(merges []types.Merge) []float64 {
	out := make([]float64, len(merges))
	for i, m := range merges {
		out[i] = m.Distance
	}
	return out
}

// Cutoffs returns k cut distances ordered from coarsest to finest.
//
// Linear spacing splits the merge indices into k contiguous chunks, the
// first n%k of them one longer, and takes the last index of each chunk.
// Logarithmic spacing takes k indices rounded from a geometric progression
// between 1 and n-1. In both cases the index list is reversed before it is
// mapped to distances.
func Cutoffs(distances []float64, scale types.LevelScale, k int) ([]float64, error) {
	scale, err := ParseScale(string(scale))
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("number of levels must be positive, got %d", k)
	}

	n := len(distances)
	var idx []int
	switch scale {
	case types.LevelScaleLinear:
		if n < k {
			return nil, fmt.Errorf("%w: %d merges, %d levels", ErrTooFewMerges, n, k)
		}
		idx = linearIndices(n, k)
	case types.LevelScaleLogarithmic:
		if n < 2 {
			return nil, fmt.Errorf("%w: %d merges, logarithmic spacing needs 2", ErrTooFewMerges, n)
		}
		idx = logIndices(n, k)
	}

	out := make([]float64, k)
	for i, j := range idx {
		out[k-1-i] = distances[j]
	}
	return out, nil
}

func linearIndices(n, k int) []int {
	q, r := n/k, n%k
	idx := make([]int, k)
	end := 0
	for i := 0; i < k; i++ {
		size := q
		if i < r {
			size++
		}
		end += size
		idx[i] = end - 1
	}
	return idx
}

func logIndices(n, k int) []int {
	stop := math.Log10(float64(n - 1))
	idx := make([]int, k)
	for i := 0; i < k; i++ {
		exp := 0.0
		if k > 1 {
			exp = stop * float64(i) / float64(k-1)
		}
		j := int(math.RoundToEven(math.Pow(10, exp)))
		if j > n-1 {
			j = n - 1
		}
		idx[i] = j
	}
	return idx
}

// Mapping resolves a topic id to the representative id of its cluster at
// one cut distance. Every value is itself a key that maps to itself.
type Mapping map[int]int

// Apply returns the representative of id, or id itself when id is unknown.
func (m Mapping) Apply(id int) int {
	if r, ok := m[id]; ok {
		return r
	}
	return id
}

// Representatives returns the sorted distinct representatives of ids.
func (m Mapping) Representatives(ids []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, id := range ids {
		r := m.Apply(id)
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Ints(out)
	return out
}

// MapAt cuts the dendrogram at cutoff. The result covers every id in topics
// and every id named by a merge record. Merges with distance <= cutoff are
// applied in ascending parent order: each child, and each leaf topic listed
// under the merge, joins the parent's cluster.
func MapAt(merges []types.Merge, topics []int, cutoff float64) Mapping {
	uf := newUnionFind()
	for _, t := range topics {
		uf.add(t)
	}
	for _, m := range merges {
		uf.add(m.Parent)
		for _, c := range m.Children {
			uf.add(c)
		}
		for _, t := range m.Topics {
			uf.add(t)
		}
	}

	var selected []types.Merge
	for _, m := range merges {
		if m.Distance <= cutoff {
			selected = append(selected, m)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Parent < selected[j].Parent })

	for _, m := range selected {
		for _, c := range m.Children {
			uf.link(c, m.Parent)
		}
		for _, t := range m.Topics {
			uf.link(t, m.Parent)
		}
	}

	out := make(Mapping, len(uf.parent))
	for id := range uf.parent {
		out[id] = uf.find(id)
	}
	return out
}

// Level is the mapping produced at one cut distance.
type Level struct {
	Cutoff  float64
	Mapping Mapping
}

// Assign computes k levels, coarsest first.
func Assign(merges []types.Merge, topics []int, scale types.LevelScale, k int) ([]Level, error) {
	cutoffs, err := Cutoffs(Distances(merges), scale, k)
	if err != nil {
		return nil, err
	}
	out := make([]Level, len(cutoffs))
	for i, c := range cutoffs {
		out[i] = Level{Cutoff: c, Mapping: MapAt(merges, topics, c)}
	}
	return out, nil
}

// unionFind is a disjoint-set forest over topic ids. The root of a set is
// the representative written to the mapping.
type unionFind struct {
	parent map[int]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[int]int)}
}

func (u *unionFind) add(id int) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
	}
}

func (u *unionFind) find(id int) int {
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for id != root {
		next := u.parent[id]
		u.parent[id] = root
		id = next
	}
	return root
}

// link places the set holding child under the set holding parent. The
// parent's root stays the representative.
func (u *unionFind) link(child, parent int) {
	rc, rp := u.find(child), u.find(parent)
	if rc != rp {
		u.parent[rc] = rp
	}
}
