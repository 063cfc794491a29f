// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topicmodel

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

// ErrTooFewTopics is returned when fewer than two topics can be clustered.
var ErrTooFewTopics = errors.New("at least two topics are needed to build a hierarchy")

// HierarchicalTopics clusters the topics, outlier excluded, by the cosine
// distance between their term weights, joining at each step the two
// clusters with the smallest average pairwise distance. Merge i creates
// parent id base+i where base is one past the largest topic id, so parents
// never collide with topics. Merges are returned in clustering order, which
// is also non-decreasing distance order.
func (m *Model) HierarchicalTopics(corpus types.Corpus) ([]types.Merge, error) {
	ct, class, err := m.global(corpus.Sentences())
	if err != nil {
		return nil, err
	}

	var leaves []int
	for t := range class {
		if t != types.OutlierTopic {
			leaves = append(leaves, t)
		}
	}
	sort.Ints(leaves)
	if len(leaves) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewTopics, len(leaves))
	}

	_, terms := ct.counts.Dims()
	counts := mat.NewDense(len(leaves), terms, nil)
	for i, t := range leaves {
		counts.SetRow(i, ct.counts.RawRowView(class[t]))
	}
	dist := cosineDistances(ct.weigh(counts))

	steps := averageLinkage(dist)
	base := leaves[len(leaves)-1] + 1
	if base < len(leaves) {
		base = len(leaves)
	}

	// id of each cluster in linkage numbering: leaves first, then merges.
	ids := make([]int, len(leaves), len(leaves)+len(steps))
	copy(ids, leaves)
	members := make([][]int, len(leaves), len(leaves)+len(steps))
	for i, t := range leaves {
		members[i] = []int{t}
	}

	merges := make([]types.Merge, len(steps))
	for i, s := range steps {
		parent := base + i
		topics := append(append([]int{}, members[s.a]...), members[s.b]...)
		sort.Ints(topics)
		children := []int{ids[s.a], ids[s.b]}
		sort.Ints(children)

		merges[i] = types.Merge{
			Parent:     parent,
			ParentName: m.mergedName(ct, class, topics),
			Children:   children,
			Topics:     topics,
			Distance:   s.distance,
		}
		ids = append(ids, parent)
		members = append(members, topics)
	}
	return merges, nil
}

// mergedName joins the top words of the combined term counts of topics.
func (m *Model) mergedName(ct *classTFIDF, class map[int]int, topics []int) string {
	_, terms := ct.counts.Dims()
	sum := mat.NewVecDense(terms, nil)
	for _, t := range topics {
		sum.AddVec(sum, ct.counts.RowView(class[t]))
	}
	row := mat.NewDense(1, terms, sum.RawVector().Data)
	return strings.Join(ct.topWords(ct.weigh(row).RawRowView(0), wordsPerRow), "_")
}

// linkStep joins clusters a and b, numbered as in the linkage: 0..n-1 are
// the leaves and n+i is the cluster made by step i.
type linkStep struct {
	a, b     int
	distance float64
}

// averageLinkage agglomerates n points given their pairwise distances.
// Ties go to the pair with the lowest cluster numbers.
func averageLinkage(dist mat.Symmetric) []linkStep {
	n := dist.SymmetricDim()
	active := make([]int, n) // linkage number of each live cluster
	size := make([]int, n)
	d := make([][]float64, n)
	for i := 0; i < n; i++ {
		active[i] = i
		size[i] = 1
		d[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			d[i][j] = dist.At(i, j)
		}
	}

	steps := make([]linkStep, 0, n-1)
	live := make([]bool, n)
	for i := range live {
		live[i] = true
	}
	for step := 0; step < n-1; step++ {
		bi, bj := -1, -1
		for i := 0; i < n; i++ {
			if !live[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !live[j] {
					continue
				}
				if bi < 0 || d[i][j] < d[bi][bj] ||
					(d[i][j] == d[bi][bj] && pairLess(active[i], active[j], active[bi], active[bj])) {
					bi, bj = i, j
				}
			}
		}

		a, b := active[bi], active[bj]
		if a > b {
			a, b = b, a
		}
		steps = append(steps, linkStep{a: a, b: b, distance: d[bi][bj]})

		// The merged cluster takes slot bi; slot bj retires.
		for k := 0; k < n; k++ {
			if !live[k] || k == bi || k == bj {
				continue
			}
			v := (float64(size[bi])*d[bi][k] + float64(size[bj])*d[bj][k]) / float64(size[bi]+size[bj])
			d[bi][k], d[k][bi] = v, v
		}
		size[bi] += size[bj]
		live[bj] = false
		active[bi] = n + step
	}
	return steps
}

// pairLess orders the unordered pairs {a, b} and {c, e} by their smaller
// member, then their larger one.
func pairLess(a, b, c, e int) bool {
	if a > b {
		a, b = b, a
	}
	if c > e {
		c, e = e, c
	}
	if a != c {
		return a < c
	}
	return b < e
}
