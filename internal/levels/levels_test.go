// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

var twoMerges = []types.Merge{
	{Parent: 10, Children: []int{0, 1}, Topics: []int{0, 1}, Distance: 0.1},
	{Parent: 11, Children: []int{10, 2}, Topics: []int{0, 1, 2}, Distance: 0.3},
}

func TestMapAt_WorkedExample(t *testing.T) {
	tests := []struct {
		cutoff float64
		want   Mapping
	}{
		{0.2, Mapping{0: 10, 1: 10, 2: 2, 10: 10, 11: 11}},
		{0.35, Mapping{0: 11, 1: 11, 2: 11, 10: 11, 11: 11}},
		{0.05, Mapping{0: 0, 1: 1, 2: 2, 10: 10, 11: 11}},
	}
	for _, tt := range tests {
		got := MapAt(twoMerges, []int{0, 1, 2}, tt.cutoff)
		assert.Equal(t, tt.want, got, "cutoff %v", tt.cutoff)
	}
}

func TestMapAt_DirectChildrenOnly(t *testing.T) {
	merges := []types.Merge{
		{Parent: 10, Children: []int{0, 1}, Distance: 0.1},
		{Parent: 11, Children: []int{10, 2}, Distance: 0.3},
	}
	got := MapAt(merges, []int{0, 1, 2}, 0.35)
	assert.Equal(t, Mapping{0: 11, 1: 11, 2: 11, 10: 11, 11: 11}, got)
}

func TestMapAt_OrderIndependent(t *testing.T) {
	reversed := []types.Merge{twoMerges[1], twoMerges[0]}
	assert.Equal(t, MapAt(twoMerges, []int{0, 1, 2}, 1), MapAt(reversed, []int{0, 1, 2}, 1))
}

func TestMapAt_UnmergedTopicMapsToItself(t *testing.T) {
	got := MapAt(twoMerges, []int{0, 1, 2, 7, -1}, 1)
	assert.Equal(t, 7, got[7])
	assert.Equal(t, -1, got[-1])
}

// fiveTopicTree is the dendrogram of topics 0..4 with parents 5..8.
var fiveTopicTree = []types.Merge{
	{Parent: 5, Children: []int{0, 1}, Topics: []int{0, 1}, Distance: 0.10},
	{Parent: 6, Children: []int{2, 3}, Topics: []int{2, 3}, Distance: 0.20},
	{Parent: 7, Children: []int{5, 4}, Topics: []int{0, 1, 4}, Distance: 0.35},
	{Parent: 8, Children: []int{7, 6}, Topics: []int{0, 1, 2, 3, 4}, Distance: 0.60},
}

func TestAssign_Properties(t *testing.T) {
	topics := []int{0, 1, 2, 3, 4}
	for _, scale := range []types.LevelScale{types.LevelScaleLinear, types.LevelScaleLogarithmic} {
		levels, err := Assign(fiveTopicTree, topics, scale, 3)
		require.NoError(t, err, scale)
		require.Len(t, levels, 3)

		prev := -1
		for i, l := range levels {
			// Totality and idempotence.
			for _, tp := range topics {
				r, ok := l.Mapping[tp]
				require.True(t, ok, "level %d missing topic %d", i+1, tp)
				assert.Equal(t, r, l.Mapping.Apply(r), "level %d not idempotent at %d", i+1, tp)
			}
			// Coarsest first: the count of representatives never shrinks
			// as levels get finer.
			n := len(l.Mapping.Representatives(topics))
			if prev >= 0 {
				assert.GreaterOrEqual(t, n, prev, "%s level %d", scale, i+1)
			}
			prev = n
		}
	}
}

func TestCutoffs_Linear(t *testing.T) {
	d := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}

	// array_split(range(7), 3) -> [0 1 2] [3 4] [5 6]; last indices 2, 4, 6.
	got, err := Cutoffs(d, types.LevelScaleLinear, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.7, 0.5, 0.3}, got)

	got, err = Cutoffs(d, "lin", 7)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}, got)
}

func TestCutoffs_Logarithmic(t *testing.T) {
	d := make([]float64, 101)
	for i := range d {
		d[i] = float64(i)
	}
	// logspace(0, 2, 5) = 1, 3.16, 10, 31.6, 100.
	got, err := Cutoffs(d, "log", 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 32, 10, 3, 1}, got)

	got, err = Cutoffs(d, types.LevelScaleLogarithmic, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, got)
}

func TestCutoffs_Errors(t *testing.T) {
	d := []float64{0.1, 0.2}

	_, err := Cutoffs(d, "quadratic", 2)
	assert.ErrorIs(t, err, ErrInvalidLevelScale)

	_, err = Cutoffs(d, types.LevelScaleLinear, 3)
	assert.ErrorIs(t, err, ErrTooFewMerges)

	_, err = Cutoffs(d[:1], types.LevelScaleLogarithmic, 2)
	assert.ErrorIs(t, err, ErrTooFewMerges)

	_, err = Cutoffs(d, types.LevelScaleLinear, 0)
	assert.Error(t, err)

	_, err = Assign(twoMerges, []int{0}, "bogus", 2)
	assert.ErrorIs(t, err, ErrInvalidLevelScale)
}

func TestParseScale(t *testing.T) {
	tests := []struct {
		in      string
		want    types.LevelScale
		wantErr bool
	}{
		{"linear", types.LevelScaleLinear, false},
		{"lin", types.LevelScaleLinear, false},
		{"LOG", types.LevelScaleLogarithmic, false},
		{"logarithmic", types.LevelScaleLogarithmic, false},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseScale(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidLevelScale)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSample(t *testing.T) {
	topics := []int{2, 0, 2, 1, 2, 0, 2}

	all := Sample(topics, 0, 42)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6}, all)
	// Topics are visited in ascending order.
	assert.ElementsMatch(t, []int{1, 5}, all[:2])
	assert.Equal(t, 3, all[2])

	capped := Sample(topics, 2, 42)
	assert.Len(t, capped, 5)
	for _, doc := range capped[3:] {
		assert.Equal(t, 2, topics[doc])
	}

	assert.Equal(t, capped, Sample(topics, 2, 42), "same seed, same sample")
}

func TestTable(t *testing.T) {
	texts := []string{"a", "b", "c"}
	topics := []int{0, 1, 2}
	points := []types.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}
	lv, err := Assign(twoMerges, topics, types.LevelScaleLinear, 2)
	require.NoError(t, err)

	rows, err := Table([]int{2, 0}, texts, topics, points, lv)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{Doc: 2, Text: "c", Topic: 2, X: 5, Y: 6, Levels: []int{11, 2}}, rows[0])
	assert.Equal(t, Row{Doc: 0, Text: "a", Topic: 0, X: 1, Y: 2, Levels: []int{11, 10}}, rows[1])

	_, err = Table([]int{0}, texts, topics, points[:1], lv)
	assert.Error(t, err)
	_, err = Table([]int{5}, texts, topics, nil, lv)
	assert.Error(t, err)
}
