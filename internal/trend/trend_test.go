// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trend

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

type labels map[int]string

func (l labels) Label(topic int) string {
	if s, ok := l[topic]; ok {
		return s
	}
	return strconv.Itoa(topic)
}

func row(topic, year int, p float64) types.TopicYear {
	return types.TopicYear{Topic: topic, Timestamp: types.YearStart(year), Probability: p}
}

var sampleRows = []types.TopicYear{
	row(-1, 2002, 0.40), row(0, 2002, 0.30), row(1, 2002, 0.20), row(2, 2002, 0.06), row(3, 2002, 0.04),
	row(-1, 2003, 0.35), row(0, 2003, 0.25), row(1, 2003, 0.10), row(2, 2003, 0.05), row(3, 2003, 0.25),
}

func TestTopTopics(t *testing.T) {
	names := labels{0: "memory", 1: "reward", 3: "connectivity"}

	got := TopTopics(sampleRows, names, 2, true)
	assert.Equal(t, []int{0, 1, 3}, Topics(got))
	require.Len(t, got, 6)
	for _, r := range got {
		assert.Equal(t, names[r.Topic], r.Name)
	}
	assert.Equal(t, 2002, got[0].Year(), "input order is kept")
}

func TestTopTopics_KeepOutlier(t *testing.T) {
	got := TopTopics(sampleRows, labels{}, 1, false)
	assert.Equal(t, []int{-1}, Topics(got))
	assert.Equal(t, "-1", got[0].Name)
}

func TestTopTopics_DefaultPerYear(t *testing.T) {
	got := TopTopics(sampleRows, labels{}, 0, true)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, Topics(got))
}

func TestSlopes(t *testing.T) {
	rows := []types.TopicYear{
		row(0, 2001, 0.10), row(0, 2002, 0.20), row(0, 2003, 0.30),
		row(1, 2001, 0.30), row(1, 2002, 0.25), row(1, 2003, 0.20),
		row(2, 2003, 0.50),
	}
	got := Slopes(rows, labels{0: "rising", 1: "falling"})
	require.Len(t, got, 3)

	assert.Equal(t, 1, got[0].Topic)
	assert.InDelta(t, -0.05, got[0].Slope, 1e-9)
	assert.Equal(t, "falling", got[0].TopicName)

	assert.Equal(t, 2, got[1].Topic)
	assert.Equal(t, 0.0, got[1].Slope, "single year has no trend")

	assert.Equal(t, 0, got[2].Topic)
	assert.InDelta(t, 0.10, got[2].Slope, 1e-9)
}

func TestSlopesFileName(t *testing.T) {
	assert.Equal(t,
		"model-bertopic_minclust-250_nneighbors-50_slopes.csv",
		SlopesFileName("model-bertopic_minclust-250_nneighbors-50_gpt4", "gpt4"))
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable([]types.Slope{{Topic: 4, Slope: -0.0012, TopicName: "resting state"}}, &buf)
	out := buf.String()
	assert.Contains(t, out, "Topic")
	assert.Contains(t, out, "-0.00120")
	assert.Contains(t, out, "resting state")

	buf.Reset()
	FormatTable(nil, &buf)
	assert.Equal(t, "No topics.\n", buf.String())
}

func TestFormatTopYears(t *testing.T) {
	var buf bytes.Buffer
	rows := []types.TopicYear{
		{Topic: 1, Timestamp: types.YearStart(2003), Probability: 0.2, Words: []string{"reward", "striatum"}},
		{Topic: 0, Timestamp: types.YearStart(2002), Probability: 0.6, Words: []string{"memory"}},
		{Topic: 2, Timestamp: types.YearStart(2003), Probability: 0.8, Words: []string{"motion"}},
	}
	FormatTopYears(rows, 1, &buf)
	out := buf.String()
	assert.Contains(t, out, "2002  0       0.6000       memory")
	assert.Contains(t, out, "2003  2       0.8000       motion")
	assert.NotContains(t, out, "striatum")
}
