// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trend ranks topics by their yearly prevalence and fits linear
// trends to it.
package trend

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

// Labeler returns the display label of a topic.
type Labeler interface {
	Label(topic int) string
}

// DefaultTopicsPerYear is the number of top topics taken from each year.
const DefaultTopicsPerYear = 3

// TopTopics takes the perYear most probable topics of every year, outlier
// removed when filterOutlier is set, and returns every row of those topics
// with Name set to the topic label. Row order is preserved.
func TopTopics(rows []types.TopicYear, labels Labeler, perYear int, filterOutlier bool) []types.TopicYear {
	if perYear <= 0 {
		perYear = DefaultTopicsPerYear
	}

	byYear := make(map[int][]types.TopicYear)
	var years []int
	for _, r := range rows {
		if filterOutlier && r.Topic == types.OutlierTopic {
			continue
		}
		y := r.Year()
		if _, ok := byYear[y]; !ok {
			years = append(years, y)
		}
		byYear[y] = append(byYear[y], r)
	}

	selected := make(map[int]bool)
	for _, y := range years {
		yr := byYear[y]
		sort.SliceStable(yr, func(i, j int) bool { return yr[i].Probability > yr[j].Probability })
		for i := 0; i < perYear && i < len(yr); i++ {
			selected[yr[i].Topic] = true
		}
	}

	var out []types.TopicYear
	for _, r := range rows {
		if selected[r.Topic] {
			r.Name = labels.Label(r.Topic)
			out = append(out, r)
		}
	}
	return out
}

// Topics returns the distinct topics of rows in order of first appearance.
func Topics(rows []types.TopicYear) []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range rows {
		if !seen[r.Topic] {
			seen[r.Topic] = true
			out = append(out, r.Topic)
		}
	}
	return out
}

// Slopes fits probability against year by ordinary least squares for each
// topic in rows and returns the slopes in ascending order. A topic seen in
// a single year has slope 0.
func Slopes(rows []types.TopicYear, labels Labeler) []types.Slope {
	xs := make(map[int][]float64)
	ys := make(map[int][]float64)
	for _, r := range rows {
		xs[r.Topic] = append(xs[r.Topic], float64(r.Year()))
		ys[r.Topic] = append(ys[r.Topic], r.Probability)
	}

	var out []types.Slope
	for _, t := range Topics(rows) {
		s := 0.0
		if distinct(xs[t]) > 1 {
			_, s = stat.LinearRegression(xs[t], ys[t], nil, false)
		}
		out = append(out, types.Slope{Topic: t, Slope: s, TopicName: labels.Label(t)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slope < out[j].Slope })
	return out
}

func distinct(v []float64) int {
	seen := make(map[float64]bool, len(v))
	for _, x := range v {
		seen[x] = true
	}
	return len(seen)
}

// SlopesFileName derives the slope table name from the model name by
// replacing its representation suffix.
func SlopesFileName(modelName, llm string) string {
	return strings.Replace(modelName, "_"+llm, "_slopes.csv", 1)
}

// FormatTable writes slopes as a human-readable table to w.
func FormatTable(slopes []types.Slope, w io.Writer) {
	if len(slopes) == 0 {
		fmt.Fprintln(w, "No topics.")
		return
	}

	fmt.Fprintf(w, "%-6s  %-10s  %s\n", "Topic", "Slope", "Name")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, s := range slopes {
		fmt.Fprintf(w, "%-6d  %+10.5f  %s\n", s.Topic, s.Slope, s.TopicName)
	}
}

// FormatTopYears writes the perYear most probable topics of each year to w.
func FormatTopYears(rows []types.TopicYear, perYear int, w io.Writer) {
	byYear := make(map[int][]types.TopicYear)
	var years []int
	for _, r := range rows {
		if _, ok := byYear[r.Year()]; !ok {
			years = append(years, r.Year())
		}
		byYear[r.Year()] = append(byYear[r.Year()], r)
	}
	sort.Ints(years)

	fmt.Fprintf(w, "%-4s  %-6s  %-11s  %s\n", "Year", "Topic", "Probability", "Words")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, y := range years {
		yr := byYear[y]
		sort.SliceStable(yr, func(i, j int) bool { return yr[i].Probability > yr[j].Probability })
		for i := 0; i < perYear && i < len(yr); i++ {
			fmt.Fprintf(w, "%-4d  %-6d  %-11.4f  %s\n", y, yr[i].Topic, yr[i].Probability, strings.Join(yr[i].Words, ", "))
		}
	}
}
