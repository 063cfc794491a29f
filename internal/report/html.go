// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pdiddy/fmri-topics/internal/levels"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

const (
	chartWidth  = "1000px"
	chartHeight = "600px"
)

// TopicsOverTimeChart plots the yearly frequency of each topic in topics,
// one line per topic. Years with no row for a topic plot as 0.
func TopicsOverTimeChart(rows []types.TopicYear, topics []int, labels Labeler) *charts.Line {
	var years []int
	seen := make(map[int]bool)
	freq := make(map[[2]int]int)
	for _, r := range rows {
		if !seen[r.Year()] {
			seen[r.Year()] = true
			years = append(years, r.Year())
		}
		freq[[2]int{r.Topic, r.Year()}] = r.Frequency
	}
	sort.Ints(years)

	x := make([]string, len(years))
	for i, y := range years {
		x[i] = strconv.Itoa(y)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Topics over time", Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Topics over Time"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency"}),
	)
	line.SetXAxis(x)
	for _, t := range topics {
		data := make([]opts.LineData, len(years))
		for i, y := range years {
			data[i] = opts.LineData{Value: freq[[2]int{t, y}]}
		}
		line.AddSeries(fmt.Sprintf("%d_%s", t, labels.Label(t)), data)
	}
	return line
}

// DocumentsCharts draws the projected documents once per level, coloured
// by the representative each document belongs to at that level.
func DocumentsCharts(rows []levels.Row, nLevels int, labels Labeler) []*charts.Scatter {
	out := make([]*charts.Scatter, 0, nLevels)
	for k := 0; k < nLevels; k++ {
		groups := make(map[int][]opts.ScatterData)
		for _, r := range rows {
			if k >= len(r.Levels) {
				continue
			}
			rep := r.Levels[k]
			groups[rep] = append(groups[rep], opts.ScatterData{
				Name:  fmt.Sprintf("doc %d (topic %d)", r.Doc, r.Topic),
				Value: []interface{}{r.X, r.Y},
			})
		}
		reps := make([]int, 0, len(groups))
		for rep := range groups {
			reps = append(reps, rep)
		}
		sort.Ints(reps)

		sc := charts.NewScatter()
		sc.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
			charts.WithTitleOpts(opts.Title{
				Title:    fmt.Sprintf("Level %d", k+1),
				Subtitle: fmt.Sprintf("%d clusters", len(reps)),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: true}),
			charts.WithLegendOpts(opts.Legend{Show: true, Top: "bottom"}),
			charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "C1"}),
			charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "C2"}),
		)
		for _, rep := range reps {
			sc.AddSeries(fmt.Sprintf("%d_%s", rep, labels.Label(rep)), groups[rep])
		}
		out = append(out, sc)
	}
	return out
}

// HierarchyChart draws the merge tree rooted at the last merge.
func HierarchyChart(merges []types.Merge, labels Labeler) *charts.Tree {
	byParent := make(map[int]types.Merge, len(merges))
	for _, m := range merges {
		byParent[m.Parent] = m
	}

	var build func(id int) *opts.TreeData
	build = func(id int) *opts.TreeData {
		m, ok := byParent[id]
		if !ok {
			return &opts.TreeData{Name: fmt.Sprintf("%d_%s", id, labels.Label(id))}
		}
		node := &opts.TreeData{Name: m.ParentName}
		for _, c := range m.Children {
			node.Children = append(node.Children, build(c))
		}
		return node
	}

	tree := charts.NewTree()
	tree.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Hierarchical topics", Width: chartWidth, Height: "1200px"}),
		charts.WithTitleOpts(opts.Title{Title: "Hierarchical Clustering"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
	)
	var data []opts.TreeData
	if len(merges) > 0 {
		data = append(data, *build(merges[len(merges)-1].Parent))
	}
	tree.AddSeries("hierarchy", data,
		charts.WithTreeOpts(opts.TreeChart{Layout: "orthogonal", Orient: "LR", InitialTreeDepth: -1}),
	)
	return tree
}

// Renderer is a chart or page that can write itself as HTML.
type Renderer interface {
	Render(w io.Writer) error
}

// WriteHTML renders r to path.
func WriteHTML(path string, r Renderer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return f.Close()
}

// DocumentsPage places one document chart per level on a single page.
func DocumentsPage(rows []levels.Row, nLevels int, labels Labeler) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Hierarchical documents and topics"
	for _, sc := range DocumentsCharts(rows, nLevels, labels) {
		page.AddCharts(sc)
	}
	return page
}
