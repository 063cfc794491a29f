// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the analysis outputs: CSV tables, the summary
// workbook, interactive HTML charts and the annotated time-series image.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/fmri-topics/internal/levels"
	"github.com/pdiddy/fmri-topics/internal/topicmodel"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

// Labeler returns the display label of a topic.
type Labeler interface {
	Label(topic int) string
}

// Table is a header and its rows, ready for CSV or a workbook sheet.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// MergeLabels labels the parents of merges with their merged name and
// defers every other id to labels.
func MergeLabels(merges []types.Merge, labels Labeler) Labeler {
	names := make(map[int]string, len(merges))
	for _, m := range merges {
		names[m.Parent] = m.ParentName
	}
	return mergeLabels{names: names, next: labels}
}

type mergeLabels struct {
	names map[int]string
	next  Labeler
}

func (l mergeLabels) Label(topic int) string {
	if name, ok := l.names[topic]; ok {
		return name
	}
	if l.next == nil {
		return strconv.Itoa(topic)
	}
	return l.next.Label(topic)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// PointsTable holds the 2D projection with columns C1 and C2.
func PointsTable(points []types.Point) Table {
	t := Table{Name: "embedding_2d", Header: []string{"C1", "C2"}}
	for _, p := range points {
		t.Rows = append(t.Rows, []string{ftoa(p.X), ftoa(p.Y)})
	}
	return t
}

// LevelsTable holds one row per sampled document with its level columns.
func LevelsTable(rows []levels.Row, nLevels int) Table {
	t := Table{Name: "levels", Header: []string{"doc_index", "doc", "topic", "x", "y"}}
	for k := 1; k <= nLevels; k++ {
		t.Header = append(t.Header, fmt.Sprintf("level_%d", k))
	}
	for _, r := range rows {
		rec := []string{strconv.Itoa(r.Doc), r.Text, strconv.Itoa(r.Topic), ftoa(r.X), ftoa(r.Y)}
		for _, l := range r.Levels {
			rec = append(rec, strconv.Itoa(l))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// RepDocsTable holds the representative documents of each topic.
func RepDocsTable(docs []topicmodel.RepDoc, labels Labeler) Table {
	t := Table{Name: "rep_docs", Header: []string{"topic", "label", "document"}}
	for _, d := range docs {
		t.Rows = append(t.Rows, []string{strconv.Itoa(d.Topic), labels.Label(d.Topic), d.Text})
	}
	return t
}

// SlopesTable holds the trend slopes with columns topic, slope, topicname.
func SlopesTable(slopes []types.Slope) Table {
	t := Table{Name: "slopes", Header: []string{"topic", "slope", "topicname"}}
	for _, s := range slopes {
		t.Rows = append(t.Rows, []string{strconv.Itoa(s.Topic), ftoa(s.Slope), s.TopicName})
	}
	return t
}

// TopicYearTable holds topic-year rows.
func TopicYearTable(name string, rows []types.TopicYear) Table {
	t := Table{Name: name, Header: []string{"Topic", "Words", "Frequency", "Timestamp", "Sum", "Probability", "Name"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Topic),
			strings.Join(r.Words, ", "),
			strconv.Itoa(r.Frequency),
			r.Timestamp.Format("2006-01-02"),
			strconv.Itoa(r.Sum),
			ftoa(r.Probability),
			r.Name,
		})
	}
	return t
}

// MergesTable holds the hierarchical merge records.
func MergesTable(merges []types.Merge) Table {
	t := Table{Name: "hierarchy", Header: []string{"Parent_ID", "Parent_Name", "Child_Left_ID", "Child_Right_ID", "Topics", "Distance"}}
	for _, m := range merges {
		left, right := "", ""
		if len(m.Children) > 0 {
			left = strconv.Itoa(m.Children[0])
		}
		if len(m.Children) > 1 {
			right = strconv.Itoa(m.Children[1])
		}
		topics := make([]string, len(m.Topics))
		for i, tp := range m.Topics {
			topics[i] = strconv.Itoa(tp)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(m.Parent), m.ParentName, left, right, strings.Join(topics, " "), ftoa(m.Distance),
		})
	}
	return t
}

// WriteCSV writes t to path, creating parent directories.
func WriteCSV(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
