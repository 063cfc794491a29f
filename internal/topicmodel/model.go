// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topicmodel reads an exported topic model and derives the summaries
// the analysis needs from it: topic frequencies over time, the hierarchy of
// topic merges, and topic labels.
//
// An exported model is a directory holding topic_info.yaml (one entry per
// topic) and topics.csv (the topic of each corpus document, in corpus
// order). The model is read-only.
package topicmodel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

// ErrModelNotFound is returned when the model directory does not exist.
var ErrModelNotFound = errors.New("model not found")

const (
	topicInfoFile   = "topic_info.yaml"
	assignmentsFile = "topics.csv"
)

// RepDoc is a representative document of a topic.
type RepDoc struct {
	Topic int
	Text  string
}

// Model is an exported topic model.
type Model struct {
	Name string
	Path string

	// Topics is sorted by id.
	Topics []types.TopicInfo

	// Assignments holds the topic of each corpus document.
	Assignments []int

	// RepDocs is empty when the model was exported without them.
	RepDocs []RepDoc

	info map[int]types.TopicInfo
}

// Load reads the model called name from modelDir. rep_docs are read from
// repDocsPath when that file exists.
func Load(modelDir, name, repDocsPath string) (*Model, error) {
	path := filepath.Join(modelDir, name)
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}

	topics, err := readTopicInfo(filepath.Join(path, topicInfoFile))
	if err != nil {
		return nil, err
	}
	assignments, err := readAssignments(filepath.Join(path, assignmentsFile))
	if err != nil {
		return nil, err
	}

	m := New(name, topics, assignments)
	m.Path = path

	if repDocsPath != "" {
		if _, err := os.Stat(repDocsPath); err == nil {
			if m.RepDocs, err = readRepDocs(repDocsPath); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// New builds a model from topic descriptions and per-document assignments.
func New(name string, topics []types.TopicInfo, assignments []int) *Model {
	sorted := make([]types.TopicInfo, len(topics))
	copy(sorted, topics)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	info := make(map[int]types.TopicInfo, len(sorted))
	for _, t := range sorted {
		info[t.ID] = t
	}
	return &Model{Name: name, Topics: sorted, Assignments: assignments, info: info}
}

// RepDocsPath returns where the representative documents of the model
// called name are stored: the model name with its representation suffix
// replaced by "_rep_docs.csv".
func RepDocsPath(modelDir, name, llm string) string {
	return filepath.Join(modelDir, strings.Replace(name, "_"+llm, "_rep_docs.csv", 1))
}

// Info returns the description of topic id.
func (m *Model) Info(id int) (types.TopicInfo, bool) {
	t, ok := m.info[id]
	return t, ok
}

// Label returns the display label of topic id: the first entry of its
// representation, falling back to its name and then its number.
func (m *Model) Label(id int) string {
	if t, ok := m.info[id]; ok {
		if l := t.Label(); l != "" {
			return l
		}
	}
	return strconv.Itoa(id)
}

// Frequent returns up to n topic ids ordered by document count, outlier
// excluded. Ties go to the lower id.
func (m *Model) Frequent(n int) []int {
	counts := m.counts()
	var ids []int
	for id := range counts {
		if id != types.OutlierTopic {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// counts uses the exported topic counts, or the assignments when the export
// has none.
func (m *Model) counts() map[int]int {
	out := make(map[int]int, len(m.Topics))
	for _, t := range m.Topics {
		out[t.ID] = t.Count
	}
	if len(out) == 0 || allZero(out) {
		for k := range out {
			delete(out, k)
		}
		for _, t := range m.Assignments {
			out[t]++
		}
	}
	return out
}

func allZero(m map[int]int) bool {
	for _, v := range m {
		if v != 0 {
			return false
		}
	}
	return true
}

func readTopicInfo(path string) ([]types.TopicInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topic info: %w", err)
	}
	var topics []types.TopicInfo
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parsing topic info: %w", err)
	}
	return topics, nil
}

// readAssignments reads a CSV whose first column is the topic of each
// document. A non-numeric first row is treated as a header.
func readAssignments(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading topic assignments: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var out []int
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing topic assignments: %w", err)
		}
		v, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("topic assignments line %d: %w", line, err)
		}
		out = append(out, v)
	}
}

// readRepDocs reads a CSV with a header naming a topic column and a
// document column.
func readRepDocs(path string) ([]RepDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading representative docs: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("parsing representative docs header: %w", err)
	}
	topicCol, docCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "topic":
			topicCol = i
		case "doc", "document", "representative_docs":
			docCol = i
		}
	}
	if topicCol < 0 || docCol < 0 {
		return nil, fmt.Errorf("representative docs %s: need topic and doc columns, got %v", path, header)
	}

	var out []RepDoc
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing representative docs: %w", err)
		}
		if topicCol >= len(rec) || docCol >= len(rec) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[topicCol]))
		if err != nil {
			return nil, fmt.Errorf("representative docs topic %q: %w", rec[topicCol], err)
		}
		out = append(out, RepDoc{Topic: id, Text: rec[docCol]})
	}
}
