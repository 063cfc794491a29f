// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topicmodel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

// wordsPerRow is the number of representative words kept per topic and year.
const wordsPerRow = 5

// DefaultDateCutoff is the date topic-year rows must be later than.
var DefaultDateCutoff = types.YearStart(2001)

// global fits class weights over every topic, outlier included, and returns
// them with the class index of each topic id.
func (m *Model) global(sentences []string) (*classTFIDF, map[int]int, error) {
	if len(sentences) != len(m.Assignments) {
		return nil, nil, fmt.Errorf("model assigns %d documents but corpus has %d", len(m.Assignments), len(sentences))
	}
	byTopic := make(map[int][]string)
	for i, t := range m.Assignments {
		byTopic[t] = append(byTopic[t], sentences[i])
	}
	ids := make([]int, 0, len(byTopic))
	for t := range byTopic {
		ids = append(ids, t)
	}
	sort.Ints(ids)

	classDocs := make([]string, len(ids))
	class := make(map[int]int, len(ids))
	for i, t := range ids {
		classDocs[i] = strings.Join(byTopic[t], " ")
		class[t] = i
	}
	ct, err := fitClassTFIDF(classDocs)
	if err != nil {
		return nil, nil, fmt.Errorf("weighing topic terms: %w", err)
	}
	return ct, class, nil
}

// TopicsOverTime counts the documents of every topic in every year and
// keeps the rows dated strictly after cutoff. The words of a row are the
// top terms of the topic's documents in that year, weighed against the
// whole corpus and averaged with the topic's overall weights. Sum is the
// total frequency of the row's year and Probability the row's share of it,
// so probabilities within a year sum to 1. Rows are ordered by year, then
// topic.
func (m *Model) TopicsOverTime(corpus types.Corpus, cutoff time.Time) ([]types.TopicYear, error) {
	sentences := corpus.Sentences()
	ct, class, err := m.global(sentences)
	if err != nil {
		return nil, err
	}

	type key struct{ topic, year int }
	groups := make(map[key][]string)
	for i, d := range corpus.Documents {
		k := key{m.Assignments[i], d.Year}
		groups[k] = append(groups[k], d.Text)
	}
	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].topic < keys[j].topic
	})

	docs := make([]string, len(keys))
	for i, k := range keys {
		docs[i] = strings.Join(groups[k], " ")
	}
	counts, err := ct.countsFor(docs)
	if err != nil {
		return nil, fmt.Errorf("counting topic terms per year: %w", err)
	}
	local := ct.weigh(counts)

	_, terms := local.Dims()
	tuned := make([]float64, terms)
	var rows []types.TopicYear
	for i, k := range keys {
		ts := types.YearStart(k.year)
		if !ts.After(cutoff) {
			continue
		}
		mat.NewVecDense(terms, tuned).AddVec(local.RowView(i), ct.weights.RowView(class[k.topic]))
		for j := range tuned {
			tuned[j] /= 2
		}
		rows = append(rows, types.TopicYear{
			Topic:     k.topic,
			Timestamp: ts,
			Frequency: len(groups[k]),
			Words:     ct.topWords(tuned, wordsPerRow),
		})
	}
	Normalize(rows)
	return rows, nil
}

// Normalize fills Sum and Probability of every row from the frequencies of
// the rows sharing its timestamp.
func Normalize(rows []types.TopicYear) {
	sums := make(map[time.Time]int)
	for _, r := range rows {
		sums[r.Timestamp] += r.Frequency
	}
	for i := range rows {
		s := sums[rows[i].Timestamp]
		rows[i].Sum = s
		if s > 0 {
			rows[i].Probability = float64(rows[i].Frequency) / float64(s)
		}
	}
}
