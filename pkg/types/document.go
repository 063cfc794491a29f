// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the fmri-topics pipelines.
package types

import "time"

// Record is one retrieval cache entry: a PubMed identifier, the year it was
// searched under, and its abstract. Abstract is nil when the record carries
// no abstract.
type Record struct {
	PMID     int     `json:"pmid" yaml:"pmid"`
	Year     int     `json:"year" yaml:"year"`
	Abstract *string `json:"abstract" yaml:"abstract"`
}

// HasAbstract reports whether the record carries abstract text.
func (r Record) HasAbstract() bool {
	return r.Abstract != nil && *r.Abstract != ""
}

// Document is a unit of text with its publication year.
type Document struct {
	PMID int    `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	Year int    `json:"year" yaml:"year"`
	Text string `json:"text" yaml:"text"`
}

// YearStart returns January 1 of year in UTC.
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Corpus is the ordered set of documents shared by both pipelines.
type Corpus struct {
	Documents []Document
}

// Sentences returns document texts in corpus order.
func (c Corpus) Sentences() []string {
	out := make([]string, len(c.Documents))
	for i, d := range c.Documents {
		out[i] = d.Text
	}
	return out
}

// Len returns the number of documents.
func (c Corpus) Len() int { return len(c.Documents) }

// Point is a document position in the 2D projection of its embedding.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}
