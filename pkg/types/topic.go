// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OutlierTopic is the topic id the model assigns to documents it could not cluster.
const OutlierTopic = -1

// TopicInfo describes one topic of a fitted model.
type TopicInfo struct {
	ID    int    `json:"id" yaml:"id"`
	Count int    `json:"count" yaml:"count"`
	Name  string `json:"name" yaml:"name"`

	// Representation lists the topic label first, then representative words.
	Representation []string `json:"representation" yaml:"representation"`
}

// Label returns the short display name of the topic.
func (t TopicInfo) Label() string {
	if len(t.Representation) > 0 && t.Representation[0] != "" {
		return t.Representation[0]
	}
	return t.Name
}

// TopicYear is the frequency of one topic in one year, with the words that
// represent the topic in that year. Probability is the frequency divided by
// the summed frequency of all topics in the same year.
type TopicYear struct {
	Topic       int       `json:"topic" yaml:"topic"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Frequency   int       `json:"frequency" yaml:"frequency"`
	Words       []string  `json:"words" yaml:"words"`
	Sum         int       `json:"sum" yaml:"sum"`
	Probability float64   `json:"probability" yaml:"probability"`

	// Name is the topic label, filled for top-topic rows.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Year returns the calendar year of the row.
func (t TopicYear) Year() int { return t.Timestamp.Year() }

// Merge is one step of the hierarchical clustering of topics. Children are
// the two clusters joined (topic ids or earlier parent ids); Topics lists the
// leaf topics under Parent.
type Merge struct {
	Parent     int     `json:"parent_id" yaml:"parent_id"`
	ParentName string  `json:"parent_name" yaml:"parent_name"`
	Children   []int   `json:"children" yaml:"children"`
	Topics     []int   `json:"topics" yaml:"topics"`
	Distance   float64 `json:"distance" yaml:"distance"`
}

// Slope is the linear trend of a topic's yearly probability.
type Slope struct {
	Topic     int     `json:"topic" yaml:"topic"`
	Slope     float64 `json:"slope" yaml:"slope"`
	TopicName string  `json:"topicname" yaml:"topicname"`
}
