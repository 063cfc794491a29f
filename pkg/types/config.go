// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "fmri-topics/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetrievalConfig holds settings for the abstract retrieval pipeline.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// StartYear and EndYear bound the publication years searched (inclusive).
	StartYear int `json:"start_year" yaml:"start_year"`
	EndYear   int `json:"end_year" yaml:"end_year"`

	// Query is the search expression; the year restriction is appended per year.
	Query string `json:"query" yaml:"query"`

	// Email identifies the operator to the bibliographic service.
	Email string `json:"email" yaml:"email"`

	// Tool is the application name reported alongside Email.
	Tool string `json:"tool" yaml:"tool"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// DataDir holds the identifier and record caches.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// SearchPageSize is the number of identifiers requested per search page.
	SearchPageSize int `json:"search_page_size" yaml:"search_page_size"`

	// SearchDelay spaces consecutive search calls (default 0.5s).
	SearchDelay time.Duration `json:"search_delay" yaml:"search_delay"`

	// MaxAttempts bounds the attempts of a batch fetch (default 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryDelay is the wait between failed fetch attempts (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// FetchPause is the courtesy pause after a successful fetch (default 2s).
	FetchPause time.Duration `json:"fetch_pause" yaml:"fetch_pause"`
}

// Validate checks the year range and operator contact.
func (c RetrievalConfig) Validate() error {
	if c.StartYear <= 0 || c.EndYear < c.StartYear {
		return fmt.Errorf("invalid year range %d-%d", c.StartYear, c.EndYear)
	}
	if c.Email == "" {
		return fmt.Errorf("contact email is required by the bibliographic service")
	}
	if c.Query == "" {
		return fmt.Errorf("search query is empty")
	}
	return nil
}

// LevelScale selects how hierarchy cut points are spaced along the merge sequence.
type LevelScale string

const (
	LevelScaleLinear      LevelScale = "linear"
	LevelScaleLogarithmic LevelScale = "logarithmic"
)

// EmbeddingConfig holds settings for the embedding collaborator.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the Ollama server address.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the embedding model name.
	Model string `json:"model" yaml:"model"`

	// BatchSize is the number of texts sent per embedding request.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// AnalysisConfig holds settings for the topic analysis pipeline.
type AnalysisConfig struct {
	// MinClusterSize and NNeighbors identify the fitted model to load.
	MinClusterSize int `json:"min_cluster_size" yaml:"min_cluster_size"`
	NNeighbors     int `json:"n_neighbors" yaml:"n_neighbors"`

	// LLM is the representation suffix of the model name (default "gpt4").
	LLM string `json:"llm" yaml:"llm"`

	DataDir    string `json:"data_dir" yaml:"data_dir"`
	ModelDir   string `json:"model_dir" yaml:"model_dir"`
	FiguresDir string `json:"figures_dir" yaml:"figures_dir"`

	// DateCutoff drops topic-year rows at or before this date.
	DateCutoff time.Time `json:"date_cutoff" yaml:"date_cutoff"`

	// TopicsPerYear is the number of top topics taken from each year (default 3).
	TopicsPerYear int `json:"topics_per_year" yaml:"topics_per_year"`

	// TopNTopics is the number of most frequent topics in the HTML time series (default 10).
	TopNTopics int `json:"top_n_topics" yaml:"top_n_topics"`

	// KeepOutlier ranks the outlier topic with the others. By default it is
	// removed before top topics are taken.
	KeepOutlier bool `json:"keep_outlier" yaml:"keep_outlier"`

	// PrintTopTopics writes the top topics of each year to the output.
	PrintTopTopics bool `json:"print_top_topics" yaml:"print_top_topics"`

	// Levels is the number of hierarchy levels (default 5).
	Levels int `json:"levels" yaml:"levels"`

	// LevelScale spaces the hierarchy cut points.
	LevelScale LevelScale `json:"level_scale" yaml:"level_scale"`

	// SampleCap bounds the documents kept per topic in the level table; 0 keeps all.
	SampleCap int `json:"sample_cap" yaml:"sample_cap"`

	// Seed drives the per-topic document sampling.
	Seed int64 `json:"seed" yaml:"seed"`

	// VisualizeHierarchy writes the dendrogram HTML.
	VisualizeHierarchy bool `json:"visualize_hierarchy" yaml:"visualize_hierarchy"`

	// AnnotationOffsets shifts the label of a topic in the annotated time series.
	AnnotationOffsets map[int]float64 `json:"annotation_offsets" yaml:"annotation_offsets"`

	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
}

// ModelName returns the on-disk name of the fitted model this configuration selects.
func (c AnalysisConfig) ModelName() string {
	return fmt.Sprintf("model-bertopic_minclust-%d_nneighbors-%d_%s", c.MinClusterSize, c.NNeighbors, c.LLM)
}

// RunTag returns the parameter suffix used in output file names.
func (c AnalysisConfig) RunTag() string {
	return fmt.Sprintf("minclust-%d_nneighbors-%d", c.MinClusterSize, c.NNeighbors)
}
