// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

// IDFile is the on-disk identifier cache: the PMIDs found for each year and
// the search parameters that produced them.
type IDFile struct {
	Query       IDQuery       `yaml:"query"`
	Fingerprint string        `yaml:"fingerprint"`
	Years       map[int][]int `yaml:"years"`
	Summary     IDSummary     `yaml:"summary"`
}

// IDQuery stores the search parameters in a serializable form.
type IDQuery struct {
	Term      string `yaml:"term"`
	StartYear int    `yaml:"start_year"`
	EndYear   int    `yaml:"end_year"`
}

// IDSummary stores result statistics and a timestamp.
type IDSummary struct {
	Total     int       `yaml:"total"`
	Timestamp time.Time `yaml:"timestamp"`
}

// Fingerprint identifies the search parameters a cache was built from.
func Fingerprint(cfg types.RetrievalConfig) string {
	key := fmt.Sprintf("%s|%d|%d", cfg.Query, cfg.StartYear, cfg.EndYear)
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// WriteIDFile saves the identifiers found per year to a YAML file.
func WriteIDFile(path string, cfg types.RetrievalConfig, years map[int][]int) error {
	total := 0
	for _, ids := range years {
		total += len(ids)
	}
	f := IDFile{
		Query: IDQuery{
			Term:      cfg.Query,
			StartYear: cfg.StartYear,
			EndYear:   cfg.EndYear,
		},
		Fingerprint: Fingerprint(cfg),
		Years:       years,
		Summary: IDSummary{
			Total:     total,
			Timestamp: time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshaling identifier cache: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadIDFile loads a previously saved identifier cache.
func ReadIDFile(path string) (*IDFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identifier cache: %w", err)
	}
	var f IDFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing identifier cache: %w", err)
	}
	if f.Years == nil {
		f.Years = map[int][]int{}
	}
	return &f, nil
}
