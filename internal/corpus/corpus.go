// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus builds the document set shared by the analysis steps from
// the retrieval record cache.
package corpus

import (
	"fmt"
	"path/filepath"

	"github.com/pdiddy/fmri-topics/internal/retrieve"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

// Load reads the record cache in dataDir and returns its documents.
func Load(dataDir string) (types.Corpus, error) {
	path := filepath.Join(dataDir, retrieve.RecordCacheFile)
	records, _, err := retrieve.ReadRecordCache(path)
	if err != nil {
		return types.Corpus{}, fmt.Errorf("loading corpus: %w", err)
	}
	return FromRecords(records), nil
}

// FromRecords keeps the records that carry an abstract, in record order.
func FromRecords(records []types.Record) types.Corpus {
	docs := make([]types.Document, 0, len(records))
	for _, r := range records {
		if !r.HasAbstract() {
			continue
		}
		docs = append(docs, types.Document{PMID: r.PMID, Year: r.Year, Text: *r.Abstract})
	}
	return types.Corpus{Documents: docs}
}
