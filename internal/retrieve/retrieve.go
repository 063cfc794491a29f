// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve collects fMRI abstracts from PubMed, one year at a time.
//
// The run has two stages. The search stage finds the identifiers published
// in each year; the fetch stage downloads the records for each year in one
// batch. Each stage caches its output under the data directory and skips
// all remote work when its cache is present.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/fmri-topics/internal/httputil"
	"github.com/pdiddy/fmri-topics/internal/logging"
	"github.com/pdiddy/fmri-topics/internal/pubmed"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

const (
	IDCacheFile     = "fmri_pmids.yaml"
	RecordCacheFile = "pmid_records.db"
)

// DefaultQuery matches fMRI studies of the brain and behavior.
const DefaultQuery = `("fMRI" OR "functional MRI" OR "functional magnetic resonance imaging") AND (brain OR neural OR neuroscience OR neurological OR psychiatric OR psychology)`

// Pacing and retry defaults.
const (
	DefaultSearchDelay = 500 * time.Millisecond
	DefaultRetryDelay  = 2 * time.Second
	DefaultFetchPause  = 2 * time.Second
	DefaultMaxAttempts = 5
)

// Searcher finds the identifiers matching a search term.
type Searcher interface {
	SearchAll(ctx context.Context, term string, pageSize int) ([]int, error)
}

// Fetcher downloads the records for a batch of identifiers.
type Fetcher interface {
	Fetch(ctx context.Context, pmids []int) ([]pubmed.Article, error)
}

// Result is the outcome of a retrieval run.
type Result struct {
	Years   map[int][]int
	Records []types.Record

	// IDsCached and RecordsCached report which stages were served from disk.
	IDsCached     bool
	RecordsCached bool
}

// Pipeline runs both retrieval stages.
type Pipeline struct {
	searcher Searcher
	fetcher  Fetcher
	cfg      types.RetrievalConfig
	log      *logging.Logger
	limiter  *rate.Limiter
}

// New creates a Pipeline. Zero-valued pacing and retry settings in cfg take
// their defaults.
func New(cfg types.RetrievalConfig, s Searcher, f Fetcher, log *logging.Logger) *Pipeline {
	if cfg.SearchDelay <= 0 {
		cfg.SearchDelay = DefaultSearchDelay
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.FetchPause <= 0 {
		cfg.FetchPause = DefaultFetchPause
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Pipeline{
		searcher: s,
		fetcher:  f,
		cfg:      cfg,
		log:      log,
		limiter:  rate.NewLimiter(rate.Every(cfg.SearchDelay), 1),
	}
}

// Run executes the search stage and then the fetch stage.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	res := &Result{}
	years, cached, err := p.Identifiers(ctx)
	if err != nil {
		return nil, err
	}
	res.Years, res.IDsCached = years, cached

	records, cached, err := p.Records(ctx, years)
	if err != nil {
		return nil, err
	}
	res.Records, res.RecordsCached = records, cached
	return res, nil
}

// Identifiers returns the PMIDs for every year in the configured range,
// from the identifier cache when present and from the search service
// otherwise. The cache is written only after every year succeeded.
func (p *Pipeline) Identifiers(ctx context.Context) (map[int][]int, bool, error) {
	path := filepath.Join(p.cfg.DataDir, IDCacheFile)
	if _, err := os.Stat(path); err == nil {
		f, err := ReadIDFile(path)
		if err != nil {
			return nil, false, err
		}
		p.checkFingerprint(path, f.Fingerprint)
		p.log.Info("loaded identifier cache", "path", path, "total", f.Summary.Total)
		return f.Years, true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("checking identifier cache: %w", err)
	}

	years := make(map[int][]int, p.cfg.EndYear-p.cfg.StartYear+1)
	for year := p.cfg.StartYear; year <= p.cfg.EndYear; year++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
		term := fmt.Sprintf("%s AND %d[DP]", p.cfg.Query, year)
		ids, err := p.searcher.SearchAll(ctx, term, p.cfg.SearchPageSize)
		if err != nil {
			return nil, false, fmt.Errorf("searching %d: %w", year, err)
		}
		if ids == nil {
			ids = []int{}
		}
		years[year] = ids
		p.log.Info("found records", "year", year, "count", len(ids))
	}

	if err := WriteIDFile(path, p.cfg, years); err != nil {
		return nil, false, err
	}
	return years, false, nil
}

// Records returns the record for every identifier in years, from the
// record cache when present and from the fetch service otherwise. Each
// non-empty year is fetched in one batch under the retry policy; a year
// whose attempts are exhausted aborts the stage.
func (p *Pipeline) Records(ctx context.Context, years map[int][]int) ([]types.Record, bool, error) {
	path := filepath.Join(p.cfg.DataDir, RecordCacheFile)
	if _, err := os.Stat(path); err == nil {
		records, fingerprint, err := ReadRecordCache(path)
		if err != nil {
			return nil, false, err
		}
		p.checkFingerprint(path, fingerprint)
		p.log.Info("loaded record cache", "path", path, "records", len(records))
		return records, true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("checking record cache: %w", err)
	}

	var records []types.Record
	for _, year := range sortedYears(years) {
		ids := years[year]
		if len(ids) == 0 {
			continue
		}
		log := p.log.With("year", year)
		log.Info("getting records", "pmids", len(ids))

		articles, err := httputil.Retry(ctx, p.policy(log), func(ctx context.Context) ([]pubmed.Article, error) {
			return p.fetcher.Fetch(ctx, ids)
		})
		if err != nil {
			return nil, false, fmt.Errorf("fetching records for %d: %w", year, err)
		}
		for _, a := range articles {
			records = append(records, types.Record{PMID: a.PMID, Year: year, Abstract: a.Abstract})
		}
	}

	if err := WriteRecordCache(path, Fingerprint(p.cfg), records); err != nil {
		return nil, false, err
	}
	return records, false, nil
}

func (p *Pipeline) policy(log *logging.Logger) httputil.Policy {
	return httputil.Policy{
		MaxAttempts: p.cfg.MaxAttempts,
		Delay:       p.cfg.RetryDelay,
		Pause:       p.cfg.FetchPause,
		OnRetry: func(attempt int, err error) {
			log.Warn("retrying", "attempt", attempt, "error", err)
		},
	}
}

// checkFingerprint warns when a cache was built from different search
// parameters. The cache is still used.
func (p *Pipeline) checkFingerprint(path, got string) {
	if want := Fingerprint(p.cfg); got != want {
		p.log.Warn("cache was built with different search parameters; reusing it anyway",
			"path", path, "cached", got, "current", want)
	}
}

func sortedYears(years map[int][]int) []int {
	out := make([]int, 0, len(years))
	for y := range years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
