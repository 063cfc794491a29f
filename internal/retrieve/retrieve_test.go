// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fmri-topics/internal/httputil"
	"github.com/pdiddy/fmri-topics/internal/pubmed"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

// noSleep removes real waits from the retry loop for the test's duration.
func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	old := httputil.Sleep
	httputil.Sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { httputil.Sleep = old })
	return &waits
}

type fakeSearcher struct {
	byYear map[string][]int
	terms  []string
}

func (f *fakeSearcher) SearchAll(_ context.Context, term string, _ int) ([]int, error) {
	f.terms = append(f.terms, term)
	for suffix, ids := range f.byYear {
		if strings.HasSuffix(term, suffix) {
			return ids, nil
		}
	}
	return nil, nil
}

type fakeFetcher struct {
	failures int // calls that fail before the first success
	calls    int
	batches  [][]int
}

var errUnavailable = errors.New("service unavailable")

func (f *fakeFetcher) Fetch(_ context.Context, pmids []int) ([]pubmed.Article, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errUnavailable
	}
	f.batches = append(f.batches, pmids)
	out := make([]pubmed.Article, len(pmids))
	for i, id := range pmids {
		out[i] = pubmed.Article{PMID: id}
		if id%2 == 0 {
			abs := "abstract " + string(rune('a'+i))
			out[i].Abstract = &abs
		}
	}
	return out, nil
}

func testConfig(t *testing.T) types.RetrievalConfig {
	return types.RetrievalConfig{
		StartYear:   2001,
		EndYear:     2003,
		Query:       "fMRI",
		Email:       "someone@example.org",
		DataDir:     t.TempDir(),
		SearchDelay: time.Millisecond,
		RetryDelay:  2 * time.Second,
		FetchPause:  2 * time.Second,
		MaxAttempts: 5,
	}
}

func TestRun_FetchesEachNonEmptyYear(t *testing.T) {
	noSleep(t)
	cfg := testConfig(t)
	s := &fakeSearcher{byYear: map[string][]int{
		"2001[DP]": {10, 11},
		"2003[DP]": {30},
	}}
	f := &fakeFetcher{}

	res, err := New(cfg, s, f, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"fMRI AND 2001[DP]", "fMRI AND 2002[DP]", "fMRI AND 2003[DP]"}, s.terms)
	assert.Equal(t, map[int][]int{2001: {10, 11}, 2002: {}, 2003: {30}}, res.Years)
	assert.Equal(t, [][]int{{10, 11}, {30}}, f.batches, "the empty year issues no fetch")

	require.Len(t, res.Records, 3)
	assert.Equal(t, 2001, res.Records[0].Year)
	assert.True(t, res.Records[0].HasAbstract())
	assert.Nil(t, res.Records[1].Abstract)
	assert.Equal(t, 2003, res.Records[2].Year)

	assert.FileExists(t, filepath.Join(cfg.DataDir, IDCacheFile))
	assert.FileExists(t, filepath.Join(cfg.DataDir, RecordCacheFile))
	assert.NoFileExists(t, filepath.Join(cfg.DataDir, RecordCacheFile+".tmp"))
}

func TestRecords_RetriesThenSucceeds(t *testing.T) {
	for k := 0; k < 5; k++ {
		waits := noSleep(t)
		cfg := testConfig(t)
		f := &fakeFetcher{failures: k}

		records, cached, err := New(cfg, &fakeSearcher{}, f, nil).Records(context.Background(), map[int][]int{2001: {1, 2}})
		require.NoError(t, err, "k=%d", k)
		assert.False(t, cached)
		assert.Len(t, records, 2)
		assert.Equal(t, k+1, f.calls, "k=%d", k)
		// k retry delays, then the courtesy pause.
		assert.Len(t, *waits, k+1)
	}
}

func TestRecords_GivesUpAfterMaxAttempts(t *testing.T) {
	noSleep(t)
	cfg := testConfig(t)
	f := &fakeFetcher{failures: 1000}

	_, _, err := New(cfg, &fakeSearcher{}, f, nil).Records(context.Background(), map[int][]int{2001: {1}, 2002: {2}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Contains(t, err.Error(), "2001")
	assert.Equal(t, 5, f.calls, "later years are not attempted")
	assert.NoFileExists(t, filepath.Join(cfg.DataDir, RecordCacheFile))
}

func TestRecords_AllEmptyYearsMakeNoCalls(t *testing.T) {
	noSleep(t)
	cfg := testConfig(t)
	f := &fakeFetcher{}

	records, _, err := New(cfg, &fakeSearcher{}, f, nil).Records(context.Background(), map[int][]int{2001: {}, 2002: nil})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, f.calls)
}

func TestRun_CacheHitDoesNoRemoteWork(t *testing.T) {
	noSleep(t)
	cfg := testConfig(t)
	s := &fakeSearcher{byYear: map[string][]int{"2002[DP]": {7, 8}}}
	f := &fakeFetcher{}

	first, err := New(cfg, s, f, nil).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, first.IDsCached)
	assert.False(t, first.RecordsCached)

	s2 := &fakeSearcher{}
	f2 := &fakeFetcher{}
	second, err := New(cfg, s2, f2, nil).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, second.IDsCached)
	assert.True(t, second.RecordsCached)
	assert.Empty(t, s2.terms)
	assert.Zero(t, f2.calls)
	assert.Equal(t, first.Years, second.Years)
	assert.Equal(t, first.Records, second.Records)
}

func TestRun_ReusesCacheWithDifferentParameters(t *testing.T) {
	noSleep(t)
	cfg := testConfig(t)
	_, err := New(cfg, &fakeSearcher{byYear: map[string][]int{"2001[DP]": {1}}}, &fakeFetcher{}, nil).Run(context.Background())
	require.NoError(t, err)

	cfg.Query = "BOLD"
	s := &fakeSearcher{}
	res, err := New(cfg, s, &fakeFetcher{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.IDsCached)
	assert.Empty(t, s.terms)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Email = ""
	_, err := New(cfg, &fakeSearcher{}, &fakeFetcher{}, nil).Run(context.Background())
	assert.Error(t, err)
}

func TestIDFile_RoundTrip(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.DataDir, IDCacheFile)
	years := map[int][]int{2001: {3, 2, 1}, 2002: {}}

	require.NoError(t, WriteIDFile(path, cfg, years))
	f, err := ReadIDFile(path)
	require.NoError(t, err)

	assert.Equal(t, Fingerprint(cfg), f.Fingerprint)
	assert.Equal(t, 3, f.Summary.Total)
	assert.Equal(t, []int{3, 2, 1}, f.Years[2001])
	assert.Empty(t, f.Years[2002])
}

func TestFingerprint(t *testing.T) {
	a := testConfig(t)
	b := a
	b.DataDir = "elsewhere"
	assert.Equal(t, Fingerprint(a), Fingerprint(b), "data dir is not a search parameter")

	b.EndYear = 2010
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestWriteRecordCache_ReplacesStaleTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RecordCacheFile)
	require.NoError(t, os.WriteFile(path+".tmp", []byte("garbage"), 0o644))

	abs := "text"
	in := []types.Record{{PMID: 1, Year: 2001, Abstract: &abs}, {PMID: 2, Year: 2001}}
	require.NoError(t, WriteRecordCache(path, "fp", in))

	out, fp, err := ReadRecordCache(path)
	require.NoError(t, err)
	assert.Equal(t, "fp", fp)
	assert.Equal(t, in, out)
}
