// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities for PubMed identifiers and records.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/fmri-topics/internal/httputil"
)

// eutilsBase is the E-utilities endpoint. Declared as a var so tests can
// substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Client talks to the PubMed database through E-utilities. Every request
// carries the operator's contact email and tool name, as NCBI requires.
type Client struct {
	HTTP      *http.Client
	Email     string
	Tool      string
	APIKey    string
	UserAgent string
}

// StatusError reports a non-200 response from E-utilities.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pubmed %s returned HTTP %d", e.Op, e.Code)
	}
	return fmt.Sprintf("pubmed %s returned HTTP %d: %s", e.Op, e.Code, e.Body)
}

// SearchPage is one page of ESearch results.
type SearchPage struct {
	Count    int
	RetStart int
	IDs      []int
}

// Search runs one ESearch page for term.
func (c *Client) Search(ctx context.Context, term string, retstart, retmax int) (SearchPage, error) {
	params := c.baseParams()
	params.Set("term", term)
	params.Set("retstart", strconv.Itoa(retstart))
	params.Set("retmax", strconv.Itoa(retmax))
	params.Set("retmode", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eutilsBase+"/esearch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return SearchPage{}, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return SearchPage{}, fmt.Errorf("pubmed esearch request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus("esearch", resp); err != nil {
		return SearchPage{}, err
	}

	var er esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return SearchPage{}, fmt.Errorf("parsing esearch response: %w", err)
	}
	if er.Result.Error != "" {
		return SearchPage{}, fmt.Errorf("pubmed esearch: %s", er.Result.Error)
	}

	page := SearchPage{}
	page.Count, _ = strconv.Atoi(er.Result.Count)
	page.RetStart, _ = strconv.Atoi(er.Result.RetStart)
	for _, s := range er.Result.IDList {
		id, err := strconv.Atoi(s)
		if err != nil {
			return SearchPage{}, fmt.Errorf("invalid PMID %q in esearch response", s)
		}
		page.IDs = append(page.IDs, id)
	}
	return page, nil
}

// SearchAll pages through every identifier matching term.
func (c *Client) SearchAll(ctx context.Context, term string, pageSize int) ([]int, error) {
	if pageSize <= 0 {
		pageSize = 10000
	}
	var ids []int
	for {
		page, err := c.Search(ctx, term, len(ids), pageSize)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page.IDs...)
		if len(page.IDs) == 0 || len(ids) >= page.Count {
			return ids, nil
		}
	}
}

// Fetch retrieves the records for pmids in a single EFetch call. The ID list
// is sent as a form body so large batches do not overflow the URL.
func (c *Client) Fetch(ctx context.Context, pmids []int) ([]Article, error) {
	if len(pmids) == 0 {
		return nil, nil
	}
	ids := make([]string, len(pmids))
	for i, id := range pmids {
		ids[i] = strconv.Itoa(id)
	}

	form := c.baseParams()
	form.Set("id", strings.Join(ids, ","))
	form.Set("retmode", "xml")
	form.Set("retmax", strconv.Itoa(len(pmids)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, eutilsBase+"/efetch.fcgi", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pubmed efetch request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus("efetch", resp); err != nil {
		return nil, err
	}

	return ParseArticles(resp.Body)
}

func (c *Client) baseParams() url.Values {
	params := url.Values{"db": {"pubmed"}}
	if c.Email != "" {
		params.Set("email", c.Email)
	}
	if c.Tool != "" {
		params.Set("tool", c.Tool)
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}
	return params
}

func (c *Client) setHeaders(req *http.Request) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// ESearch JSON structures. E-utilities reports counts as strings.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count    string   `json:"count"`
	RetMax   string   `json:"retmax"`
	RetStart string   `json:"retstart"`
	IDList   []string `json:"idlist"`
	Error    string   `json:"ERROR"`
}
