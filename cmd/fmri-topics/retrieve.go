// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fmri-topics/internal/pubmed"
	"github.com/pdiddy/fmri-topics/internal/retrieve"
	"github.com/pdiddy/fmri-topics/internal/secrets"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Search PubMed for fMRI abstracts and cache them",
	Long: `Retrieve searches PubMed year by year for fMRI studies and fetches the
abstract of every match. Identifiers are cached in data/fmri_pmids.yaml and
records in data/pmid_records.db; a stage whose cache exists does no remote
work. A contact email is required (retrieval.email or .secrets/entrez-email).`,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
}

func retrievalConfig() types.RetrievalConfig {
	cfg := types.RetrievalConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("retrieval.timeout"),
			UserAgent: viper.GetString("retrieval.user_agent"),
		},
		StartYear:      viper.GetInt("retrieval.start_year"),
		EndYear:        viper.GetInt("retrieval.end_year"),
		Query:          viper.GetString("retrieval.query"),
		Email:          viper.GetString("retrieval.email"),
		Tool:           viper.GetString("retrieval.tool"),
		APIKey:         viper.GetString("retrieval.api_key"),
		DataDir:        viper.GetString("retrieval.data_dir"),
		SearchPageSize: viper.GetInt("retrieval.search_page_size"),
		SearchDelay:    viper.GetDuration("retrieval.search_delay"),
		MaxAttempts:    viper.GetInt("retrieval.max_attempts"),
		RetryDelay:     viper.GetDuration("retrieval.retry_delay"),
		FetchPause:     viper.GetDuration("retrieval.fetch_pause"),
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg := retrievalConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := &pubmed.Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		Email:     cfg.Email,
		Tool:      cfg.Tool,
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
	}

	res, err := retrieve.New(cfg, client, client, logger).Run(cmd.Context())
	if err != nil {
		logger.Error("retrieval failed", "error", err)
		return err
	}

	ids, withAbstract := 0, 0
	for _, pmids := range res.Years {
		ids += len(pmids)
	}
	for _, r := range res.Records {
		if r.HasAbstract() {
			withAbstract++
		}
	}
	fmt.Fprintf(os.Stdout, "%-12s %d (cached: %t)\n", "identifiers", ids, res.IDsCached)
	fmt.Fprintf(os.Stdout, "%-12s %d (cached: %t)\n", "records", len(res.Records), res.RecordsCached)
	fmt.Fprintf(os.Stdout, "%-12s %d\n", "abstracts", withAbstract)
	return nil
}
