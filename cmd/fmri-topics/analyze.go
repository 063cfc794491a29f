// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fmri-topics/internal/analyze"
	"github.com/pdiddy/fmri-topics/internal/embed"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze topic prevalence and hierarchy for a fitted model",
	Long: `Analyze loads the cached corpus and the exported topic model selected by
--min_cluster_size and --n_neighbors, then computes topics over time, the
topic hierarchy and its levels, and the trend of the top topics. Tables are
written under --modeldir and figures under figures/.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int("min_cluster_size", analyze.DefaultMinClusterSize, "minimum cluster size of the fitted model")
	analyzeCmd.Flags().Int("n_neighbors", analyze.DefaultNNeighbors, "number of neighbors of the fitted model")
	analyzeCmd.Flags().String("datadir", "data", "directory holding the retrieval caches")
	analyzeCmd.Flags().String("modeldir", "models", "directory holding exported models and output tables")

	viper.BindPFlag("analysis.min_cluster_size", analyzeCmd.Flags().Lookup("min_cluster_size"))
	viper.BindPFlag("analysis.n_neighbors", analyzeCmd.Flags().Lookup("n_neighbors"))
	viper.BindPFlag("analysis.data_dir", analyzeCmd.Flags().Lookup("datadir"))
	viper.BindPFlag("analysis.model_dir", analyzeCmd.Flags().Lookup("modeldir"))

	rootCmd.AddCommand(analyzeCmd)
}

func analysisConfig() (types.AnalysisConfig, error) {
	cutoff, err := time.Parse(time.DateOnly, viper.GetString("analysis.date_cutoff"))
	if err != nil {
		return types.AnalysisConfig{}, fmt.Errorf("parsing analysis.date_cutoff: %w", err)
	}
	offsets, err := annotationOffsets()
	if err != nil {
		return types.AnalysisConfig{}, err
	}

	return types.AnalysisConfig{
		MinClusterSize:     viper.GetInt("analysis.min_cluster_size"),
		NNeighbors:         viper.GetInt("analysis.n_neighbors"),
		LLM:                viper.GetString("analysis.llm"),
		DataDir:            viper.GetString("analysis.data_dir"),
		ModelDir:           viper.GetString("analysis.model_dir"),
		FiguresDir:         viper.GetString("analysis.figures_dir"),
		DateCutoff:         cutoff,
		TopicsPerYear:      viper.GetInt("analysis.topics_per_year"),
		TopNTopics:         viper.GetInt("analysis.top_n_topics"),
		KeepOutlier:        viper.GetBool("analysis.keep_outlier"),
		PrintTopTopics:     viper.GetBool("analysis.print_top_topics"),
		Levels:             viper.GetInt("analysis.levels"),
		LevelScale:         types.LevelScale(viper.GetString("analysis.level_scale")),
		SampleCap:          viper.GetInt("analysis.sample_cap"),
		Seed:               viper.GetInt64("analysis.seed"),
		VisualizeHierarchy: viper.GetBool("analysis.visualize_hierarchy"),
		AnnotationOffsets:  offsets,
		Embedding: types.EmbeddingConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("analysis.embedding.timeout"),
				UserAgent: defaultUserAgent,
			},
			BaseURL:   viper.GetString("analysis.embedding.base_url"),
			Model:     viper.GetString("analysis.embedding.model"),
			BatchSize: viper.GetInt("analysis.embedding.batch_size"),
		},
	}, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := analysisConfig()
	if err != nil {
		return err
	}

	var e embed.Embedder
	if viper.GetBool("analysis.embedding.enabled") {
		e = embed.NewOllama(cfg.Embedding)
	}

	res, err := analyze.New(cfg, e, os.Stdout, logger).Run(cmd.Context())
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return err
	}
	for _, f := range res.Files {
		fmt.Fprintf(os.Stdout, "wrote %s\n", f)
	}
	return nil
}
