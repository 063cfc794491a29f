// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fmri-topics CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fmri-topics/internal/logging"
	"github.com/pdiddy/fmri-topics/internal/report"
	"github.com/pdiddy/fmri-topics/internal/retrieve"
	"github.com/pdiddy/fmri-topics/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "fmri-topics/0.1"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	logger = logging.Nop()
)

// rootCmd is the base command for the fmri-topics CLI.
var rootCmd = &cobra.Command{
	Use:   "fmri-topics",
	Short: "Retrieve fMRI abstracts from PubMed and analyze their topics",
	Long: `fmri-topics builds a corpus of fMRI abstracts from PubMed and analyzes a
topic model fitted to it.

retrieve searches PubMed year by year and caches identifiers and abstracts
under the data directory. analyze loads the cached corpus and an exported
topic model, then reports how topics change over time and how they group
into a hierarchy.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(viper.GetString("log.mode"))
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Info("using config file", "path", f)
		}

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Info("loaded secrets", "keys", keys)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./fmri-topics.yaml or ~/.config/fmri-topics/config.yaml)")
	setDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fmri-topics")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fmri-topics"))
		}
	}

	viper.SetEnvPrefix("FMRI_TOPICS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintln(os.Stderr, "warning: could not read config:", err)
		}
	}
}

func setDefaults() {
	viper.SetDefault("log.mode", "dev")
	viper.SetDefault("secrets_dir", ".secrets")

	viper.SetDefault("retrieval.start_year", 1990)
	viper.SetDefault("retrieval.end_year", 2022)
	viper.SetDefault("retrieval.query", retrieve.DefaultQuery)
	viper.SetDefault("retrieval.tool", "fmri-topics")
	viper.SetDefault("retrieval.data_dir", "data")
	viper.SetDefault("retrieval.timeout", "60s")
	viper.SetDefault("retrieval.user_agent", defaultUserAgent)
	viper.SetDefault("retrieval.search_page_size", 10000)
	viper.SetDefault("retrieval.search_delay", retrieve.DefaultSearchDelay)
	viper.SetDefault("retrieval.max_attempts", retrieve.DefaultMaxAttempts)
	viper.SetDefault("retrieval.retry_delay", retrieve.DefaultRetryDelay)
	viper.SetDefault("retrieval.fetch_pause", retrieve.DefaultFetchPause)

	viper.SetDefault("analysis.llm", "gpt4")
	viper.SetDefault("analysis.figures_dir", "figures")
	viper.SetDefault("analysis.date_cutoff", "2001-01-01")
	viper.SetDefault("analysis.topics_per_year", 3)
	viper.SetDefault("analysis.top_n_topics", 10)
	viper.SetDefault("analysis.keep_outlier", false)
	viper.SetDefault("analysis.print_top_topics", false)
	viper.SetDefault("analysis.levels", 5)
	viper.SetDefault("analysis.level_scale", "linear")
	viper.SetDefault("analysis.sample_cap", 0)
	viper.SetDefault("analysis.seed", 42)
	viper.SetDefault("analysis.visualize_hierarchy", false)
	viper.SetDefault("analysis.annotation_offsets", defaultOffsets())
	viper.SetDefault("analysis.embedding.enabled", true)
	viper.SetDefault("analysis.embedding.base_url", "http://localhost:11434")
	viper.SetDefault("analysis.embedding.model", "nomic-embed-text")
	viper.SetDefault("analysis.embedding.batch_size", 64)
	viper.SetDefault("analysis.embedding.timeout", "120s")
}

func defaultOffsets() map[string]interface{} {
	out := make(map[string]interface{}, len(report.DefaultAnnotationOffsets))
	for k, v := range report.DefaultAnnotationOffsets {
		out[strconv.Itoa(k)] = v
	}
	return out
}

// annotationOffsets reads the per-topic label offsets. Keys are topic ids.
func annotationOffsets() (map[int]float64, error) {
	raw := viper.GetStringMap("analysis.annotation_offsets")
	out := make(map[int]float64, len(raw))
	for k, v := range raw {
		topic, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("annotation offset key %q is not a topic id", k)
		}
		switch x := v.(type) {
		case float64:
			out[topic] = x
		case int:
			out[topic] = float64(x)
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return nil, fmt.Errorf("annotation offset for topic %d: %w", topic, err)
			}
			out[topic] = f
		default:
			return nil, fmt.Errorf("annotation offset for topic %d has type %T", topic, v)
		}
	}
	return out, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
