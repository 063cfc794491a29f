// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze runs the topic analysis over the retrieved corpus: topic
// prevalence by year, the topic hierarchy and its levels, trend slopes, and
// the tables and figures that report them.
package analyze

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/fmri-topics/internal/corpus"
	"github.com/pdiddy/fmri-topics/internal/embed"
	"github.com/pdiddy/fmri-topics/internal/levels"
	"github.com/pdiddy/fmri-topics/internal/logging"
	"github.com/pdiddy/fmri-topics/internal/report"
	"github.com/pdiddy/fmri-topics/internal/topicmodel"
	"github.com/pdiddy/fmri-topics/internal/trend"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

const (
	DefaultMinClusterSize = 250
	DefaultNNeighbors     = 50
	DefaultLLM            = "gpt4"
	DefaultTopNTopics     = 10
	DefaultEmbeddingModel = "nomic-embed-text"

	hierarchyHTML = "hierarchical_topics.html"
)

// Result holds everything a run computed and the files it wrote.
type Result struct {
	Corpus         types.Corpus
	Model          *topicmodel.Model
	TopicsOverTime []types.TopicYear
	Merges         []types.Merge
	Tree           string

	// Points is nil when no embedder was configured.
	Points    []types.Point
	Levels    []levels.Level
	LevelRows []levels.Row
	TopTopics []types.TopicYear
	Slopes    []types.Slope

	Files []string
}

// Pipeline runs the analysis for one fitted model.
type Pipeline struct {
	cfg      types.AnalysisConfig
	embedder embed.Embedder
	out      io.Writer
	log      *logging.Logger
}

// New returns a pipeline for cfg with defaults filled in. e may be nil, in
// which case the document projection and its outputs are skipped. Tables
// meant for people are written to out.
func New(cfg types.AnalysisConfig, e embed.Embedder, out io.Writer, log *logging.Logger) *Pipeline {
	if cfg.MinClusterSize <= 0 {
		cfg.MinClusterSize = DefaultMinClusterSize
	}
	if cfg.NNeighbors <= 0 {
		cfg.NNeighbors = DefaultNNeighbors
	}
	if cfg.LLM == "" {
		cfg.LLM = DefaultLLM
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = "models"
	}
	if cfg.FiguresDir == "" {
		cfg.FiguresDir = "figures"
	}
	if cfg.DateCutoff.IsZero() {
		cfg.DateCutoff = topicmodel.DefaultDateCutoff
	}
	if cfg.TopicsPerYear <= 0 {
		cfg.TopicsPerYear = trend.DefaultTopicsPerYear
	}
	if cfg.TopNTopics <= 0 {
		cfg.TopNTopics = DefaultTopNTopics
	}
	if cfg.Levels <= 0 {
		cfg.Levels = levels.DefaultLevels
	}
	if cfg.LevelScale == "" {
		cfg.LevelScale = types.LevelScaleLinear
	}
	if cfg.AnnotationOffsets == nil {
		cfg.AnnotationOffsets = report.DefaultAnnotationOffsets
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Pipeline{cfg: cfg, embedder: e, out: out, log: log}
}

// Config returns the configuration with defaults applied.
func (p *Pipeline) Config() types.AnalysisConfig { return p.cfg }

// Run executes every analysis step in order. The level scale is checked
// before any work is done.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	scale, err := levels.ParseScale(string(p.cfg.LevelScale))
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if res.Corpus, err = corpus.Load(p.cfg.DataDir); err != nil {
		return nil, err
	}
	p.log.Info("loaded corpus", "documents", res.Corpus.Len())

	name := p.cfg.ModelName()
	res.Model, err = topicmodel.Load(p.cfg.ModelDir, name, topicmodel.RepDocsPath(p.cfg.ModelDir, name, p.cfg.LLM))
	if err != nil {
		return nil, err
	}
	p.log.Info("loaded model", "path", res.Model.Path, "topics", len(res.Model.Topics))

	p.log.Info("getting topics over time")
	if res.TopicsOverTime, err = res.Model.TopicsOverTime(res.Corpus, p.cfg.DateCutoff); err != nil {
		return nil, fmt.Errorf("topics over time: %w", err)
	}

	if res.Merges, err = res.Model.HierarchicalTopics(res.Corpus); err != nil {
		return nil, fmt.Errorf("hierarchical topics: %w", err)
	}
	res.Tree = res.Model.TopicTree(res.Merges)
	p.log.Debug("topic tree", "tree", res.Tree)
	if p.cfg.VisualizeHierarchy {
		path := filepath.Join(p.cfg.FiguresDir, hierarchyHTML)
		if err := report.WriteHTML(path, report.HierarchyChart(res.Merges, res.Model)); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
	}

	if err := p.project(ctx, res); err != nil {
		return nil, err
	}

	if err := p.assignLevels(res, scale); err != nil {
		return nil, err
	}

	res.TopTopics = trend.TopTopics(res.TopicsOverTime, res.Model, p.cfg.TopicsPerYear, !p.cfg.KeepOutlier)
	if p.cfg.PrintTopTopics {
		trend.FormatTopYears(res.TopTopics, p.cfg.TopicsPerYear, p.out)
	}
	if err := p.plotTopTopics(res); err != nil {
		return nil, err
	}

	res.Slopes = trend.Slopes(res.TopTopics, res.Model)
	path := filepath.Join(p.cfg.ModelDir, trend.SlopesFileName(name, p.cfg.LLM))
	if err := report.WriteCSV(path, report.SlopesTable(res.Slopes)); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, path)
	trend.FormatTable(res.Slopes, p.out)

	if err := p.writeWorkbook(res); err != nil {
		return nil, err
	}

	p.log.Info("analysis complete", "files", len(res.Files))
	return res, nil
}

// project embeds every document, reduces the vectors to two dimensions and
// writes the coordinates.
func (p *Pipeline) project(ctx context.Context, res *Result) error {
	if p.embedder == nil {
		p.log.Warn("no embedder configured, skipping document projection")
		return nil
	}

	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	cache, err := embed.OpenCache(filepath.Join(p.cfg.DataDir, embed.CacheFile))
	if err != nil {
		return err
	}
	defer cache.Close()

	vectors, err := embed.All(ctx, p.embedder, cache, p.cfg.Embedding.Model, res.Corpus.Sentences(), p.cfg.Embedding.BatchSize, p.log)
	if err != nil {
		return fmt.Errorf("embedding documents: %w", err)
	}
	if res.Points, err = embed.Reduce(vectors); err != nil {
		return fmt.Errorf("projecting embeddings: %w", err)
	}

	path := filepath.Join(p.cfg.ModelDir, fmt.Sprintf("embedding-2d_%s.csv", p.cfg.RunTag()))
	if err := report.WriteCSV(path, report.PointsTable(res.Points)); err != nil {
		return err
	}
	res.Files = append(res.Files, path)
	return nil
}

// assignLevels cuts the hierarchy into levels and tabulates a sample of
// documents against them.
func (p *Pipeline) assignLevels(res *Result, scale types.LevelScale) error {
	var err error
	if res.Levels, err = levels.Assign(res.Merges, res.Model.Assignments, scale, p.cfg.Levels); err != nil {
		return fmt.Errorf("assigning levels: %w", err)
	}
	for i, l := range res.Levels {
		p.log.Debug("level", "level", i+1, "cutoff", l.Cutoff,
			"clusters", len(l.Mapping.Representatives(res.Model.Assignments)))
	}

	indices := levels.Sample(res.Model.Assignments, p.cfg.SampleCap, p.cfg.Seed)
	res.LevelRows, err = levels.Table(indices, res.Corpus.Sentences(), res.Model.Assignments, res.Points, res.Levels)
	if err != nil {
		return fmt.Errorf("building level table: %w", err)
	}

	path := filepath.Join(p.cfg.ModelDir, fmt.Sprintf("levels_%s.csv", p.cfg.RunTag()))
	if err := report.WriteCSV(path, report.LevelsTable(res.LevelRows, len(res.Levels))); err != nil {
		return err
	}
	res.Files = append(res.Files, path)

	if res.Points != nil {
		path := filepath.Join(p.cfg.FiguresDir, fmt.Sprintf("topic_viz_%s.html", p.cfg.RunTag()))
		if err := report.WriteHTML(path, report.DocumentsPage(res.LevelRows, len(res.Levels), report.MergeLabels(res.Merges, res.Model))); err != nil {
			return err
		}
		res.Files = append(res.Files, path)
	}
	return nil
}

// plotTopTopics draws the most frequent topics over time as HTML and the
// top topics of each year as an annotated image.
func (p *Pipeline) plotTopTopics(res *Result) error {
	base := filepath.Join(p.cfg.FiguresDir, fmt.Sprintf("topics_over_time_%s", p.cfg.RunTag()))

	chart := report.TopicsOverTimeChart(res.TopicsOverTime, res.Model.Frequent(p.cfg.TopNTopics), res.Model)
	if err := report.WriteHTML(base+".html", chart); err != nil {
		return err
	}
	res.Files = append(res.Files, base+".html")

	if len(res.TopTopics) == 0 {
		p.log.Warn("no top topics to plot")
		return nil
	}
	if err := report.TimeSeriesPNG(base+".png", res.TopTopics, res.Model, p.cfg.AnnotationOffsets); err != nil {
		return err
	}
	res.Files = append(res.Files, base+".png")
	return nil
}

func (p *Pipeline) writeWorkbook(res *Result) error {
	tables := []report.Table{
		report.TopicYearTable("topics_over_time", res.TopicsOverTime),
		report.TopicYearTable("top_topics_over_time", res.TopTopics),
		report.SlopesTable(res.Slopes),
		report.MergesTable(res.Merges),
		report.LevelsTable(res.LevelRows, len(res.Levels)),
	}
	if res.Points != nil {
		tables = append(tables, report.PointsTable(res.Points))
	}
	if len(res.Model.RepDocs) > 0 {
		tables = append(tables, report.RepDocsTable(res.Model.RepDocs, res.Model))
	}

	path := filepath.Join(p.cfg.ModelDir, res.Model.Name+"_summary.xlsx")
	if err := report.WriteWorkbook(path, tables); err != nil {
		return err
	}
	res.Files = append(res.Files, path)
	return nil
}
