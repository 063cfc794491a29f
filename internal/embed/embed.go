// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns documents into vectors and projects them onto a plane
// for plotting.
package embed

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/fmri-topics/internal/logging"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

// Embedder returns one vector per text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

const defaultBatchSize = 64

// All embeds texts in batches of batchSize, serving what it can from cache
// and storing what it computes. cache may be nil. Row i of the result is the
// vector of texts[i].
func All(ctx context.Context, e Embedder, cache *Cache, model string, texts []string, batchSize int, log *logging.Logger) (*mat.Dense, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts to embed")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if log == nil {
		log = logging.Nop()
	}

	vectors := make([][]float64, len(texts))
	var missing []int
	for i, t := range texts {
		if cache != nil {
			v, ok, err := cache.Get(model, t)
			if err != nil {
				return nil, err
			}
			if ok {
				vectors[i] = v
				continue
			}
		}
		missing = append(missing, i)
	}
	log.Info("embedding documents", "total", len(texts), "cached", len(texts)-len(missing))

	for start := 0; start < len(missing); start += batchSize {
		end := start + batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := make([]string, 0, end-start)
		for _, i := range missing[start:end] {
			batch = append(batch, texts[i])
		}

		out, err := e.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if len(out) != len(batch) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(out), len(batch))
		}
		for k, i := range missing[start:end] {
			vectors[i] = out[k]
		}
		if cache != nil {
			if err := cache.Put(model, batch, out); err != nil {
				return nil, err
			}
		}
		log.Debug("embedded batch", "done", end, "of", len(missing))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("embedder returned empty vectors")
	}
	m := mat.NewDense(len(vectors), dim, nil)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
		m.SetRow(i, v)
	}
	return m, nil
}

// Reduce projects the rows of x onto their two leading principal
// components. With a single feature the second coordinate is 0.
func Reduce(x mat.Matrix) ([]types.Point, error) {
	n, d := x.Dims()
	if n < 2 {
		return nil, fmt.Errorf("need at least two vectors to project, got %d", n)
	}

	centered := mat.DenseCopyOf(x)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, centered)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, col[i]-mean)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(centered, nil); !ok {
		return nil, errors.New("principal component analysis did not converge")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, kc := vecs.Dims()
	k := 2
	if kc < k {
		k = kc
	}

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, d, 0, k))

	points := make([]types.Point, n)
	for i := range points {
		points[i].X = proj.At(i, 0)
		if k > 1 {
			points[i].Y = proj.At(i, 1)
		}
	}
	return points, nil
}
