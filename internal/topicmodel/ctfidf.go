// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topicmodel

import (
	"errors"
	"math"
	"sort"

	"github.com/e-gun/nlp"
	"gonum.org/v1/gonum/mat"
)

var errEmptyVocabulary = errors.New("no terms left after stop word removal")

// classTFIDF weighs terms by class: all documents of one class are joined
// into a single class document. The weight of term t in class c is the
// term's share of c's words times log(1 + A/f_t), where A is the average
// number of words per class and f_t the frequency of t across all classes.
type classTFIDF struct {
	vectoriser *nlp.CountVectoriser
	vocab      []string
	idf        []float64

	// counts and weights are classes x terms.
	counts  *mat.Dense
	weights *mat.Dense
}

func fitClassTFIDF(classDocs []string) (*classTFIDF, error) {
	if len(classDocs) == 0 {
		return nil, errors.New("no classes to weigh")
	}
	v := nlp.NewCountVectoriser(stopWords...)
	termsByDoc, err := v.FitTransform(classDocs...)
	if err != nil {
		return nil, err
	}
	if len(v.Vocabulary) == 0 {
		return nil, errEmptyVocabulary
	}

	c := &classTFIDF{vectoriser: v, vocab: make([]string, len(v.Vocabulary))}
	for term, i := range v.Vocabulary {
		c.vocab[i] = term
	}
	c.counts = transposeToDense(termsByDoc)

	rows, cols := c.counts.Dims()
	freq := make([]float64, cols)
	total := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := c.counts.At(i, j)
			freq[j] += v
			total += v
		}
	}
	avg := total / float64(rows)
	c.idf = make([]float64, cols)
	for j, f := range freq {
		if f > 0 {
			c.idf[j] = math.Log(1 + avg/f)
		}
	}
	c.weights = c.weigh(c.counts)
	return c, nil
}

// countsFor vectorises docs against the fitted vocabulary.
func (c *classTFIDF) countsFor(docs []string) (*mat.Dense, error) {
	termsByDoc, err := c.vectoriser.Transform(docs...)
	if err != nil {
		return nil, err
	}
	return transposeToDense(termsByDoc), nil
}

// weigh turns raw class counts into c-TF-IDF weights.
func (c *classTFIDF) weigh(counts *mat.Dense) *mat.Dense {
	rows, cols := counts.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := counts.RawRowView(i)
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for j, v := range row {
			if v != 0 {
				out.Set(i, j, v/sum*c.idf[j])
			}
		}
	}
	return out
}

// topWords returns up to n terms with the highest positive weight.
func (c *classTFIDF) topWords(weights []float64, n int) []string {
	idx := make([]int, 0, len(weights))
	for j, w := range weights {
		if w > 0 {
			idx = append(idx, j)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return weights[idx[a]] > weights[idx[b]] })
	if len(idx) > n {
		idx = idx[:n]
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = c.vocab[j]
	}
	return out
}

// nonZeroDoer is implemented by the sparse matrices the vectoriser returns.
type nonZeroDoer interface {
	DoNonZero(func(i, j int, v float64))
}

// transposeToDense converts a terms x docs matrix to docs x terms.
func transposeToDense(m mat.Matrix) *mat.Dense {
	terms, docs := m.Dims()
	out := mat.NewDense(docs, terms, nil)
	if nz, ok := m.(nonZeroDoer); ok {
		nz.DoNonZero(func(i, j int, v float64) { out.Set(j, i, v) })
		return out
	}
	for i := 0; i < terms; i++ {
		for j := 0; j < docs; j++ {
			if v := m.At(i, j); v != 0 {
				out.Set(j, i, v)
			}
		}
	}
	return out
}

// cosineDistances returns 1 - cosine similarity between the rows of w.
// A zero row is at distance 1 from every other row.
func cosineDistances(w *mat.Dense) *mat.SymDense {
	n, _ := w.Dims()
	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		norms[i] = mat.Norm(w.RowView(i), 2)
	}
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := 1.0
			if norms[i] > 0 && norms[j] > 0 {
				d = 1 - mat.Dot(w.RowView(i), w.RowView(j))/(norms[i]*norms[j])
			}
			if d < 0 {
				d = 0
			}
			out.SetSym(i, j, d)
		}
	}
	return out
}
