// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

// DefaultAnnotationOffsets nudges labels that would otherwise overlap at
// the final year. Values are in probability units.
var DefaultAnnotationOffsets = map[int]float64{
	1:  -0.0015,
	0:  0.002,
	2:  -0.002,
	13: 0.0025,
	7:  -0.002,
	5:  0.001,
	19: -0.002,
}

const (
	pngWidth    = 1000
	pngHeight   = 500
	marginLeft  = 70.0
	marginRight = 300.0
	marginTop   = 30.0
	marginBot   = 50.0
	labelGap    = 20.0
)

// palette is a colour-blind safe qualitative scheme.
var palette = []color.RGBA{
	{0x00, 0x72, 0xB2, 0xff},
	{0xE6, 0x9F, 0x00, 0xff},
	{0x00, 0x9E, 0x73, 0xff},
	{0xCC, 0x79, 0xA7, 0xff},
	{0x56, 0xB4, 0xE9, 0xff},
	{0xD5, 0x5E, 0x00, 0xff},
	{0xF0, 0xE4, 0x42, 0xff},
	{0x00, 0x00, 0x00, 0xff},
}

type series struct {
	topic  int
	name   string
	points map[int]float64
}

// TimeSeriesPNG draws the probability of each topic in rows by year, one
// line per topic, and labels the lines that reach the final year. The label of a
// topic is shifted vertically by offsets[topic]; a connector joins the
// shifted label to the end of its line.
func TimeSeriesPNG(path string, rows []types.TopicYear, labels Labeler, offsets map[int]float64) error {
	if len(rows) == 0 {
		return errors.New("no rows to plot")
	}

	byTopic := make(map[int]*series)
	var order []int
	minYear, maxYear := rows[0].Year(), rows[0].Year()
	maxP := 0.0
	for _, r := range rows {
		s, ok := byTopic[r.Topic]
		if !ok {
			name := r.Name
			if name == "" && labels != nil {
				name = labels.Label(r.Topic)
			}
			s = &series{topic: r.Topic, name: name, points: make(map[int]float64)}
			byTopic[r.Topic] = s
			order = append(order, r.Topic)
		}
		s.points[r.Year()] = r.Probability
		if r.Year() < minYear {
			minYear = r.Year()
		}
		if r.Year() > maxYear {
			maxYear = r.Year()
		}
		if r.Probability > maxP {
			maxP = r.Probability
		}
	}
	headroom := 0.0
	for _, off := range offsets {
		if off > headroom {
			headroom = off
		}
	}
	maxP += headroom
	if maxP == 0 {
		maxP = 1
	}
	maxP *= 1.05

	plotW := pngWidth - marginLeft - marginRight
	plotH := pngHeight - marginTop - marginBot
	xOf := func(year int) float64 {
		if maxYear == minYear {
			return marginLeft + plotW/2
		}
		return marginLeft + plotW*float64(year-minYear)/float64(maxYear-minYear)
	}
	yOf := func(p float64) float64 {
		return marginTop + plotH*(1-p/maxP)
	}

	dc := gg.NewContext(pngWidth, pngHeight)
	dc.SetColor(color.White)
	dc.Clear()
	face, err := labelFace(12)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	drawAxes(dc, minYear, maxYear, maxP, xOf, yOf)

	for i, t := range order {
		s := byTopic[t]
		c := palette[i%len(palette)]
		dc.SetColor(c)
		dc.SetLineWidth(2)

		years := make([]int, 0, len(s.points))
		for y := range s.points {
			years = append(years, y)
		}
		sort.Ints(years)
		for k, y := range years {
			if k == 0 {
				dc.MoveTo(xOf(y), yOf(s.points[y]))
			} else {
				dc.LineTo(xOf(y), yOf(s.points[y]))
			}
		}
		dc.Stroke()

		last := years[len(years)-1]
		if last != maxYear {
			continue
		}
		endX, endY := xOf(last), yOf(s.points[last])
		labelX := xOf(maxYear) + labelGap
		labelY := yOf(s.points[last] + offsets[t])

		dc.SetLineWidth(0.75)
		dc.DrawLine(endX, endY, labelX-4, labelY)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%d: %s", t, s.name), labelX, labelY, 0, 0.35)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func drawAxes(dc *gg.Context, minYear, maxYear int, maxP float64, xOf func(int) float64, yOf func(float64) float64) {
	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	dc.DrawLine(marginLeft, yOf(0), xOf(maxYear), yOf(0))
	dc.DrawLine(marginLeft, yOf(0), marginLeft, yOf(maxP))
	dc.Stroke()

	step := 1
	if span := maxYear - minYear; span > 12 {
		step = (span + 11) / 12
	}
	for y := minYear; y <= maxYear; y += step {
		x := xOf(y)
		dc.DrawLine(x, yOf(0), x, yOf(0)+4)
		dc.Stroke()
		dc.DrawStringAnchored(strconv.Itoa(y), x, yOf(0)+16, 0.5, 0.5)
	}

	const ticks = 5
	for i := 0; i <= ticks; i++ {
		p := maxP * float64(i) / ticks
		y := yOf(p)
		dc.DrawLine(marginLeft-4, y, marginLeft, y)
		dc.Stroke()
		dc.DrawStringAnchored(strconv.FormatFloat(p, 'f', 3, 64), marginLeft-8, y, 1, 0.35)
	}
	dc.DrawStringAnchored("Year", marginLeft+(xOf(maxYear)-marginLeft)/2, pngHeight-12, 0.5, 0.5)
	dc.DrawStringAnchored("Proportion of abstracts", 12, marginTop-14, 0, 0.5)
}

func labelFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing label font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingNone}), nil
}
