// Package rarefaction parses rarefaction tables produced by the external
// curve-computation tool and renders per-sample accumulation curves.
package rarefaction

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// depthColumn labels the subsampling-depth column of the table.
const depthColumn = "richness"

// Curves holds detected OTU richness per sample across subsampling depths.
type Curves struct {
	// Depths are the subsampled read depths, in table order.
	Depths []float64
	// Richness maps a sample id to its per-depth OTU counts, aligned
	// with Depths.
	Richness map[string][]float64
}

// Samples returns the sample ids present in the table.
func (c *Curves) Samples() []string {
	ids := make([]string, 0, len(c.Richness))
	for id := range c.Richness {
		ids = append(ids, id)
	}
	return ids
}

// Read parses a tab-separated rarefaction table: a header row with the
// depth column followed by sample ids, then one row per depth.
func Read(r io.Reader) (*Curves, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read rarefaction table: %w", err)
		}
		return nil, fmt.Errorf("rarefaction table is empty")
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")

	depthCol := -1
	for i, col := range header {
		if col == depthColumn {
			depthCol = i
			break
		}
	}
	if depthCol < 0 {
		return nil, fmt.Errorf("rarefaction table has no %q column", depthColumn)
	}

	c := &Curves{Richness: make(map[string][]float64)}
	for i, col := range header {
		if i != depthCol {
			c.Richness[col] = nil
		}
	}

	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNo, len(header), len(fields))
		}
		for i, cell := range fields {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q in column %s", lineNo, cell, header[i])
			}
			if i == depthCol {
				c.Depths = append(c.Depths, v)
			} else {
				c.Richness[header[i]] = append(c.Richness[header[i]], v)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rarefaction table: %w", err)
	}
	return c, nil
}

// Plot renders one accumulation curve per requested sample and saves the
// figure to outPath (format chosen by extension, .pdf for pipeline runs).
// Samples absent from the table are reported back so the caller can warn
// and continue.
func Plot(c *Curves, samples []string, outPath string) (missing []string, err error) {
	p := plot.New()
	p.Title.Text = "Rarefaction curve"
	p.X.Label.Text = "Depth"
	p.Y.Label.Text = "OTUs"
	p.Y.Min = 0
	p.Legend.Top = true
	p.Legend.Left = true

	plotted := 0
	for _, id := range samples {
		series, ok := c.Richness[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		pts := make(plotter.XYs, len(series))
		for i, v := range series {
			pts[i] = plotter.XY{X: c.Depths[i], Y: v}
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return missing, err
		}
		line.Color = plotutil.Color(plotted)
		points.Color = plotutil.Color(plotted)
		points.Shape = plotutil.Shape(plotted)
		p.Add(line, points)
		p.Legend.Add(id, line, points)
		plotted++
	}
	if plotted == 0 {
		return missing, fmt.Errorf("no samples with rarefaction data to plot")
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return missing, fmt.Errorf("failed to save rarefaction plot: %w", err)
	}
	return missing, nil
}
