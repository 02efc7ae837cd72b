// Package report renders otsolve results: a TOML document on stdout and an
// optional PNG of the residual history.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"

	toml "github.com/pelletier/go-toml/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoHistory is returned by PlotHistory when no positive residual exists.
var ErrNoHistory = errors.New("report: no residual history to plot")

// Report is the TOML document printed after a solve.
type Report struct {
	Method     string      `toml:"method"`
	Precision  string      `toml:"precision"`
	Backend    string      `toml:"backend"`
	Cost       *float64    `toml:"cost,omitempty"`
	Status     string      `toml:"status,omitempty"`
	Iterations int         `toml:"iterations"`
	Residual   float64     `toml:"residual"`
	Converged  bool        `toml:"converged"`
	NNZ        int         `toml:"nnz,omitempty"`
	Plan       [][]float64 `toml:"plan,omitempty"`
	Barycenter []float64   `toml:"barycenter,omitempty"`
	History    []float64   `toml:"-"`
}

// Write encodes r as TOML. A +Inf residual (nothing observed) is written as 0.
func Write(w io.Writer, r Report) error {
	if math.IsInf(r.Residual, 0) || math.IsNaN(r.Residual) {
		r.Residual = 0
	}
	enc := toml.NewEncoder(w)
	enc.SetArraysMultiline(true)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return nil
}

// PlotHistory saves a log-scale residual-versus-iteration chart to path; the
// image format follows the file extension (png, svg, pdf).
func PlotHistory(path, title string, history []float64) error {
	pts := make(plotter.XYs, 0, len(history))
	for k, r := range history {
		if r > 0 && !math.IsInf(r, 0) {
			pts = append(pts, plotter.XY{X: float64(k + 1), Y: r})
		}
	}
	if len(pts) == 0 {
		return ErrNoHistory
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "residual"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("residual line: %w", err)
	}
	p.Add(line)
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}

	return nil
}
