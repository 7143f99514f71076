package util

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot saves a line plot of ys against xs. The format is deduced from the
// extension of path (png, svg, pdf, ...).
func Plot(path, title, xlabel, ylabel string, xs, ys []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(l)

	err = p.Save(6*vg.Inch, 4*vg.Inch, path)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	return nil
}
