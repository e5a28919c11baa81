/*
NAME
  plot.go

DESCRIPTION
  plot.go renders a capture's FSK discriminant trace to a PNG, a
  standard debugging aid for tuning the demodulator against a noisy or
  unfamiliar capture.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/retrotape/tapefile"
)

func writeDiscriminantPlot(src tapefile.PCMSource, path string) error {
	trace, err := tapefile.DiscriminantTrace(src)
	if err != nil {
		return errors.Wrap(err, "computing discriminant trace")
	}

	pts := make(plotter.XYs, len(trace))
	for i, v := range trace {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	p := plot.New()
	p.Title.Text = "FSK discriminant"
	p.X.Label.Text = "symbol"
	p.Y.Label.Text = "discriminant"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "building plot line")
	}
	p.Add(line)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "saving plot")
	}
	return nil
}
