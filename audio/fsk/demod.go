/*
NAME
  demod.go

DESCRIPTION
  demod.go implements the two-tone continuous-phase FSK demodulator that
  turns a stream of PCM samples into a ternary bit stream synchronised
  to the tape's own symbol clock.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fsk implements the FSK demodulator from spec.md §4.3: a
// noncoherent correlator that tracks the tape's own symbol clock,
// robust to the wow and flutter of a mechanical tape transport.
package fsk

import (
	"math"

	"github.com/mjibson/go-dsp/window"
)

// Bit is the ternary symbol the demodulator emits for each input sample.
type Bit int

const (
	NoBit Bit = iota
	Zero
	One
)

// F0 and F1 are the two FSK tones of the 1200/2400 Hz standard this
// system supports (spec.md §1 Non-goals excludes other tape standards).
const (
	F0 = 16_000_000.0 / 13_312.0 // ≈ 1201.9 Hz, one full cycle per 0 bit.
	F1 = 2 * F0                  // ≈ 2403.8 Hz, two cycles per 1 bit.
)

// Demodulator holds the state of one FSK correlator: the reference
// templates, the sample history, and the symbol-clock phase
// accumulator. A Demodulator owns all of its buffers exclusively and
// is safe to reuse across an entire capture but not across goroutines.
type Demodulator struct {
	delta float64 // Δ = 2π·F1/Fs, the per-sample phase increment.
	t     int     // symbol period in samples, ceil(Fs/F0).

	i0, q0, i1, q1 []float64 // correlator reference templates, length t.
	hist           []float64 // sliding sample history, length t, hist[0] most recent.
	seen           int       // number of samples fed so far, saturating at t.

	phi   float64
	prevY float64
	haveY bool
}

// New returns a Demodulator for a PCM stream sampled at sampleRate Hz.
// The reference templates are tapered with a flat-top window (the same
// taper the teacher codebase uses for its FIR filters) to reduce the
// spectral leakage that tape wow and flutter would otherwise smear into
// the correlator's energy estimate.
func New(sampleRate float64) *Demodulator {
	t := int(math.Ceil(sampleRate / F0))
	delta := 2 * math.Pi * F1 / sampleRate

	win := window.FlatTop(t)
	d := &Demodulator{
		delta: delta,
		t:     t,
		i0:    make([]float64, t),
		q0:    make([]float64, t),
		i1:    make([]float64, t),
		q1:    make([]float64, t),
		hist:  make([]float64, t),
	}
	for i := 0; i < t; i++ {
		d.i0[i] = math.Cos(float64(i)*delta/2) * win[i]
		d.q0[i] = math.Sin(float64(i)*delta/2) * win[i]
		d.i1[i] = math.Cos(float64(i)*delta) * win[i]
		d.q1[i] = math.Sin(float64(i)*delta) * win[i]
	}
	return d
}

// SymbolPeriod returns the number of PCM samples in one symbol, T.
func (d *Demodulator) SymbolPeriod() int { return d.t }

// Process consumes one PCM sample and returns the demodulated symbol:
// NoBit between symbol boundaries, or Zero/One at the midpoint of each
// recovered symbol.
func (d *Demodulator) Process(s float64) Bit {
	copy(d.hist[1:], d.hist[:len(d.hist)-1])
	d.hist[0] = s

	var i0, q0, i1, q1 float64
	for i := range d.hist {
		h := d.hist[i]
		i0 += h * d.i0[i]
		q0 += h * d.q0[i]
		i1 += h * d.i1[i]
		q1 += h * d.q1[i]
	}
	y := i1*i1 + q1*q1 - (i0*i0 + q0*q0)

	if d.seen < d.t {
		d.seen++
		d.prevY = y
		d.haveY = true
		return NoBit
	}

	if d.haveY && d.prevY > 0 && y < 0 {
		d.phi = 0
	}
	d.prevY = y
	d.haveY = true

	d.phi += d.delta
	if d.phi < 2*math.Pi {
		return NoBit
	}
	d.phi -= 4 * math.Pi
	if y >= 0 {
		return One
	}
	return Zero
}

// Discriminant returns the most recent correlator discriminant y,
// useful for diagnostic plotting of a capture.
func (d *Demodulator) Discriminant() float64 { return d.prevY }
