/*
NAME
  decoder.go

DESCRIPTION
  decoder.go wires the PCM source, FSK demodulator, and serial framer
  into the block/file state machine, implementing the decoder data flow
  of spec.md §2: PCM frames → FSK demod → bits → framer → bytes →
  block SM → sink events.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package tapefile

import (
	"io"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/retrotape/audio/fsk"
)

// PCMSource is the minimal pull interface the decoder needs from a WAV
// (or FLAC) frame source: a sample rate and a per-frame Next.
type PCMSource interface {
	SampleRate() int
	Next() (float64, error)
}

// Decode drives src's samples through an FSK demodulator and into a
// fresh StateMachine reporting to sink, returning once src is
// exhausted. It is a pull-style pipeline: each sample is read, turned
// into a symbol, and handed to the state machine before the next
// sample is read, so the whole decode is wait-free and uses only the
// bounded buffers the demodulator and state machine themselves hold
// (spec.md §5).
func Decode(src PCMSource, sink Sink, log logging.Logger) error {
	demod := fsk.New(float64(src.SampleRate()))
	sm := New(sink, log)
	for {
		s, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		bit := demod.Process(s)
		if bit == fsk.NoBit {
			continue
		}
		v := 0
		if bit == fsk.One {
			v = 1
		}
		if err := sm.FeedBit(v); err != nil {
			return err
		}
	}
}

// DiscriminantTrace drives src's samples through an FSK demodulator
// exactly as Decode does, but instead of feeding a state machine it
// records the correlator discriminant at every symbol midpoint, where
// the demodulator emits a bit. It
// exists to support a diagnostic plot of a capture (cmd/tapedecode
// -plot) and performs no decoding.
func DiscriminantTrace(src PCMSource) ([]float64, error) {
	demod := fsk.New(float64(src.SampleRate()))
	var trace []float64
	for {
		s, err := src.Next()
		if err == io.EOF {
			return trace, nil
		}
		if err != nil {
			return nil, err
		}
		if bit := demod.Process(s); bit != fsk.NoBit {
			trace = append(trace, demod.Discriminant())
		}
	}
}
