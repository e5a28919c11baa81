/*
NAME
  wavsrc.go

DESCRIPTION
  wavsrc.go provides a PCM frame source for the cassette decoder,
  reading either an uncompressed WAV digitization or a FLAC-compressed
  archive of one and exposing normalised channel-0 samples one frame at
  a time.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package wavsrc implements the WAV PCM reader described at the
// interface in spec.md §6: a RIFF/WAVE container with a 16-byte 'fmt '
// chunk, uncompressed PCM, any channel count and sample rate, and
// 8/16/24-bit samples. It also transparently accepts a FLAC-compressed
// digitization, since archived tape captures are commonly stored that
// way to save space.
package wavsrc

import (
	"bytes"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/pkg/errors"

	"github.com/ausocean/retrotape/audio/pcm"
)

const flacMagic = "fLaC"

// pcmChunk is the number of frames pulled from the decoder per read;
// it bounds memory use while decoding without affecting the result.
const pcmChunk = 4096

// Source is a decoded PCM frame source. Only channel 0 is exposed, per
// spec.md §6 ("any channel count ≥1, channel 0 used").
type Source struct {
	rate     int
	channels int
	samples  []float64 // channel-0 samples, normalised to [-1, 1].
	pos      int
}

// Open reads data (either a RIFF/WAVE or a FLAC container) and decodes
// it fully into a Source. Open returns an error if data is neither a
// valid WAV nor a valid FLAC stream, or carries a compressed PCM
// encoding other than the uncompressed format required by spec.md §6.
func Open(data []byte) (*Source, error) {
	if len(data) >= 4 && string(data[:4]) == flacMagic {
		return openFLAC(data)
	}
	return openWAV(data)
}

// SampleRate returns the source's sample rate in Hz.
func (s *Source) SampleRate() int { return s.rate }

// Channels returns the number of channels in the underlying container.
// Only channel 0 is exposed by Next.
func (s *Source) Channels() int { return s.channels }

// Len returns the total number of channel-0 frames available.
func (s *Source) Len() int { return len(s.samples) }

// Next returns the next channel-0 sample, normalised to [-1, 1], or
// io.EOF once all frames have been consumed.
func (s *Source) Next() (float64, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}
	v := s.samples[s.pos]
	s.pos++
	return v, nil
}

// Resample downsamples s in place to rate Hz, decimating and averaging.
// It must be called before the first Next, and rate must evenly divide
// the source's current sample rate. Resampling a capture made at a
// studio rate down to one closer to the FSK symbol clock reduces the
// work the demodulator and any subsequent BandPass must do.
func (s *Source) Resample(rate int) error {
	out, err := pcm.Resample(s.samples, s.rate, rate)
	if err != nil {
		return err
	}
	s.samples = out
	s.rate = rate
	return nil
}

// BandPass filters s in place to the frequency range [lowHz, highHz],
// using an FIR filter with the given tap count. It must be called
// before the first Next. Isolating the FSK tones from tape hiss and
// transport noise this way is a common pre-processing step for a worn
// or low-quality capture.
func (s *Source) BandPass(lowHz, highHz float64, taps int) error {
	out, err := pcm.BandPass(s.samples, float64(s.rate), lowHz, highHz, taps)
	if err != nil {
		return err
	}
	s.samples = out
	return nil
}

func openWAV(data []byte) (*Source, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("wavsrc: not a valid RIFF/WAVE PCM file")
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 1},
		Data:   make([]int, pcmChunk),
	}
	var samples []float64
	var rate, channels, bitDepth int
	for {
		n := len(buf.Data)
		err := dec.PCMBuffer(buf)
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "wavsrc: reading PCM")
		}
		if buf.Format != nil && rate == 0 {
			rate = buf.Format.SampleRate
			channels = buf.Format.NumChannels
			bitDepth = buf.SourceBitDepth
		}
		read := len(buf.Data)
		if read == 0 {
			break
		}
		if channels == 0 {
			channels = 1
		}
		full := math.Exp2(float64(bitDepth - 1))
		for i := 0; i < read; i += channels {
			samples = append(samples, float64(buf.Data[i])/full)
		}
		if read < n || err == io.EOF {
			break
		}
		buf.Data = buf.Data[:cap(buf.Data)]
	}
	if rate == 0 {
		return nil, errors.New("wavsrc: empty WAV file")
	}
	return &Source{rate: rate, channels: channels, samples: samples}, nil
}

func openFLAC(data []byte) (*Source, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "wavsrc: parsing FLAC")
	}
	rate := int(stream.Info.SampleRate)
	channels := int(stream.Info.NChannels)
	full := math.Exp2(float64(stream.Info.BitsPerSample - 1))

	var samples []float64
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "wavsrc: decoding FLAC frame")
		}
		sub := frame.Subframes[0].Samples
		for i := 0; i < frame.Subframes[0].NSamples; i++ {
			samples = append(samples, float64(sub[i])/full)
		}
	}
	return &Source{rate: rate, channels: channels, samples: samples}, nil
}
