/*
NAME
  pcm.go

DESCRIPTION
  pcm.go adapts the PCM resampling and FIR filtering routines used
  elsewhere in the AusOcean stack to the normalised float64 mono sample
  stream a wavsrc.Source exposes, so a noisy or off-rate cassette
  digitization can be cleaned up before it reaches the FSK demodulator.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pcm provides sample-rate conversion and FIR filtering for a
// normalised mono PCM stream.
package pcm

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"
)

// Resample downsamples samples, captured at fromRate Hz, to toRate Hz by
// decimate-and-average. fromRate must be an integer multiple of toRate;
// this covers the common case of a tape captured at a studio rate (e.g.
// 44100 or 48000 Hz) being brought down to a rate more convenient for
// FSK demodulation. Upsampling is not supported.
func Resample(samples []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return samples, nil
	}
	if fromRate <= 0 || toRate <= 0 {
		return nil, errors.Errorf("pcm: invalid rate %d -> %d", fromRate, toRate)
	}
	if fromRate%toRate != 0 {
		return nil, errors.Errorf("pcm: %d Hz is not an integer multiple of %d Hz", fromRate, toRate)
	}
	ratio := fromRate / toRate
	out := make([]float64, len(samples)/ratio)
	for i := range out {
		var sum float64
		for j := 0; j < ratio; j++ {
			sum += samples[i*ratio+j]
		}
		out[i] = sum / float64(ratio)
	}
	return out, nil
}

// BandPass applies a windowed-sinc FIR bandpass filter, computed via an
// FFT-based fast convolution, isolating the frequency range
// [lowHz, highHz] at the given sample rate. taps controls the filter's
// steepness; a tap count of a few hundred is typical for isolating the
// two tones of an FSK signal from tape hiss and wow/flutter artifacts.
func BandPass(samples []float64, rate, lowHz, highHz float64, taps int) ([]float64, error) {
	if lowHz <= 0 || highHz <= lowHz || highHz >= rate/2 {
		return nil, errors.Errorf("pcm: invalid band [%v, %v] for rate %v", lowHz, highHz, rate)
	}
	if taps <= 0 {
		return nil, errors.New("pcm: taps must be > 0")
	}
	hp, err := lowHighPass(lowHz, rate, taps, true)
	if err != nil {
		return nil, errors.Wrap(err, "pcm: building highpass half")
	}
	lp, err := lowHighPass(highHz, rate, taps, false)
	if err != nil {
		return nil, errors.Wrap(err, "pcm: building lowpass half")
	}
	coeffs, err := fastConvolve(hp, lp)
	if err != nil {
		return nil, errors.Wrap(err, "pcm: combining band filter")
	}
	out, err := fastConvolve(samples, coeffs)
	if err != nil {
		return nil, errors.Wrap(err, "pcm: applying band filter")
	}
	// fastConvolve returns the full linear convolution; trim the group
	// delay introduced by the filter kernel so the result stays aligned
	// with the input stream.
	delay := len(coeffs) / 2
	if delay > len(out) {
		delay = len(out)
	}
	end := delay + len(samples)
	if end > len(out) {
		end = len(out)
	}
	return out[delay:end], nil
}

// lowHighPass builds a windowed-sinc lowpass filter with cutoff fc Hz at
// the given sample rate, or its spectral-inversion highpass counterpart
// when high is true.
func lowHighPass(fc, rate float64, taps int, high bool) ([]float64, error) {
	if fc <= 0 || fc >= rate/2 {
		return nil, errors.Errorf("pcm: cutoff %v Hz out of range for rate %v Hz", fc, rate)
	}
	size := taps + 1
	fd := fc / rate
	coeffs := make([]float64, size)
	win := window.FlatTop(size)
	for n := 0; n < taps/2; n++ {
		c := float64(n) - float64(taps)/2
		y := math.Sin(2*math.Pi*fd*c) / (math.Pi * c)
		coeffs[n] = y * win[n]
		coeffs[size-1-n] = coeffs[n]
	}
	coeffs[taps/2] = 2 * fd * win[taps/2]
	if high {
		for i := range coeffs {
			coeffs[i] = -coeffs[i]
		}
		coeffs[taps/2] += 1
	}
	return coeffs, nil
}

// fastConvolve computes the linear convolution of x and h in the
// frequency domain, in O(n log n) time.
func fastConvolve(x, h []float64) ([]float64, error) {
	if len(x) == 0 || len(h) == 0 {
		return nil, errors.New("pcm: convolution requires non-empty inputs")
	}
	convLen := len(x) + len(h) - 1
	padLen := int(math.Pow(2, math.Ceil(math.Log2(float64(convLen)))))

	xp := make([]float64, padLen)
	copy(xp, x)
	hp := make([]float64, padLen)
	copy(hp, h)

	xFFT, hFFT := fft.FFTReal(xp), fft.FFTReal(hp)
	yFFT := make([]complex128, padLen)
	for i := range xFFT {
		yFFT[i] = xFFT[i] * hFFT[i]
	}
	y := fft.IFFT(yFFT)

	out := make([]float64, convLen)
	for i := range out {
		out[i] = real(y[i])
	}
	return out, nil
}
