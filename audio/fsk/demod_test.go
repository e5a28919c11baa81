package fsk

import (
	"math"
	"testing"
)

// synthesize returns continuous-phase-FSK PCM samples at sampleRate Hz
// for the given bit sequence, one full symbol period per bit.
func synthesize(bits []int, sampleRate float64) []float64 {
	t := int(math.Ceil(sampleRate / F0))
	var out []float64
	phase := 0.0
	for _, b := range bits {
		f := F0
		if b == 1 {
			f = F1
		}
		step := 2 * math.Pi * f / sampleRate
		for i := 0; i < t; i++ {
			out = append(out, math.Cos(phase))
			phase += step
		}
	}
	return out
}

func runDemod(samples []float64, sampleRate float64) []Bit {
	d := New(sampleRate)
	var out []Bit
	for _, s := range samples {
		if b := d.Process(s); b != NoBit {
			out = append(out, b)
		}
	}
	return out
}

func TestDemodulatesLeaderOfOnes(t *testing.T) {
	const rate = 44100.0
	bits := make([]int, 60)
	for i := range bits {
		bits[i] = 1
	}
	got := runDemod(synthesize(bits, rate), rate)
	if len(got) < len(bits)/2 {
		t.Fatalf("recovered only %d symbols from %d bits of leader", len(got), len(bits))
	}
	// Allow the first couple of recovered symbols to be unsettled while
	// the phase accumulator resyncs, but the rest must read back as 1.
	ones := 0
	for _, b := range got[2:] {
		if b == One {
			ones++
		}
	}
	if total := len(got) - 2; ones < total*9/10 {
		t.Errorf("only %d/%d recovered symbols were One", ones, total)
	}
}

func TestDemodulatesRunOfZeros(t *testing.T) {
	const rate = 44100.0
	// Lead with ones so the resync edge detector (1→0 transition) has
	// something to lock onto before the run of zeros begins.
	bits := make([]int, 20)
	for i := range bits {
		bits[i] = 1
	}
	for i := 0; i < 40; i++ {
		bits = append(bits, 0)
	}
	got := runDemod(synthesize(bits, rate), rate)
	zeros := 0
	tail := got[len(got)-20:]
	for _, b := range tail {
		if b == Zero {
			zeros++
		}
	}
	if zeros < len(tail)*9/10 {
		t.Errorf("only %d/%d of the tail symbols were Zero", zeros, len(tail))
	}
}

func TestSymbolPeriod(t *testing.T) {
	d := New(44100)
	want := int(math.Ceil(44100.0 / F0))
	if d.SymbolPeriod() != want {
		t.Errorf("SymbolPeriod() = %d, want %d", d.SymbolPeriod(), want)
	}
}

func TestNoBitDuringWarmup(t *testing.T) {
	d := New(44100)
	for i := 0; i < d.SymbolPeriod()-1; i++ {
		if b := d.Process(0); b != NoBit {
			t.Fatalf("sample %d: got %v, want NoBit before history fills", i, b)
		}
	}
}
