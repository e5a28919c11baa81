package wavsrc

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func encodeTestWAV(t *testing.T, rate, bitDepth int, samples []int) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := wav.NewEncoder(&buf, rate, bitDepth, 1, 1)
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(ib); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestOpenWAV(t *testing.T) {
	const rate = 44100
	full := math.Exp2(15)
	raw := []int{0, int(full / 2), int(-full / 2), int(full - 1)}
	data := encodeTestWAV(t, rate, 16, raw)

	src, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.SampleRate() != rate {
		t.Errorf("SampleRate() = %d, want %d", src.SampleRate(), rate)
	}
	if src.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", src.Channels())
	}

	var got []float64
	for {
		v, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, v)
	}
	if len(got) != len(raw) {
		t.Fatalf("got %d samples, want %d", len(got), len(raw))
	}
	for i, r := range raw {
		want := float64(r) / full
		if math.Abs(got[i]-want) > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want)
		}
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("not a wav or flac file"))
	if err == nil {
		t.Fatal("Open: want error for invalid input")
	}
}
