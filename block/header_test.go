package block

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fullHeader() BlockHeader {
	return BlockHeader{
		Name:      "PROGRAM",
		LoadAddr:  0x8000,
		ExecAddr:  0x8010,
		BlockNum:  0,
		BlockLen:  256,
		BlockFlag: 0,
		NextFile:  0x1234,
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		h    BlockHeader
		data []byte
	}{
		{"full block", fullHeader(), make([]byte, 256)},
		{"final block", func() BlockHeader { h := fullHeader(); h.BlockFlag = FlagFinal; h.BlockLen = 12; return h }(), []byte("hello, world")},
		{"empty final", func() BlockHeader { h := fullHeader(); h.BlockFlag = FlagFinal | FlagEmpty; h.BlockLen = 0; return h }(), nil},
		{"locked", func() BlockHeader { h := fullHeader(); h.BlockFlag = FlagFinal | FlagLocked; h.BlockLen = 1; return h }(), []byte{0x42}},
		{"min name", func() BlockHeader { h := fullHeader(); h.Name = "A"; h.BlockFlag = FlagFinal | FlagEmpty; h.BlockLen = 0; return h }(), nil},
		{"max name", func() BlockHeader { h := fullHeader(); h.Name = "0123456789"; h.BlockFlag = FlagFinal | FlagEmpty; h.BlockLen = 0; return h }(), nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			enc, err := Encode(c.h, true)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			crc := DataCRC(c.data)
			buf := append(append([]byte{}, enc...), c.data...)
			buf = append(buf, byte(crc>>8), byte(crc))

			got, payload, errs, err := DecodeFull(buf, nil)
			if err != nil {
				t.Fatalf("DecodeFull: %v", err)
			}
			if errs != 0 {
				t.Errorf("errs = %v, want 0", errs)
			}
			if diff := cmp.Diff(c.h.Name, got.Name); diff != "" {
				t.Errorf("Name mismatch (-want +got):\n%s", diff)
			}
			if got.LoadAddr != c.h.LoadAddr || got.ExecAddr != c.h.ExecAddr || got.BlockNum != c.h.BlockNum ||
				got.BlockLen != c.h.BlockLen || got.BlockFlag != c.h.BlockFlag || got.NextFile != c.h.NextFile {
				t.Errorf("header mismatch: got %+v, want %+v", got, c.h)
			}
			if diff := cmp.Diff(c.data, payload); diff != "" && len(c.data) != 0 {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeHeaderFlagRules(t *testing.T) {
	cases := []struct {
		name string
		h    BlockHeader
		want ErrorBits
	}{
		{"empty with data", BlockHeader{Name: "X", BlockFlag: FlagEmpty, BlockLen: 5}, InvalidLength},
		{"non-final short", BlockHeader{Name: "X", BlockFlag: 0, BlockLen: 100}, InvalidLength},
		{"unknown flag bit", BlockHeader{Name: "X", BlockFlag: 0x10, BlockLen: 256}, InvalidFlag},
		{"valid full", BlockHeader{Name: "X", BlockFlag: 0, BlockLen: 256}, 0},
		{"valid final empty", BlockHeader{Name: "X", BlockFlag: FlagFinal | FlagEmpty, BlockLen: 0}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			enc, err := Encode(c.h, true)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			_, errs, err := DecodeHeader(enc[1:], nil)
			if err != nil {
				t.Fatalf("DecodeHeader: %v", err)
			}
			if errs&c.want != c.want {
				t.Errorf("errs = %v, want bit %v set", errs, c.want)
			}
			if c.want == 0 && errs != 0 {
				t.Errorf("errs = %v, want 0", errs)
			}
		})
	}
}

func TestDecodeHeaderSequencing(t *testing.T) {
	mk := func(name string, n uint16) BlockHeader {
		return BlockHeader{Name: name, BlockNum: n, BlockFlag: FlagFinal | FlagEmpty, BlockLen: 0}
	}
	encOf := func(h BlockHeader) []byte {
		enc, err := Encode(h, true)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		return enc
	}

	t.Run("no prev, blockNum 0 is fine", func(t *testing.T) {
		_, errs, _ := DecodeHeader(encOf(mk("A", 0))[1:], nil)
		if errs&SkippedBlock != 0 {
			t.Errorf("errs = %v, did not want SkippedBlock", errs)
		}
	})
	t.Run("no prev, blockNum > 0 is skipped", func(t *testing.T) {
		_, errs, _ := DecodeHeader(encOf(mk("A", 1))[1:], nil)
		if errs&SkippedBlock == 0 {
			t.Errorf("errs = %v, want SkippedBlock", errs)
		}
	})
	t.Run("name mismatch is unexpected", func(t *testing.T) {
		prev := mk("A", 0)
		_, errs, _ := DecodeHeader(encOf(mk("B", 0))[1:], &prev)
		if errs&UnexpectedBlock == 0 {
			t.Errorf("errs = %v, want UnexpectedBlock", errs)
		}
	})
	t.Run("repeat block number", func(t *testing.T) {
		prev := mk("A", 3)
		_, errs, _ := DecodeHeader(encOf(mk("A", 3))[1:], &prev)
		if errs&RepeatBlock == 0 {
			t.Errorf("errs = %v, want RepeatBlock", errs)
		}
	})
	t.Run("skipped block number", func(t *testing.T) {
		prev := mk("A", 3)
		_, errs, _ := DecodeHeader(encOf(mk("A", 5))[1:], &prev)
		if errs&SkippedBlock == 0 {
			t.Errorf("errs = %v, want SkippedBlock", errs)
		}
	})
	t.Run("consecutive block is fine", func(t *testing.T) {
		prev := mk("A", 3)
		_, errs, _ := DecodeHeader(encOf(mk("A", 4))[1:], &prev)
		if errs&(SkippedBlock|RepeatBlock|UnexpectedBlock) != 0 {
			t.Errorf("errs = %v, want no sequencing errors", errs)
		}
	})
}
