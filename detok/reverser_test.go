/*
NAME
  reverser_test.go

DESCRIPTION
  reverser_test.go exercises the tokenized-BASIC line reversers against
  hand-built fixtures and the line-number codec's round-trip property.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package detok

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// 6502 token wire bytes used below; each is the token table index
// (tables.go) plus 0x80.
const (
	tok6502Print = 0x80 + 0x71 // 0xF1
	tok6502Goto  = 0x80 + 0x65 // 0xE5
)

// 68k token wire bytes used below.
const (
	tok68kPrint = 0x80 + 0x26 // 0xA6; distinct from the control-flow tok68kGoto etc. in tables.go
)

// line6502 builds one 6502 line record: hiLineNum, loLineNum, and a
// totalLen field computed from body's length, per decode6502.
func line6502(lineNum uint16, body []byte) []byte {
	totalLen := cfg6502.headerLen + len(body)
	rec := []byte{byte(lineNum >> 8), byte(lineNum), byte(totalLen)}
	return append(rec, body...)
}

// line68k builds one 68k line record: a big-endian totalLen, a
// big-endian lineNum, then body.
func line68k(lineNum uint16, body []byte) []byte {
	totalLen := cfg68k.headerLen + len(body)
	rec := []byte{byte(totalLen >> 8), byte(totalLen), byte(lineNum >> 8), byte(lineNum)}
	return append(rec, body...)
}

func TestDecode6502SimplePrintStatement(t *testing.T) {
	body := append([]byte{tok6502Print}, []byte(`"HI"`+"\x0D")...)
	var data []byte
	data = append(data, 0x0D) // stream preamble
	data = append(data, line6502(10, body)...)
	data = append(data, 0xFF) // end of stream

	got, err := Detokenize(Dialect6502, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "PRINT\"HI\"\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode6502WithLineNumbers(t *testing.T) {
	body := append([]byte{tok6502Print}, []byte(`"HI"`+"\x0D")...)
	var data []byte
	data = append(data, 0x0D)
	data = append(data, line6502(10, body)...)
	data = append(data, 0xFF)

	got, err := Detokenize(Dialect6502, data, true)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "   10 PRINT\"HI\"\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode6502EmbeddedLineNumberReference(t *testing.T) {
	b1, b2, b3 := encodeLineNumber6502(9524)
	// GOTO <line 9524>, terminated by 0x0D.
	body := []byte{tok6502Goto, 0x8D, b1, b2, b3, 0x0D}
	var data []byte
	data = append(data, 0x0D)
	data = append(data, line6502(20, body)...)
	data = append(data, 0xFF)

	got, err := Detokenize(Dialect6502, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "GOTO9524\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode6502MultipleLines(t *testing.T) {
	body1 := append([]byte{tok6502Print}, []byte(`"A"`+"\x0D")...)
	body2 := append([]byte{tok6502Print}, []byte(`"B"`+"\x0D")...)
	var data []byte
	data = append(data, 0x0D)
	data = append(data, line6502(10, body1)...)
	data = append(data, line6502(20, body2)...)
	data = append(data, 0xFF)

	got, err := Detokenize(Dialect6502, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "PRINT\"A\"\nPRINT\"B\"\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode6502MissingPreambleIsError(t *testing.T) {
	if _, err := Detokenize(Dialect6502, []byte{tok6502Print, 0x0D}, false); err == nil {
		t.Error("expected an error for a missing initial 0x0D byte")
	}
}

func TestDecode6502UnknownTokenIsEscaped(t *testing.T) {
	// 0xFF as a body byte falls outside the 6502 dialect's token range
	// (maxToken is 0xFE), so it always escapes.
	body := []byte{0xFF, 0x0D}
	var data []byte
	data = append(data, 0x0D)
	data = append(data, line6502(1, body)...)
	data = append(data, 0xFF)

	got, err := Detokenize(Dialect6502, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "`ff`\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode68kSimplePrintStatement(t *testing.T) {
	body := append([]byte{tok68kPrint}, []byte(`"HI"`+"\x0D")...)
	var data []byte
	data = append(data, line68k(10, body)...)
	data = append(data, 0x00, 0x00) // totalLen == 0: end of stream

	got, err := Detokenize(Dialect68k, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "PRINT\"HI\"\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestDecode68kCachedBranchTarget exercises the 0xFF cached
// branch-target token following GOTO: it must decode the two bytes at
// the next even offset as the referenced line number, then skip a
// total of five bytes past that alignment before resuming normal
// decoding (spec.md §4.6).
func TestDecode68kCachedBranchTarget(t *testing.T) {
	// body: GOTO, 0xFF (at an odd body offset so the post-token skip
	// lands back on an even absolute offset), line-number bytes 0x01 0x2C
	// (300), three reserved bytes and a filler byte (all consumed by the
	// skip), a '*', then the line terminator.
	body := []byte{tok68kGoto, 0xFF, 0x01, 0x2C, 0x00, 0x00, 0x00, 0x00, '*', 0x0D}
	var data []byte
	data = append(data, line68k(5, body)...)
	data = append(data, 0x00, 0x00)

	got, err := Detokenize(Dialect68k, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "GOTO300*\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestDecode68kUncachedBranchTarget checks that a 0xFF token not
// preceded by one of the five control-flow tokens that reference a
// line emits no digits, since its two payload bytes aren't a line
// number in that context.
func TestDecode68kUncachedBranchTarget(t *testing.T) {
	body := []byte{tok68kPrint, 0xFF, 0x01, 0x2C, 0x00, 0x00, 0x00, 0x00, '*', 0x0D}
	var data []byte
	data = append(data, line68k(5, body)...)
	data = append(data, 0x00, 0x00)

	got, err := Detokenize(Dialect68k, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "PRINT*\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode68kReservedTokensAreEscaped(t *testing.T) {
	// The terminating 0x0D is placed at an odd body offset (index 3) so
	// it lands on the alignment the end-of-line check requires.
	body := []byte{0xFD, 0xFE, '*', 0x0D}
	var data []byte
	data = append(data, line68k(1, body)...)
	data = append(data, 0x00, 0x00)

	got, err := Detokenize(Dialect68k, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	want := "`fd``fe`*\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLineNumber6502RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 10, 9524, 10000, 32767, 32768, 65279}
	for _, lnm := range cases {
		b1, b2, b3 := encodeLineNumber6502(lnm)
		got := decodeLineNumber6502(b1, b2, b3)
		if got != lnm {
			t.Errorf("round trip of %d: got %d", lnm, got)
		}
	}
}

func TestLineNumber6502RoundTripExhaustive(t *testing.T) {
	for lnm := uint32(0); lnm < 1<<16; lnm += 257 {
		b1, b2, b3 := encodeLineNumber6502(lnm)
		if got := decodeLineNumber6502(b1, b2, b3); got != lnm {
			t.Fatalf("round trip of %d: got %d", lnm, got)
		}
	}
}

func TestDetokenizeUnknownDialectIsError(t *testing.T) {
	if _, err := Detokenize(Dialect(99), nil, false); err == nil {
		t.Error("expected an error for an unknown dialect")
	}
}

func TestDialectString(t *testing.T) {
	cases := map[Dialect]string{Dialect6502: "6502", Dialect68k: "68k", Dialect(7): "unknown"}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Errorf("Dialect(%d).String() = %q, want %q", d, got, want)
		}
	}
}

func TestDecode68kTruncatedStreamIsError(t *testing.T) {
	if _, err := Detokenize(Dialect68k, []byte{0x00, 0x06, 0x00}, false); err == nil {
		t.Error("expected an error for a truncated 68k line")
	}
}

func TestIdempotentOnPlainText(t *testing.T) {
	// A line with no tokens at all, just printable characters and the
	// terminating 0x0D, must reverse to the same text verbatim.
	body := []byte("HELLO WORLD\x0D")
	var data []byte
	data = append(data, 0x0D)
	data = append(data, line6502(1, body)...)
	data = append(data, 0xFF)

	got, err := Detokenize(Dialect6502, data, false)
	if err != nil {
		t.Fatalf("Detokenize: %v", err)
	}
	if diff := cmp.Diff("HELLO WORLD\n", string(got)); diff != "" {
		t.Errorf("Detokenize() mismatch (-want +got):\n%s", diff)
	}
}
