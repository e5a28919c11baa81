/*
NAME
  reverser.go

DESCRIPTION
  reverser.go walks a tokenized-BASIC program, line by line, rewriting
  each line's tokens and embedded line-number references back to text
  (spec.md §4.6).

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
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// dialectConfig captures the per-dialect constants that dictate how a
// line body is walked: where the body starts within the line record,
// the alignment applied to the line-ending 0x0D, the highest byte the
// token table covers, and whether the 68k-specific token handling
// (0xFD, 0xFE, 0xFF) applies.
type dialectConfig struct {
	headerLen int
	align     int
	maxToken  byte
	is68k     bool
	tokens    *[128]string
}

var cfg6502 = dialectConfig{headerLen: 3, align: 1, maxToken: 0xFE, tokens: &token6502}
var cfg68k = dialectConfig{headerLen: 4, align: 2, maxToken: 0xFC, is68k: true, tokens: &token68k}

// Detokenize reverses data, a stream of tokenized-BASIC line records in
// the given dialect, into plain text. If lineNumbers is set, each
// output line is prefixed with its decimal line number, right-aligned
// to a width of five digits followed by a space.
func Detokenize(d Dialect, data []byte, lineNumbers bool) ([]byte, error) {
	switch d {
	case Dialect6502:
		return decode6502(data, lineNumbers)
	case Dialect68k:
		return decode68k(data, lineNumbers)
	default:
		return nil, errors.Errorf("detok: unknown dialect %v", d)
	}
}

// decode6502 walks a 6502-dialect stream: a mandatory leading 0x0D
// byte, then line records of hiLineNum(1), loLineNum(1), totalLen(1),
// body[totalLen-3], terminated by a lone trailing 0xFF byte.
func decode6502(data []byte, lineNumbers bool) ([]byte, error) {
	if len(data) == 0 || data[0] != 0x0D {
		return nil, errors.New("detok: 6502 stream missing initial 0x0D byte")
	}
	var out bytes.Buffer
	ioff := 1
	for ioff < len(data) {
		remain := len(data) - ioff
		if remain == 1 {
			if data[ioff] == 0xFF {
				break
			}
			return nil, errors.Errorf("detok: truncated line at offset 0x%04x", ioff)
		}
		if remain < cfg6502.headerLen+1 {
			return nil, errors.Errorf("detok: truncated line at offset 0x%04x", ioff)
		}
		b0, b1, totalLen := data[ioff], data[ioff+1], int(data[ioff+2])
		if b0 == 0xFF {
			return nil, errors.Errorf("detok: unexpected end-of-file marker at offset 0x%04x", ioff)
		}
		if totalLen < cfg6502.headerLen || ioff+totalLen > len(data) {
			return nil, errors.Errorf("detok: truncated line at offset 0x%04x", ioff)
		}
		if lineNumbers {
			lineNum := uint32(b0)<<8 | uint32(b1)
			fmt.Fprintf(&out, "%5d ", lineNum)
		}
		writeLineBody(&out, cfg6502, data[ioff:ioff+totalLen])
		ioff += totalLen
	}
	return out.Bytes(), nil
}

// decode68k walks a 68k-dialect stream: line records of totalLen(2,
// big-endian), lineNum(2, big-endian), body[totalLen-4]; a totalLen of
// zero marks end of stream.
func decode68k(data []byte, lineNumbers bool) ([]byte, error) {
	var out bytes.Buffer
	ioff := 0
	for ioff < len(data) {
		remain := len(data) - ioff
		if remain < 2 {
			return nil, errors.Errorf("detok: truncated line at offset 0x%04x", ioff)
		}
		totalLen := int(data[ioff])<<8 | int(data[ioff+1])
		if totalLen == 0 {
			break
		}
		if remain < cfg68k.headerLen+2 {
			return nil, errors.Errorf("detok: truncated line at offset 0x%04x", ioff)
		}
		if totalLen < cfg68k.headerLen || ioff+totalLen > len(data) {
			return nil, errors.Errorf("detok: truncated line at offset 0x%04x", ioff)
		}
		if lineNumbers {
			lineNum := uint32(data[ioff+2])<<8 | uint32(data[ioff+3])
			fmt.Fprintf(&out, "%5d ", lineNum)
		}
		writeLineBody(&out, cfg68k, data[ioff:ioff+totalLen])
		ioff += totalLen
	}
	return out.Bytes(), nil
}

// alignRound returns the smallest multiple of align (a power of two)
// strictly greater than x: the aligned end of a line whose terminating
// 0x0D sits at offset x.
func alignRound(x, align int) int {
	return (x + align) &^ (align - 1)
}

// writeLineBody reverses one line record's body (line[cfg.headerLen:])
// into text, appending it to buf. It tracks the most recently emitted
// token so a following 68k cached branch-target byte (0xFF) knows
// whether to decode a referenced line number.
func writeLineBody(buf *bytes.Buffer, cfg dialectConfig, line []byte) {
	lineLen := len(line)
	var lastToken byte
	for j := cfg.headerLen; j < lineLen; j++ {
		c := line[j]
		var token byte
		if c >= 0x80 {
			token = c
		}

		switch {
		case c >= 0x20 && c <= 0x7E:
			buf.WriteByte(c)

		case c == 0x0D && alignRound(j, cfg.align) == lineLen:
			buf.WriteByte('\n')
			return

		case cfg.is68k && (c == 0xFD || c == 0xFE):
			fmt.Fprintf(buf, "`%02x`", c)

		case cfg.is68k && c == 0xFF:
			j = (j + 2) &^ 1
			var lnm uint32
			if isCachedTargetSource(lastToken) && j+1 < lineLen {
				lnm = uint32(line[j])<<8 | uint32(line[j+1])
			}
			j += 5
			if lnm != 0 {
				fmt.Fprintf(buf, "%d", lnm)
			}

		case !cfg.is68k && c == lineNumberTok6502:
			if j+3 < lineLen {
				lnm := decodeLineNumber6502(line[j+1], line[j+2], line[j+3])
				fmt.Fprintf(buf, "%d", lnm)
			}
			j += 3

		case c > cfg.maxToken || c == 0x7F || c < 0x20:
			fmt.Fprintf(buf, "`%02x`", c)

		default:
			if s := cfg.tokens[c-0x80]; s != "" {
				buf.WriteString(s)
			} else {
				fmt.Fprintf(buf, "`%02x`", c)
			}
		}

		if token > 0 {
			lastToken = token
		}
	}
}

// isCachedTargetSource reports whether tok is one of the 68k
// control-flow tokens that precede a cached branch-target reference.
func isCachedTargetSource(tok byte) bool {
	switch tok {
	case tok68kElse, tok68kGoto, tok68kGosub, tok68kRestore, tok68kThen:
		return true
	default:
		return false
	}
}
