/*
NAME
  framer.go

DESCRIPTION
  framer.go implements the serial framing layer that recovers 8-bit
  values from the demodulator's bit stream under the tape's
  start/stop-bit protocol.

AUTHOR
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package framer implements the serial framer of spec.md §4.4.1: each
// byte is carried as start(0)·data[8, LSB first]·stop(1), ten bits in
// all, with the line idling high between bytes.
package framer

// frameBits is the number of bits in one start/data/stop frame.
const frameBits = 10

// Framer recovers bytes from a bit stream produced by the FSK
// demodulator. A Framer owns its accumulator exclusively; bits are fed
// one at a time with Process.
type Framer struct {
	receiving bool
	word      uint16
	n         int
}

// New returns a Framer idling, waiting for a start bit.
func New() *Framer { return &Framer{} }

// Process consumes one demodulated bit (0 or 1; callers must not feed a
// "no-bit" symbol — only call Process when the demodulator has recovered
// a real bit). ok is true once every ten bits of a frame have been
// collected, at which point value holds the assembled byte and
// framingOK reports whether the captured word satisfied
// (word & 0x201) == 0x200 (start bit 0, stop bit 1). A framing violation
// does not discard the byte — value is still valid — it only marks the
// frame as suspect for the caller to report.
func (f *Framer) Process(bit int) (value byte, framingOK bool, ok bool) {
	if !f.receiving {
		if bit != 0 {
			// Idle high between bytes; nothing to do until a start bit (0) arrives.
			return 0, false, false
		}
		f.receiving = true
		f.word = 0
		f.n = 0
	}

	if bit != 0 {
		f.word |= 1 << uint(f.n)
	}
	f.n++
	if f.n < frameBits {
		return 0, false, false
	}

	value = byte((f.word >> 1) & 0xFF)
	framingOK = f.word&0x201 == 0x200
	f.receiving = false
	return value, framingOK, true
}

// Reset returns the Framer to its idle state, discarding any partially
// received frame. Used by the block state machine when it abandons a
// decode attempt and resumes leader search.
func (f *Framer) Reset() {
	f.receiving = false
	f.word = 0
	f.n = 0
}
