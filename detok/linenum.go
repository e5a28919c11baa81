/*
NAME
  linenum.go

DESCRIPTION
  linenum.go implements the 6502 dialect's packed line-number reference
  encoding: a 16-bit line number is split and XOR-scrambled across the
  three bytes that follow the 0x8D line-number token (spec.md §4.6).

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

// decodeLineNumber6502 unpacks the three bytes following a 0x8D token
// into the line number they reference.
func decodeLineNumber6502(b1, b2, b3 byte) uint32 {
	b1 ^= 0x54
	lnm := uint32(b1&0x30) << 2
	lnm |= uint32(b1&0x0C) << 12
	lnm |= uint32(b2 & 0x3F)
	lnm |= uint32(b3&0x3F) << 8
	return lnm
}

// encodeLineNumber6502 is the inverse of decodeLineNumber6502, used to
// build test fixtures and by any future 6502 tokenizer.
func encodeLineNumber6502(lnm uint32) (b1, b2, b3 byte) {
	pre := byte((lnm&0xC0)>>2) | byte((lnm&0xC000)>>12)
	b1 = pre ^ 0x54
	b2 = byte(lnm & 0x3F)
	b3 = byte((lnm >> 8) & 0x3F)
	return b1, b2, b3
}
