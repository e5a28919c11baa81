/*
NAME
  tables.go

DESCRIPTION
  tables.go holds the two frozen token tables of spec.md §4.6, one per
  tokenized-BASIC dialect, indexed by token byte - 0x80.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package detok reverses the two stored representations of a
// line-oriented tokenized BASIC (a 6502 dialect and a 68k dialect)
// back into plain text, including the packed line-number reference
// encoding used by the 6502 dialect and the 68k dialect's cached
// branch-target references (spec.md §4.6).
package detok

// Dialect selects a tokenized-BASIC representation.
type Dialect int

const (
	Dialect6502 Dialect = iota
	Dialect68k
)

func (d Dialect) String() string {
	switch d {
	case Dialect6502:
		return "6502"
	case Dialect68k:
		return "68k"
	default:
		return "unknown"
	}
}

// 68k control-flow tokens that a cached branch target (0xFF) may
// follow; only then does it carry a referenced line number.
const (
	tok68kElse     = 0x91
	tok68kGoto     = 0x94
	tok68kGosub    = 0x95
	tok68kRestore  = 0xAB
	tok68kThen     = 0xB7
	lineNumberTok6502 = 0x8D
)

// token6502 is indexed by token byte - 0x80. Index 0x8D-0x80 is the
// empty string: that byte is the line-number token, handled by a
// dedicated code path rather than a table lookup. Entry 0xFF ("OSCLI")
// is unreachable in body decoding because the 6502 decoder treats any
// body byte above 0xFE as an escape before consulting the table; it is
// kept here because it is a legitimate token elsewhere in the format.
var token6502 = [128]string{
	0x00: "AND", 0x01: "DIV", 0x02: "EOR", 0x03: "MOD", 0x04: "OR",
	0x05: "ERROR", 0x06: "LINE", 0x07: "OFF", 0x08: "STEP", 0x09: "SPC",
	0x0A: "TAB(", 0x0B: "ELSE", 0x0C: "THEN", 0x0D: "", /* line number */
	0x0E: "OPENIN", 0x0F: "PTR", 0x10: "PAGE", 0x11: "TIME", 0x12: "LOMEM",
	0x13: "HIMEM", 0x14: "ABS", 0x15: "ACS", 0x16: "ADVAL", 0x17: "ASC",
	0x18: "ASN", 0x19: "ATN", 0x1A: "BGET", 0x1B: "COS", 0x1C: "COUNT",
	0x1D: "DEG", 0x1E: "ERL", 0x1F: "ERR", 0x20: "EVAL", 0x21: "EXP",
	0x22: "EXT", 0x23: "FALSE", 0x24: "FN", 0x25: "GET", 0x26: "INKEY",
	0x27: "INSTR(", 0x28: "INT", 0x29: "LEN", 0x2A: "LN", 0x2B: "LOG",
	0x2C: "NOT", 0x2D: "OPENUP", 0x2E: "OPENOUT", 0x2F: "PI", 0x30: "POINT(",
	0x31: "POS", 0x32: "RAD", 0x33: "RND", 0x34: "SGN", 0x35: "SIN",
	0x36: "SQR", 0x37: "TAN", 0x38: "TO", 0x39: "TRUE", 0x3A: "USR",
	0x3B: "VAL", 0x3C: "VPOS", 0x3D: "CHR$", 0x3E: "GET$", 0x3F: "INKEY$",
	0x40: "LEFT$(", 0x41: "MID$(", 0x42: "RIGHT$(", 0x43: "STR$", 0x44: "STRING$(",
	0x45: "EOF", 0x46: "AUTO", 0x47: "DELETE", 0x48: "LOAD", 0x49: "LIST",
	0x4A: "NEW", 0x4B: "OLD", 0x4C: "RENUMBER", 0x4D: "SAVE", 0x4E: "EDIT",
	0x4F: "PTR", 0x50: "PAGE", 0x51: "TIME", 0x52: "LOMEM", 0x53: "HIMEM",
	0x54: "SOUND", 0x55: "BPUT", 0x56: "CALL", 0x57: "CHAIN", 0x58: "CLEAR",
	0x59: "CLOSE", 0x5A: "CLG", 0x5B: "CLS", 0x5C: "DATA", 0x5D: "DEF",
	0x5E: "DIM", 0x5F: "DRAW", 0x60: "END", 0x61: "ENDPROC", 0x62: "ENVELOPE",
	0x63: "FOR", 0x64: "GOSUB", 0x65: "GOTO", 0x66: "GCOL", 0x67: "IF",
	0x68: "INPUT", 0x69: "LET", 0x6A: "LOCAL", 0x6B: "MODE", 0x6C: "MOVE",
	0x6D: "NEXT", 0x6E: "ON", 0x6F: "VDU", 0x70: "PLOT", 0x71: "PRINT",
	0x72: "PROC", 0x73: "READ", 0x74: "REM", 0x75: "REPEAT", 0x76: "REPORT",
	0x77: "RESTORE", 0x78: "RETURN", 0x79: "RUN", 0x7A: "STOP", 0x7B: "COLOUR",
	0x7C: "TRACE", 0x7D: "UNTIL", 0x7E: "WIDTH", 0x7F: "OSCLI",
}

// token68k is indexed by token byte - 0x80. Entries 0xFD-0xFF are
// reserved: 0xFD and 0xFE for future multi-byte/predigest tokens and
// 0xFF for the cached branch-target token, all handled by dedicated
// code paths.
var token68k = [128]string{
	0x00: "AUTO", 0x01: "BPUT", 0x02: "COLOUR", 0x03: "CLEAR", 0x04: "CLOSE",
	0x05: "CLS", 0x06: "CLG", 0x07: "CALL", 0x08: "CHAIN", 0x09: "DELETE",
	0x0A: "DRAW", 0x0B: "DATA", 0x0C: "DEF", 0x0D: "DIM", 0x0E: "ENVELOPE",
	0x0F: "ENDPROC", 0x10: "END", 0x11: "ELSE", 0x12: "ERROR", 0x13: "FOR",
	0x14: "GOTO", 0x15: "GOSUB", 0x16: "GCOL", 0x17: "INPUT", 0x18: "IF",
	0x19: "LIST", 0x1A: "LOAD", 0x1B: "LOCAL", 0x1C: "LET", 0x1D: "LINE",
	0x1E: "MODE", 0x1F: "MOVE", 0x20: "NEXT", 0x21: "NEW", 0x22: "OLD",
	0x23: "ON", 0x24: "OFF", 0x25: "OSCLI", 0x26: "PRINT", 0x27: "PROC",
	0x28: "PLOT", 0x29: "REPEAT", 0x2A: "RETURN", 0x2B: "RESTORE", 0x2C: "REPORT",
	0x2D: "REM", 0x2E: "READ", 0x2F: "RUN", 0x30: "RENUMBER", 0x31: "STEP",
	0x32: "SAVE", 0x33: "STOP", 0x34: "SOUND", 0x35: "SPC", 0x36: "TRACE",
	0x37: "THEN", 0x38: "TAB(", 0x39: "UNTIL", 0x3A: "VDU", 0x3B: "WIDTH",
	0x3C: "AND", 0x3D: "OR", 0x3E: "EOR", 0x3F: "DIV", 0x40: "MOD",
	0x41: "<=", 0x42: "<>", 0x43: ">=", 0x44: "PTR", 0x45: "PAGE",
	0x46: "TOP", 0x47: "LOMEM", 0x48: "HIMEM", 0x49: "TIME", 0x4A: "CHR$",
	0x4B: "GET$", 0x4C: "INKEY$", 0x4D: "LEFT$(", 0x4E: "MID$(", 0x4F: "RIGHT$(",
	0x50: "STR$", 0x51: "STRING$(", 0x52: "INSTR(", 0x53: "VAL", 0x54: "ASC",
	0x55: "LET", 0x56: "GET", 0x57: "INKEY", 0x58: "ADVAL", 0x59: "POS",
	0x5A: "VPOS", 0x5B: "COUNT", 0x5C: "POINT(", 0x5D: "ERR", 0x5E: "ERL",
	0x5F: "OPENIN", 0x60: "OPENOUT", 0x61: "OPENUP", 0x62: "EXT", 0x63: "BGET#",
	0x64: "EOF", 0x65: "TRUE", 0x66: "FALSE", 0x67: "ABS", 0x68: "ACS",
	0x69: "ASN", 0x6A: "ATN", 0x6B: "COS", 0x6C: "DEG", 0x6D: "EVAL",
	0x6E: "EXP", 0x6F: "FN", 0x70: "INT", 0x71: "LN", 0x72: "LOG",
	0x73: "NOT", 0x74: "PI", 0x75: "RAD", 0x76: "RND", 0x77: "SGN",
	0x78: "SIN", 0x79: "SQR", 0x7A: "TAN", 0x7B: "USR", 0x7C: "TO",
	0x7D: "", 0x7E: "", 0x7F: "",
}
