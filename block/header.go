/*
NAME
  header.go

DESCRIPTION
  header.go implements BlockHeader, the record shared by the cassette
  tape decoder and the ROMFS writer, and its wire codec.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package block

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Wire constants common to the tape and ROMFS block grammar.
const (
	Sync               = 0x2A // Marks the start of a full header.
	Continuation       = 0x23 // Replaces the header of an interior ROMFS block.
	Terminator         = 0x2B // Marks the end of a ROMFS image.
	MaxNameLength      = 10
	MaxBlockLength     = 256
	HeaderRestLength  = 19             // loadAddr(4) + execAddr(4) + blockNum(2) + blockLen(2) + blockFlag(1) + nextFile(4) + headerCrc(2).
	headerCRCFieldLen = 4 + 4 + 2 + 2 + 1 + 4 // Everything the header CRC covers, beyond name..NUL: loadAddr..nextFile.
)

// Block flag bits.
const (
	FlagLocked = 0x01
	FlagEmpty  = 0x40
	FlagFinal  = 0x80
	flagKnown  = FlagLocked | FlagEmpty | FlagFinal
)

// ErrorBits is a bitmask of block validation failures, reported by
// DecodeHeader and DecodeFull but never as an error value: these are recoverable
// per spec and are resolved by the caller (the block state machine).
type ErrorBits uint16

const (
	InvalidName ErrorBits = 1 << iota
	InvalidLength
	InvalidFlag
	InvalidHdrCrc
	InvalidDataCrc
	UnexpectedBlock
	SkippedBlock
	RepeatBlock
)

func (e ErrorBits) String() string {
	if e == 0 {
		return "ok"
	}
	names := [...]struct {
		bit  ErrorBits
		name string
	}{
		{InvalidName, "InvalidName"},
		{InvalidLength, "InvalidLength"},
		{InvalidFlag, "InvalidFlag"},
		{InvalidHdrCrc, "InvalidHdrCrc"},
		{InvalidDataCrc, "InvalidDataCrc"},
		{UnexpectedBlock, "UnexpectedBlock"},
		{SkippedBlock, "SkippedBlock"},
		{RepeatBlock, "RepeatBlock"},
	}
	var s string
	for _, n := range names {
		if e&n.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// BlockHeader is the record shared by every tape and ROMFS block.
type BlockHeader struct {
	Name      string
	LoadAddr  uint32
	ExecAddr  uint32
	BlockNum  uint16
	BlockLen  uint16
	BlockFlag uint8
	NextFile  uint32
	HeaderCRC uint16
}

// Final reports whether h carries the FINAL flag.
func (h BlockHeader) Final() bool { return h.BlockFlag&FlagFinal != 0 }

// Empty reports whether h carries the EMPTY flag.
func (h BlockHeader) Empty() bool { return h.BlockFlag&FlagEmpty != 0 }

// Locked reports whether h carries the LOCKED flag.
func (h BlockHeader) Locked() bool { return h.BlockFlag&FlagLocked != 0 }

// encodeFields serialises the name..nextFile span of h (the span the
// header CRC is computed over), not including SYNC or the CRC itself.
func encodeFields(h BlockHeader) ([]byte, error) {
	name, err := encodeName(h.Name)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(name)+headerCRCFieldLen)
	buf = append(buf, name...)

	tail := make([]byte, headerCRCFieldLen)
	binary.LittleEndian.PutUint32(tail[0:4], h.LoadAddr)
	binary.LittleEndian.PutUint32(tail[4:8], h.ExecAddr)
	binary.LittleEndian.PutUint16(tail[8:10], h.BlockNum)
	binary.LittleEndian.PutUint16(tail[10:12], h.BlockLen)
	tail[12] = h.BlockFlag
	binary.LittleEndian.PutUint32(tail[13:17], h.NextFile)
	buf = append(buf, tail...)
	return buf, nil
}

// encodeName returns name followed by its NUL terminator. name must be
// 1..10 printable (0x20-0x7E) bytes.
func encodeName(name string) ([]byte, error) {
	if len(name) < 1 || len(name) > MaxNameLength {
		return nil, errors.Errorf("block: name %q has invalid length %d", name, len(name))
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || c > 0x7E {
			return nil, errors.Errorf("block: name %q contains non-printable byte 0x%02x", name, c)
		}
	}
	b := make([]byte, len(name)+1)
	copy(b, name)
	return b, nil
}

// Encode serialises h. When full is true the SYNC byte and the complete
// header (name, addresses, block metadata, and header CRC) are emitted.
// When full is false, h is an interior ROMFS block and only the
// single-byte continuation marker is emitted; none of h's fields are
// serialised because a continuation block inherits them from the file's
// first block.
func Encode(h BlockHeader, full bool) ([]byte, error) {
	if !full {
		return []byte{Continuation}, nil
	}
	fields, err := encodeFields(h)
	if err != nil {
		return nil, err
	}
	crc := CRC16(fields, 0)
	out := make([]byte, 0, 1+len(fields)+2)
	out = append(out, Sync)
	out = append(out, fields...)
	out = append(out, byte(crc>>8), byte(crc))
	return out, nil
}

// DecodeHeader parses a full header (the bytes following SYNC: name, NUL,
// loadAddr..nextFile, and the big-endian header CRC) and validates it
// per spec.md §4.2. prev is the previous block of the same file, or nil
// if this is the first block seen. DecodeHeader never returns an error
// for validation failures; those are reported in the returned ErrorBits.
// A non-nil error indicates the input was too short to parse at all.
func DecodeHeader(b []byte, prev *BlockHeader) (BlockHeader, ErrorBits, error) {
	nul := -1
	max := len(b)
	if max > MaxNameLength+1+HeaderRestLength {
		max = MaxNameLength + 1 + HeaderRestLength
	}
	for i := 0; i < max; i++ {
		if b[i] == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return BlockHeader{}, 0, errors.New("block: header name is not NUL-terminated within bounds")
	}
	name := string(b[:nul])
	rest := b[nul+1:]
	if len(rest) < HeaderRestLength {
		return BlockHeader{}, 0, errors.Errorf("block: short header, want %d bytes after name, got %d", HeaderRestLength, len(rest))
	}

	var errs ErrorBits
	if len(name) < 1 || len(name) > MaxNameLength {
		errs |= InvalidName
	} else {
		for i := 0; i < len(name); i++ {
			if c := name[i]; c < 0x20 || c > 0x7E {
				errs |= InvalidName
				break
			}
		}
	}

	h := BlockHeader{
		Name:      name,
		LoadAddr:  binary.LittleEndian.Uint32(rest[0:4]),
		ExecAddr:  binary.LittleEndian.Uint32(rest[4:8]),
		BlockNum:  binary.LittleEndian.Uint16(rest[8:10]),
		BlockLen:  binary.LittleEndian.Uint16(rest[10:12]),
		BlockFlag: rest[12],
		NextFile:  binary.LittleEndian.Uint32(rest[13:17]),
		HeaderCRC: binary.BigEndian.Uint16(rest[17:19]),
	}

	if h.BlockFlag&^flagKnown != 0 {
		errs |= InvalidFlag
	}
	switch {
	case h.Empty() && h.BlockLen != 0:
		errs |= InvalidLength
	case !h.Final() && h.BlockLen < MaxBlockLength:
		errs |= InvalidLength
	case h.BlockLen > MaxBlockLength:
		errs |= InvalidLength
	}

	fields, err := encodeFields(BlockHeader{Name: name, LoadAddr: h.LoadAddr, ExecAddr: h.ExecAddr, BlockNum: h.BlockNum, BlockLen: h.BlockLen, BlockFlag: h.BlockFlag, NextFile: h.NextFile})
	if err != nil {
		// Name was already flagged invalid above; nothing further to check against the CRC.
		errs |= InvalidName
	} else if CRC16(fields, 0) != h.HeaderCRC {
		errs |= InvalidHdrCrc
	}

	switch {
	case prev != nil && prev.Name != h.Name:
		errs |= UnexpectedBlock
	case prev != nil && h.BlockNum <= prev.BlockNum:
		errs |= RepeatBlock
	case prev != nil && h.BlockNum > prev.BlockNum+1:
		errs |= SkippedBlock
	case prev == nil && h.BlockNum > 0:
		errs |= SkippedBlock
	}

	return h, errs, nil
}

// DataCRC computes the CRC-16/XMODEM of a block's data payload.
func DataCRC(payload []byte) uint16 { return CRC16(payload, 0) }

// CheckDataCRC reports whether crcBytes (big-endian on the wire) matches
// the CRC of payload.
func CheckDataCRC(payload []byte, crcBytes [2]byte) bool {
	want := binary.BigEndian.Uint16(crcBytes[:])
	return DataCRC(payload) == want
}

// DecodeFull parses a complete wire block: SYNC, header, payload, and
// data CRC, as produced by Encode(h, true) followed by payload and its
// CRC. It exists to state the block codec's round-trip property
// concisely in tests; the block state machine itself decodes the header
// and data in separate passes as bytes arrive from the serial framer.
func DecodeFull(b []byte, prev *BlockHeader) (h BlockHeader, payload []byte, errs ErrorBits, err error) {
	if len(b) < 1 || b[0] != Sync {
		return BlockHeader{}, nil, 0, errors.New("block: missing SYNC byte")
	}
	h, errs, err = DecodeHeader(b[1:], prev)
	if err != nil {
		return BlockHeader{}, nil, 0, err
	}
	rest := b[1+len(h.Name)+1+HeaderRestLength:]
	if len(rest) < int(h.BlockLen)+2 {
		return h, nil, errs, errors.Errorf("block: short payload, want %d bytes, got %d", h.BlockLen+2, len(rest))
	}
	payload = rest[:h.BlockLen]
	var crcBytes [2]byte
	copy(crcBytes[:], rest[h.BlockLen:h.BlockLen+2])
	if !CheckDataCRC(payload, crcBytes) {
		errs |= InvalidDataCrc
	}
	return h, payload, errs, nil
}
