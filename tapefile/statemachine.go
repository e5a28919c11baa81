/*
NAME
  statemachine.go

DESCRIPTION
  statemachine.go implements the block/file state machine of spec.md
  §4.4: it consumes demodulated bits, validates headers and CRCs with
  the block package, groups blocks into files, and reports events to a
  Sink.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package tapefile implements the cassette decoder's block/file state
// machine: Leader → HeaderName → HeaderRest → Data → (Leader), as
// described in spec.md §4.4, together with the Sink contract it reports
// decoded files and blocks to.
package tapefile

import (
	"fmt"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/retrotape/audio/framer"
	"github.com/ausocean/retrotape/block"
)

// leaderPattern is a long run of 1s followed by a framed sync byte
// (0x2A): start bit, 0x2A's 8 data bits LSB first, stop bit.
const leaderPattern = 0xFFFFFFFFFFFFFCA9

// state names the phase of the block/file state machine.
type state int

const (
	stateLeader state = iota
	stateHeaderName
	stateHeaderRest
	stateData
)

// StateMachine implements spec.md §4.4. It owns its state exclusively;
// create one per decode run.
type StateMachine struct {
	sink Sink
	log  logging.Logger // optional; may be nil.

	state state
	shift uint64 // Leader's 64-bit bit-accumulation shift register.

	fr *framer.Framer

	nameBuf []byte // accumulated HeaderName bytes, including the terminating NUL once seen.
	restBuf []byte // accumulated HeaderRest bytes.

	dataBuf    []byte // accumulated Data + CRC bytes.
	dataWant   int    // blockLen + 2, the number of bytes stateData is collecting.
	curHeader  block.BlockHeader
	prevHeader *block.BlockHeader // nil if no block of the current attempt's file has been validated yet.
}

// New returns a StateMachine that reports decoded files and blocks to
// sink. log, if non-nil, receives decode-recoverable error reports
// (spec.md §7); it is never required for correct operation.
func New(sink Sink, log logging.Logger) *StateMachine {
	return &StateMachine{sink: sink, log: log, fr: framer.New()}
}

// FeedBit consumes one demodulated bit (0 or 1). Callers must not feed
// the demodulator's "no-bit" symbol; simply skip it.
func (sm *StateMachine) FeedBit(bit int) error {
	switch sm.state {
	case stateLeader:
		return sm.feedLeader(bit)
	default:
		value, framingOK, ok := sm.fr.Process(bit)
		if !ok {
			return nil
		}
		if !framingOK {
			sm.warnf("framing violation decoding byte 0x%02x", value)
		}
		return sm.feedByte(value)
	}
}

func (sm *StateMachine) feedLeader(bit int) error {
	sm.shift = (sm.shift << 1) | uint64(bit&1)
	if sm.shift != leaderPattern {
		return nil
	}
	sm.state = stateHeaderName
	sm.nameBuf = sm.nameBuf[:0]
	sm.fr.Reset()
	return nil
}

func (sm *StateMachine) feedByte(b byte) error {
	switch sm.state {
	case stateHeaderName:
		sm.nameBuf = append(sm.nameBuf, b)
		if b == 0 || len(sm.nameBuf) == block.MaxNameLength+1 {
			sm.state = stateHeaderRest
			sm.restBuf = sm.restBuf[:0]
		}
		return nil
	case stateHeaderRest:
		sm.restBuf = append(sm.restBuf, b)
		if len(sm.restBuf) < block.HeaderRestLength {
			return nil
		}
		return sm.completeHeader()
	case stateData:
		sm.dataBuf = append(sm.dataBuf, b)
		if len(sm.dataBuf) < sm.dataWant {
			return nil
		}
		return sm.completeData()
	}
	return nil
}

func (sm *StateMachine) completeHeader() error {
	raw := append(append([]byte{}, sm.nameBuf...), sm.restBuf...)
	if raw[len(sm.nameBuf)-1] != 0 {
		// 11 bytes of name were read without a NUL: not a valid name field.
		// Treat like any other validation failure and abandon the attempt.
		sm.warnf("header name not NUL-terminated")
		return sm.abandon()
	}

	h, errs, err := block.DecodeHeader(raw, sm.prevHeader)
	if err != nil {
		sm.warnf("malformed header: %v", err)
		return sm.abandon()
	}

	switch {
	case errs == 0:
		if err := sm.openOrContinue(h); err != nil {
			return err
		}
	case errs == block.UnexpectedBlock && h.BlockNum == 0 && sm.prevHeader != nil && sm.prevHeader.Name != h.Name:
		sm.warnf("implicit truncation: %q ended, %q begins", sm.prevHeader.Name, h.Name)
		if err := sm.sink.OnEOF(); err != nil {
			return err
		}
		if err := sm.sink.OnFile(h); err != nil {
			return err
		}
	default:
		sm.warnf("rejecting block: %v", errs)
		return sm.abandon()
	}

	sm.curHeader = h
	sm.dataBuf = sm.dataBuf[:0]
	sm.dataWant = int(h.BlockLen) + 2
	sm.state = stateData
	return nil
}

func (sm *StateMachine) openOrContinue(h block.BlockHeader) error {
	if h.BlockNum == 0 {
		return sm.sink.OnFile(h)
	}
	return nil
}

func (sm *StateMachine) completeData() error {
	payload := sm.dataBuf[:sm.curHeader.BlockLen]
	var crcBytes [2]byte
	copy(crcBytes[:], sm.dataBuf[sm.curHeader.BlockLen:])

	if !block.CheckDataCRC(payload, crcBytes) {
		sm.warnf("data CRC mismatch in block %d of %q", sm.curHeader.BlockNum, sm.curHeader.Name)
		return sm.abandon()
	}

	if err := sm.sink.OnBlock(sm.curHeader, payload); err != nil {
		return err
	}

	if sm.curHeader.Final() {
		if err := sm.sink.OnEOF(); err != nil {
			return err
		}
		sm.prevHeader = nil
	} else {
		h := sm.curHeader
		sm.prevHeader = &h
	}
	return sm.toLeader()
}

// abandon discards the current decode attempt and resumes leader
// search, preserving any already-opened output file (spec.md §7).
func (sm *StateMachine) abandon() error {
	return sm.toLeader()
}

func (sm *StateMachine) toLeader() error {
	sm.state = stateLeader
	sm.shift = 0
	sm.fr.Reset()
	return nil
}

func (sm *StateMachine) warnf(format string, args ...interface{}) {
	if sm.log != nil {
		sm.log.Warning(fmt.Sprintf(format, args...))
	}
}
