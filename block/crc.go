/*
NAME
  crc.go

DESCRIPTION
  crc.go implements the CRC-16/XMODEM checksum shared by the tape block
  header, the tape data payload, and the ROMFS writer.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package block implements the binary block grammar shared by the
// cassette tape decoder and the ROMFS writer: the CRC-16/XMODEM
// checksum and the BlockHeader record, its wire encoding, and its
// validation rules.
package block

// crcPoly is the CRC-16/XMODEM polynomial (x^16 + x^12 + x^5 + 1).
const crcPoly = 0x1021

// CRC16 computes the CRC-16/XMODEM checksum of p, continuing from seed.
// Passing 0 as seed starts a new checksum. CRC16 is associative in the
// sense that CRC16(b, CRC16(a, 0)) == CRC16(append(a, b...), 0), which
// lets a caller checksum a header and its payload incrementally without
// concatenating them first.
func CRC16(p []byte, seed uint16) uint16 {
	crc := seed
	for _, b := range p {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
