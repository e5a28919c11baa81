/*
NAME
  writer.go

DESCRIPTION
  writer.go implements the ROMFS writer of spec.md §4.5: it packs a title
  and an ordered list of host files into a single contiguous image using
  the same block grammar as the cassette format.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package romfs builds ROM filesystem images: a title entry followed by
// an ordered list of file entries, each split into the tape/ROMFS block
// grammar from the block package, terminated by a sentinel byte
// (spec.md §4.5).
package romfs

import (
	"io/fs"
	"strings"

	"github.com/pkg/errors"

	"github.com/ausocean/retrotape/block"
)

// MaxFiles is the largest number of file entries (beyond the title) a
// ROM image may carry.
const MaxFiles = 256

// Writer builds a ROM image by accumulating a title entry and a
// sequence of file entries. A Writer owns its filename registry and
// base-address cursor exclusively; it is not safe for concurrent use,
// and replaces the original implementation's process-wide filename
// table with per-instance state (spec.md §9 "Global state").
type Writer struct {
	fsys fs.FS
	base uint32

	names    map[string]bool // lower-cased target names seen so far.
	nEntries int

	out      []byte
	Warnings []string
}

// NewWriter returns a Writer that reads host files from fsys (typically
// os.DirFS(".")) and lays out entries starting at base.
func NewWriter(fsys fs.FS, base uint32) *Writer {
	return &Writer{fsys: fsys, base: base, names: make(map[string]bool)}
}

// Bytes returns the image built so far. It is valid to call after
// WriteTitle, any number of WriteFile calls, and Terminate.
func (w *Writer) Bytes() []byte { return w.out }

// WriteTitle appends the ROM title entry: a single FINAL|EMPTY block
// carrying no data, with loadAddr and execAddr both zero.
func (w *Writer) WriteTitle(title string) error {
	name, truncated := truncateName(title)
	if truncated {
		w.warnf("ROM title %q truncated to %d characters", title, block.MaxNameLength)
	}
	if err := checkPrintable(name); err != nil {
		return errors.Wrap(err, "romfs: ROM title")
	}

	h := block.BlockHeader{
		Name:      name,
		BlockFlag: block.FlagFinal | block.FlagEmpty,
	}
	return w.appendEntry(name, h, nil)
}

// WriteFile appends one file entry, parsed in the form "target=host" or
// "host" (spec.md §4.5, §9). Target defaults to the basename of host,
// with spaces and non-printable characters replaced by '_' and names beyond 10
// bytes truncated; both replacements are reported as warnings, not
// errors. An explicit target's characters must all be printable, and
// an over-length explicit target is truncated with a warning.
func (w *Writer) WriteFile(entry string) error {
	target, host, err := parseEntry(entry)
	if err != nil {
		return err
	}

	var warn bool
	if target == "" {
		target, warn, err = deriveTarget(host)
		if err != nil {
			return err
		}
		if warn {
			w.warnf("target name %q derived from %q", target, host)
		}
	} else {
		var truncated bool
		target, truncated = truncateName(target)
		if truncated {
			w.warnf("%q target name too long, truncating to %d characters", entry, block.MaxNameLength)
		}
		if err := checkPrintable(target); err != nil {
			return errors.Wrapf(err, "romfs: entry %q", entry)
		}
	}

	data, err := fs.ReadFile(w.fsys, host)
	if err != nil {
		return errors.Wrapf(err, "romfs: reading %q", host)
	}
	if len(data) == 0 {
		return errors.Errorf("romfs: file %q is empty", host)
	}

	if w.nEntries >= MaxFiles {
		return errors.Errorf("romfs: more than %d file entries", MaxFiles)
	}
	w.nEntries++

	h := block.BlockHeader{Name: target}
	return w.appendEntry(target, h, data)
}

// Terminate appends the end-of-image sentinel. Call it once, after the
// last WriteFile.
func (w *Writer) Terminate() {
	w.out = append(w.out, block.Terminator)
}

func (w *Writer) warnf(format string, args ...interface{}) {
	w.Warnings = append(w.Warnings, errors.Errorf(format, args...).Error())
}

// appendEntry serialises one entry (title or file) of data as nBlocks
// blocks: full headers on the first and last block, single-byte
// continuation headers on interior blocks, exactly mirroring
// build_romfs.cpp's CRomFsFile::Construct.
func (w *Writer) appendEntry(name string, h block.BlockHeader, data []byte) error {
	if w.names[strings.ToLower(name)] {
		return errors.Errorf("romfs: duplicate target filename %q", name)
	}
	w.names[strings.ToLower(name)] = true

	fields, err := encodeFieldsForSizing(h)
	if err != nil {
		return err
	}
	hdrLen := 1 + len(fields) + 2 // SYNC + name..nextFile + headerCrc.

	if data == nil {
		// The title entry: a single header with no payload and no data
		// CRC at all (build_romfs.cpp's CRomFsFile::ConstructTitle).
		h.NextFile = w.base + uint32(hdrLen)
		enc, err := block.Encode(h, true)
		if err != nil {
			return errors.Wrapf(err, "romfs: encoding title %q", name)
		}
		w.out = append(w.out, enc...)
		w.base += uint32(hdrLen)
		return nil
	}

	nBlocks := (len(data) + block.MaxBlockLength - 1) / block.MaxBlockLength

	entryLen := len(data) + 2*nBlocks // data plus a CRC per block.
	if nBlocks == 1 {
		entryLen += hdrLen
	} else {
		entryLen += 2*hdrLen + (nBlocks - 2) // full headers on first+last, 1 byte each elsewhere.
	}
	h.NextFile = w.base + uint32(entryLen)

	remain := data
	for bn := 0; bn < nBlocks; bn++ {
		bl := len(remain)
		if bl > block.MaxBlockLength {
			bl = block.MaxBlockLength
		}
		full := bn == 0 || bn == nBlocks-1
		h.BlockNum = uint16(bn)
		h.BlockLen = uint16(bl)
		if bn == nBlocks-1 {
			h.BlockFlag |= block.FlagFinal
		}

		enc, err := block.Encode(h, full)
		if err != nil {
			return errors.Wrapf(err, "romfs: encoding block %d of %q", bn, name)
		}
		w.out = append(w.out, enc...)

		payload := remain[:bl]
		crc := block.DataCRC(payload)
		w.out = append(w.out, payload...)
		w.out = append(w.out, byte(crc>>8), byte(crc))

		remain = remain[bl:]
	}
	w.base += uint32(entryLen)
	return nil
}

// encodeFieldsForSizing returns the encoded name..nextFile span of h,
// used only to measure a full header's length; the values of the
// per-block fields (blockNum, blockLen, blockFlag, nextFile) don't
// affect that length, only name does.
func encodeFieldsForSizing(h block.BlockHeader) ([]byte, error) {
	full, err := block.Encode(h, true)
	if err != nil {
		return nil, err
	}
	// full = SYNC(1) + fields + headerCrc(2); strip both to report the field span's length.
	return full[1 : len(full)-2], nil
}

// parseEntry splits entry into an explicit target (or "" if none) and
// a host path, following build_romfs.cpp's scan: the first '=' before
// any space introduces an explicit target; '=' at position 0 is
// treated as absent.
func parseEntry(entry string) (target, host string, err error) {
	ep := -1
	for i := 0; i < len(entry); i++ {
		c := entry[i]
		if c == ' ' {
			break
		}
		if c == '=' {
			ep = i
			break
		}
	}
	if ep <= 0 {
		return "", entry, nil
	}
	target = entry[:ep]
	host = entry[ep+1:]
	if host == "" {
		return "", "", errors.Errorf("romfs: host filename not specified (%s)", entry)
	}
	return target, host, nil
}

// deriveTarget derives a target name from host's basename: characters
// outside 0x21-0x7E become '_', and names beyond block.MaxNameLength
// are truncated. warn reports whether either replacement occurred.
func deriveTarget(host string) (target string, warn bool, err error) {
	if host == "" || strings.HasSuffix(host, "/") || strings.HasSuffix(host, `\`) {
		return "", false, errors.Errorf("romfs: host filename %q ends in a path separator", host)
	}
	base := host
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if len(base) > block.MaxNameLength {
		base = base[:block.MaxNameLength]
		warn = true
	}
	b := []byte(base)
	for i, c := range b {
		if c <= 0x20 || c > 0x7E {
			b[i] = '_'
			warn = true
		}
	}
	return string(b), warn, nil
}

// truncateName truncates name to block.MaxNameLength bytes, reporting
// whether truncation occurred.
func truncateName(name string) (string, bool) {
	if len(name) <= block.MaxNameLength {
		return name, false
	}
	return name[:block.MaxNameLength], true
}

// checkPrintable reports an error if name is empty or contains a byte
// outside 0x20-0x7E.
func checkPrintable(name string) error {
	if name == "" {
		return errors.New("romfs: target name is empty")
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c < 0x20 || c > 0x7E {
			return errors.Errorf("romfs: target filename contains invalid character 0x%02x", c)
		}
	}
	return nil
}
