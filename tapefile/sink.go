/*
NAME
  sink.go

DESCRIPTION
  sink.go defines the polymorphic sink contract the block state machine
  reports to, and a default sink that writes each recovered file to
  <name>.NNN.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package tapefile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ausocean/retrotape/block"
)

// Sink is the state machine's only way of reporting decoded data,
// deliberately limited to three capabilities (spec.md §4.4.2) so that
// file-writing policy never leaks into the state machine itself.
type Sink interface {
	// OnFile is called with the first validated block of a new logical
	// file, so the sink can open an output.
	OnFile(h block.BlockHeader) error
	// OnBlock is called with each validated data block of the
	// currently open file.
	OnBlock(h block.BlockHeader, payload []byte) error
	// OnEOF is called when the current file has ended, whether by a
	// FINAL block or an implicit truncation (spec.md §4.4).
	OnEOF() error
}

// FileSink is the default Sink: it writes each recovered file to
// <name>.NNN in dir, where NNN is the lowest non-colliding three-digit
// suffix starting at 000 (spec.md §6).
type FileSink struct {
	Dir string

	cur  *os.File
	name string
}

// NewFileSink returns a FileSink that writes recovered files into dir.
func NewFileSink(dir string) *FileSink { return &FileSink{Dir: dir} }

func (s *FileSink) OnFile(h block.BlockHeader) error {
	if s.cur != nil {
		// A previous file was left open by a caller that didn't see an
		// EOF event; close it best-effort rather than leak the handle.
		s.cur.Close()
		s.cur = nil
	}
	path, err := nextFreeName(s.Dir, h.Name)
	if err != nil {
		return errors.Wrapf(err, "tapefile: choosing output name for %q", h.Name)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "tapefile: creating %q", path)
	}
	s.cur = f
	s.name = path
	return nil
}

func (s *FileSink) OnBlock(h block.BlockHeader, payload []byte) error {
	if s.cur == nil {
		return errors.New("tapefile: OnBlock called with no open file")
	}
	_, err := s.cur.Write(payload)
	return errors.Wrapf(err, "tapefile: writing to %q", s.name)
}

func (s *FileSink) OnEOF() error {
	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur = nil
	return errors.Wrapf(err, "tapefile: closing %q", s.name)
}

// nextFreeName returns dir/name.NNN for the lowest NNN in 000..999 for
// which no file currently exists.
func nextFreeName(dir, name string) (string, error) {
	for n := 0; n < 1000; n++ {
		path := filepath.Join(dir, fmt.Sprintf("%s.%03d", name, n))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", errors.Errorf("no free suffix 000..999 for %q", name)
}
