/*
NAME
  main.go

DESCRIPTION
  romfsbuild is a command line tool that packs a ROM title and an
  ordered list of host files into a single ROMFS image, mirroring
  build_romfs.cpp's mkromfs (spec.md §4.5, §6).

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements romfsbuild, the ROMFS image builder CLI.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ausocean/retrotape/romfs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "romfsbuild:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 3 {
		return errors.Errorf("usage: romfsbuild <baseAddr> <outputPath> <title> [target=host | host] ...")
	}
	base, err := parseBaseAddr(args[0])
	if err != nil {
		return err
	}
	outPath := args[1]
	title := args[2]
	entries := args[3:]

	w := romfs.NewWriter(os.DirFS("."), base)
	if err := w.WriteTitle(title); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := w.WriteFile(entry); err != nil {
			return err
		}
	}
	w.Terminate()

	for _, warning := range w.Warnings {
		fmt.Fprintln(os.Stderr, "romfsbuild: warning:", warning)
	}

	if err := os.WriteFile(outPath, w.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "writing %q", outPath)
	}
	return nil
}

// parseBaseAddr parses s the way strtoul(argv[1], 0, 0) does in
// build_romfs.cpp: base-0 notation, so a "0x" prefix selects hex, a
// leading "0" selects octal, and an unprefixed number is decimal. Go's
// "0b" and "0o" prefixes and '_' digit separators are accepted too.
func parseBaseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid base address %q", s)
	}
	return uint32(v), nil
}
