/*
NAME
  main.go

DESCRIPTION
  detokenize is a command line tool that reverses a tokenized-BASIC
  program, 6502 or 68k dialect, back into plain text, mirroring
  acorn2txt.cpp's option set and exit behavior (spec.md §4.6, §6).

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements detokenize, the tokenized-BASIC detokenizer
// CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/ausocean/retrotape/detok"
)

func main() {
	outPath := flag.String("o", "", "output path (default <input>.txt)")
	overwrite := flag.Bool("y", false, "permit overwriting an existing output file")
	lineNumbers := flag.Bool("n", false, "prefix each line with its decimal line number")
	use68k := flag.Bool("68k", false, "select the 68k dialect (default is 6502)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *outPath, *overwrite, *lineNumbers, *use68k); err != nil {
		fmt.Fprintln(os.Stderr, "detokenize:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: detokenize [options] <input>\n")
	flag.PrintDefaults()
}

func run(inPath, outPath string, overwrite, lineNumbers, use68k bool) error {
	if outPath == "" {
		outPath = inPath + ".txt"
	}
	if !overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return errors.Errorf("%q already exists; use -y to overwrite", outPath)
		}
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return errors.Wrapf(err, "reading %q", inPath)
	}

	dialect := detok.Dialect6502
	if use68k {
		dialect = detok.Dialect68k
	}
	text, err := detok.Detokenize(dialect, data, lineNumbers)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, text, 0o644); err != nil {
		return errors.Wrapf(err, "writing %q", outPath)
	}
	return nil
}
