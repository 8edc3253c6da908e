// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/spf13/pflag"

	"github.com/bayarmunkh/sapling/lib/codec"
)

func (a *app) diagCommand() *command {
	var hexMode bool
	return &command{
		name:    "diag",
		summary: "Print CBOR as diagnostic notation",
		description: `Read CBOR from FILE or stdin and write RFC 8949 diagnostic notation to
stdout, one line per item. Request bodies and cbor-seq responses are
sequences of items, so a captured response prints one line per result.

EdenAPI types use integer map keys, so a file entry looks like:

  {0: {0: "a.txt", 1: h'0123...'}, 1: {0: h'...'}, 2: {...}}`,
		usage: "sapling-edenapi diag [--hex] [FILE]",
		examples: []example{{
			description: "Inspect a captured response",
			command:     "curl -s -X POST --data-binary @req.cbor $URL/fbsource/files | sapling-edenapi diag",
		}},
		flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("diag", pflag.ContinueOnError)
			flagSet.BoolVar(&hexMode, "hex", false, "input is hex-encoded")
			return flagSet
		},
		run: func(args []string) error {
			data, remaining, err := readInput(args, a.stdin, hexMode)
			if err != nil {
				return err
			}
			if len(remaining) > 0 {
				return fmt.Errorf("unexpected argument %q", remaining[0])
			}
			return diagnoseSequence(data, a.stdout)
		},
	}
}

// diagnoseSequence writes the diagnostic notation of each item in a
// CBOR sequence on its own line.
func diagnoseSequence(data []byte, w io.Writer) error {
	if len(data) == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}
	remaining := data
	for len(remaining) > 0 {
		notation, rest, err := codec.DiagnoseFirst(remaining)
		if err != nil {
			return fmt.Errorf("diagnose CBOR at byte %d: %w", len(data)-len(remaining), err)
		}
		if _, err := fmt.Fprintln(w, notation); err != nil {
			return err
		}
		remaining = rest
	}
	return nil
}

// readInput reads from the file named by the last arg if it is a
// regular file, otherwise from stdin. Returns the args with the
// consumed path removed.
func readInput(args []string, stdin io.Reader, hexMode bool) ([]byte, []string, error) {
	var data []byte
	remaining := args

	if length := len(args); length > 0 {
		candidate := args[length-1]
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			data, err = os.ReadFile(candidate)
			if err != nil {
				return nil, nil, fmt.Errorf("read %s: %w", candidate, err)
			}
			remaining = args[:length-1]
		}
	}

	if data == nil {
		var err error
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
	}

	if hexMode {
		decoded, err := decodeHexInput(data)
		if err != nil {
			return nil, nil, err
		}
		data = decoded
	}
	return data, remaining, nil
}

// decodeHexInput decodes hex with any whitespace between digits.
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("empty input after stripping whitespace from hex")
	}

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:count], nil
}
