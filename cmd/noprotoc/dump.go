package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noproto-go/noproto"
	"github.com/noproto-go/noproto/internal/sync2"
)

// readBufPool recycles the byte slices read for each buffer file passed to
// `dump`, the same transient-scratch pattern the teacher's parser uses for
// its per-message parserFrame stack: a value is borrowed for exactly the
// span of one ReadFile+OpenBuffer+ToJSON and returned before the next file
// is read.
var readBufPool sync2.Pool[[]byte]

func newDumpCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "dump <schema-file> <buffer-file>...",
		Short: "Open one or more buffers against a schema and print their decoded JSON",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := loadSchema(args[0])
			if err != nil {
				return err
			}

			var segs []string
			if path != "" {
				segs = append(segs, splitPath(path)...)
			}

			for _, bufPath := range args[1:] {
				if err := dumpOne(s, bufPath, segs); err != nil {
					return fmt.Errorf("%s: %w", bufPath, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "dotted path within the buffer to print (default: whole buffer)")
	return cmd
}

func dumpOne(s *noproto.Schema, bufPath string, segs []string) error {
	slot, drop := readBufPool.Get()
	defer drop()

	data, err := readInput(bufPath)
	if err != nil {
		return err
	}
	*slot = append((*slot)[:0], data...)

	buf, err := noproto.OpenBuffer(s, *slot)
	if err != nil {
		return err
	}

	out, err := buf.ToJSON(segs...)
	if err != nil {
		return err
	}
	fmt.Printf("%s:\n%s\n", bufPath, out)
	return nil
}

func splitPath(s string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			segs = append(segs, s[start:i])
			start = i + 1
		}
	}
	segs = append(segs, s[start:])
	return segs
}
