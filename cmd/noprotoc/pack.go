package main

import (
	"github.com/spf13/cobra"

	"github.com/noproto-go/noproto"
)

func newPackCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pack <schema-file> <buffer-file>",
		Short: "Prepend a schema to a buffer, producing a self-describing packed blob",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			data, err := readInput(args[1])
			if err != nil {
				return err
			}
			buf, err := noproto.OpenBuffer(s, data)
			if err != nil {
				return err
			}
			packed, err := noproto.PackBuffer(buf)
			if err != nil {
				return err
			}
			return writeOutput(out, packed)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "-", "output path, or - for stdout")
	return cmd
}
