package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noproto-go/noproto"
)

func newUnpackCmd() *cobra.Command {
	var outSchema, outBuffer string

	cmd := &cobra.Command{
		Use:   "unpack <packed-file>",
		Short: "Split a packed blob back into its schema and buffer bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			buf, schema, err := noproto.UnpackBuffer(data)
			if err != nil {
				return fmt.Errorf("unpack: %w", err)
			}
			if err := writeOutput(outSchema, []byte(schema.IDL())); err != nil {
				return err
			}
			return writeOutput(outBuffer, buf.Bytes())
		},
	}

	cmd.Flags().StringVar(&outSchema, "schema-out", "-", "where to write the recovered schema IDL")
	cmd.Flags().StringVar(&outBuffer, "buffer-out", "-", "where to write the recovered buffer bytes")
	return cmd
}
