package main

import (
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var out, format string

	cmd := &cobra.Command{
		Use:   "convert <schema-file>",
		Short: "Re-emit a schema in a different surface form (idl, json, bytes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			render, err := parseSchemaFormat(format)
			if err != nil {
				return err
			}
			data, err := render(s)
			if err != nil {
				return err
			}
			return writeOutput(out, data)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "-", "output path, or - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "idl", "output format: "+schemaFormats())
	return cmd
}
