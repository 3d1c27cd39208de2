package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-file>...",
		Short: "Compile one or more schema files and report errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var failed int
			for _, arg := range args {
				if _, err := loadSchema(arg); err != nil {
					fmt.Printf("%s: %v\n", arg, err)
					failed++
					continue
				}
				fmt.Printf("%s: ok\n", arg)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d schemas failed to compile", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}
