// noprotoc validates, converts, dumps, and packs/unpacks noproto schemas
// and buffers from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "noprotoc",
		Short:         "Inspect and convert noproto schemas and buffers",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newConvertCmd(),
		newDumpCmd(),
		newPackCmd(),
		newUnpackCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "noprotoc: %v\n", err)
		os.Exit(1)
	}
}

func readInput(arg string) ([]byte, error) {
	if arg == "-" {
		return readAllStdin()
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", arg, err)
	}
	return data, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
