// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dicom-stats/internal/attribute"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print every element of one DICOM file",
	Long: `Inspect dumps the file meta information and data set of a single file,
one element per line with nested sequence items indented. Pixel data is
not read.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ds, err := attribute.ReadFile(args[0])
	attribute.Dump(cmd.OutOrStdout(), ds)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	return nil
}
