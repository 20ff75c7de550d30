// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dicom-stats/internal/attribute"
	"github.com/pdiddy/dicom-stats/pkg/types"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the configured fields or search the attribute dictionary",
	Long: `Fields prints the fields extract would use, with their tags and value
representations. With --search it lists the dictionary keywords closest to
the query instead; with --all it lists every known keyword.`,
	Args: cobra.NoArgs,
	RunE: runFields,
}

func init() {
	fieldsCmd.Flags().String("search", "", "keyword to look up in the attribute dictionary")
	fieldsCmd.Flags().Int("limit", 10, "maximum number of search results")
	fieldsCmd.Flags().Bool("all", false, "list every dictionary keyword")

	rootCmd.AddCommand(fieldsCmd)
}

func runFields(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")

	var names []string
	switch {
	case all:
		names = attribute.Keywords()
	case search != "":
		names = attribute.Suggest(search, limit)
		if len(names) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No keywords match %q.\n", search)
			return nil
		}
	default:
		cfg := types.ExtractionConfig{Fields: splitList(viper.GetStringSlice("fields"))}
		if len(cfg.Fields) == 0 {
			cfg.Fields = splitList(viper.GetStringSlice("selected_columns"))
		}
		names = cfg.SelectedFields()
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range names {
		f, err := attribute.Resolve(name)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, "?", "unknown")
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, attribute.TagString(f.Tag), f.VR)
	}
	return tw.Flush()
}
