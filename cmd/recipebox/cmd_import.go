package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperjump/recipebox/internal/indexer"
	"github.com/hyperjump/recipebox/internal/report"
	"github.com/hyperjump/recipebox/pkg/utils"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file-or-directory>",
		Short: "Import recipes from YAML, JSON or XLSX files",
		Long: `Import recipes from a file, or from every matching file under a directory.
Re-importing a file updates its recipes in place and removes the ones it no
longer lists. A file with any invalid recipe is rejected as a whole.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to stat path: %w", err)
			}
			c, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			if info.IsDir() {
				n, res, err := c.Indexer.ImportDirectory(cmd.Context(), path, c.Config.Watch.Extensions)
				printImportResult(cmd, res)
				if err != nil {
					return fmt.Errorf("importing directory failed: %w", err)
				}
				fmt.Fprintf(out, "Imported %d %s from %s\n", n, utils.Plural(n, "file"), path)
				return nil
			}
			// Single file: no extension filter beyond what the extractor supports.
			res, err := c.Indexer.ImportFile(cmd.Context(), path, nil)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			printImportResult(cmd, res)
			abs, _ := filepath.Abs(path)
			fmt.Fprintf(out, "Imported %s\n", abs)
			return nil
		},
	}
}

func printImportResult(cmd *cobra.Command, res indexer.ImportResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "created: %d  updated: %d  unchanged: %d  removed: %d\n",
		res.Created, res.Updated, res.Unchanged, res.Removed)
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export every recipe to an XLSX workbook with difficulty charts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer c.Close()
			recipes, _, err := c.Engine.List(cmd.Context(), 0, 0)
			if err != nil {
				return err
			}
			f, err := report.Build(recipes)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(args[0]); err != nil {
				return fmt.Errorf("save workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n", len(recipes), utils.Plural(len(recipes), "recipe"), args[0])
			return nil
		},
	}
}
