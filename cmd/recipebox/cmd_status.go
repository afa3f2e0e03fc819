package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/recipebox/internal/cli"
	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/storage"
	"github.com/hyperjump/recipebox/internal/tui"
)

// statusResponse is the JSON shape of the status command.
type statusResponse struct {
	*models.Stats
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
	DatabasePath   string `json:"database_path,omitempty"`
	FilePath       string `json:"file_path,omitempty"`
	BleveIndexPath string `json:"bleve_index_path,omitempty"`
	PruneOnDelete  bool   `json:"prune_on_delete"`
}

func storePaths(cfg *config.Config) []string {
	paths := []string{cfg.Storage.BleveIndexPath}
	if cfg.Storage.Kind == config.StoreFile {
		return append(paths, cfg.Storage.FilePath)
	}
	return append(paths, cfg.Storage.DatabasePath)
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show collection, index and storage status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer c.Close()
			stats, err := c.Engine.Stats(cmd.Context())
			if err != nil {
				return err
			}
			status := statusResponse{
				Stats:          stats,
				BleveIndexPath: c.Config.Storage.BleveIndexPath,
				PruneOnDelete:  c.Config.Index.PruneOnDelete,
			}
			if c.Config.Storage.Kind == config.StoreFile {
				status.FilePath = c.Config.Storage.FilePath
			} else {
				status.DatabasePath = c.Config.Storage.DatabasePath
			}
			if n, err := storage.DiskUsageBytes(storePaths(c.Config)...); err == nil {
				status.DiskUsageBytes = &n
			}

			out := cmd.OutOrStdout()
			if format == cli.OutputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			if err := cli.WriteStats(out, stats, format); err != nil {
				return err
			}
			if status.DiskUsageBytes != nil {
				fmt.Fprintf(out, "Disk usage:   %d bytes\n", *status.DiskUsageBytes)
			}
			fmt.Fprintf(out, "Prune on delete: %t\n", status.PruneOnDelete)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func newShellCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive recipe menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := setup(ctx, opts, false)
			if err != nil {
				return err
			}
			defer c.Close()
			return tui.Run(ctx, tui.NewService(c.Indexer, c.Engine))
		},
	}
}
