package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podcast_syncer/internal/export"
	"podcast_syncer/internal/fileutil"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		showID string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export resolved episodes as OPML or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			shows, err := ctx.selectShows([]string{showID})
			if err != nil {
				return err
			}
			show := shows[0]
			defer ctx.close()

			logger := ctx.logger.With("show", show.ID)
			store, err := ctx.openStore(show, logger)
			if err != nil {
				return err
			}
			snap, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}

			data, err := export.Render(f, snap, show.Channel)
			if err != nil {
				return err
			}

			if out == "" {
				out = show.ID + "_episodes" + f.Extension()
			}
			if err := fileutil.WriteFileAtomic(out, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			logger.Info("export written", "format", f, "path", out, "episodes", len(snap.Resolved()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&showID, "show", "s", "", "Show id")
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatOPML), "Export format: opml or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default <show>_episodes.<format>)")
	_ = cmd.MarkFlagRequired("show")

	return cmd
}
