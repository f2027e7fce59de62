package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podcast_syncer/internal/domain"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		showID  string
		pending bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the stored episodes of a show",
		RunE: func(cmd *cobra.Command, args []string) error {
			shows, err := ctx.selectShows([]string{showID})
			if err != nil {
				return err
			}
			show := shows[0]
			defer ctx.close()

			store, err := ctx.openStore(show, ctx.logger.With("show", show.ID))
			if err != nil {
				return err
			}
			snap, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderEpisodes(snap, pending))
			return nil
		},
	}

	cmd.Flags().StringVarP(&showID, "show", "s", "", "Show id")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only list episodes without metadata")
	_ = cmd.MarkFlagRequired("show")

	return cmd
}

func renderEpisodes(snap *domain.Snapshot, pendingOnly bool) string {
	records := make([]domain.EpisodeRecord, 0, len(snap.Episodes))
	for _, n := range snap.Numbers() {
		r := snap.Episodes[n]
		r.Number = n
		if pendingOnly && r.Resolved() {
			continue
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return "No episodes stored."
	}
	return renderEpisodeTable(records)
}
