package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"podcast_syncer/internal/feed"
	"podcast_syncer/internal/service"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var showIDs []string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Regenerate feeds from the stored episodes without scraping",
		RunE: func(cmd *cobra.Command, args []string) error {
			shows, err := ctx.selectShows(showIDs)
			if err != nil {
				return err
			}
			defer ctx.close()

			var errs []error
			for _, show := range shows {
				logger := ctx.logger.With("show", show.ID)

				lock, err := ctx.lockShow(show)
				if err != nil {
					errs = append(errs, err)
					continue
				}

				store, err := ctx.openStore(show, logger)
				if err == nil {
					svc := service.NewSyncService(nil, nil, store,
						feed.NewWriter(show.FeedPath, show.Channel, logger),
						nil, ctx.logger, service.Options{ShowID: show.ID})
					err = svc.RegenerateFeed(cmd.Context())
				}
				_ = lock.Unlock()

				if err != nil {
					errs = append(errs, fmt.Errorf("feed %s: %w", show.ID, err))
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringArrayVarP(&showIDs, "show", "s", nil, "Show id (repeatable, default all)")

	return cmd
}
