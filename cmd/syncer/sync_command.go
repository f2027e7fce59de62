package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"podcast_syncer/internal/browser"
	"podcast_syncer/internal/config"
	"podcast_syncer/internal/discovery"
	"podcast_syncer/internal/domain"
	"podcast_syncer/internal/feed"
	"podcast_syncer/internal/publisher"
	"podcast_syncer/internal/resolver"
	"podcast_syncer/internal/service"
	"podcast_syncer/internal/source/acast"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var (
		showIDs    []string
		minEpisode int
		htmlFile   string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Discover new episodes, resolve their metadata and regenerate the feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			shows, err := ctx.selectShows(showIDs)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-episode") {
				for i := range shows {
					shows[i].MinEpisode = minEpisode
				}
			}
			if htmlFile != "" && len(shows) != 1 {
				return errors.New("--html-file needs exactly one --show")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer ctx.close()

			return runSync(runCtx, ctx, shows, htmlFile)
		},
	}

	cmd.Flags().StringArrayVarP(&showIDs, "show", "s", nil, "Show id to sync (repeatable, default all)")
	cmd.Flags().IntVar(&minEpisode, "min-episode", 1, "Ignore episodes numbered below this")
	cmd.Flags().StringVar(&htmlFile, "html-file", "", "Read the index page from a saved HTML file")

	return cmd
}

func runSync(ctx context.Context, cc *commandContext, shows []config.ShowConfig, htmlFile string) error {
	cfg := cc.config
	logger := cc.logger.With("run_id", uuid.NewString())

	b, err := browser.New(ctx, browser.Config{
		ExecPath:  cfg.Browser.ExecPath,
		Headless:  *cfg.Browser.Headless,
		NoSandbox: cfg.Browser.NoSandbox,
	}, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	client := acast.New(acast.Config{
		Timeout:        cfg.API.Timeout,
		MinInterval:    cfg.API.MinInterval,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
	}, logger)

	var errs []error
	for _, show := range shows {
		if err := ctx.Err(); err != nil {
			return err
		}

		var pages service.PageFetcher = b
		if htmlFile != "" {
			pages = browser.StaticPage{Path: htmlFile}
		}

		stats, err := syncShow(ctx, cc, show, pages, b, client, pub, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("sync failed", "show", show.ID, "error", err)
			errs = append(errs, fmt.Errorf("sync %s: %w", show.ID, err))
			continue
		}
		logger.Info("show synced",
			"show", stats.ShowID,
			"new", stats.New,
			"resolved", stats.Resolved,
			"failed", stats.Failed,
		)
	}
	return errors.Join(errs...)
}

func syncShow(
	ctx context.Context,
	cc *commandContext,
	show config.ShowConfig,
	pages service.PageFetcher,
	observer resolver.Observer,
	client resolver.MetadataClient,
	pub service.Publisher,
	logger *slog.Logger,
) (*domain.SyncStats, error) {
	lock, err := cc.lockShow(show)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	episodePattern, err := regexp.Compile(show.EpisodePattern)
	if err != nil {
		return nil, fmt.Errorf("compile episode pattern: %w", err)
	}
	apiPattern, err := regexp.Compile(show.APIPattern)
	if err != nil {
		return nil, fmt.Errorf("compile api pattern: %w", err)
	}

	showLogger := logger.With("show", show.ID)

	store, err := cc.openStore(show, showLogger)
	if err != nil {
		return nil, err
	}

	res := resolver.New(observer, client, resolver.Config{
		APIPattern:     apiPattern,
		MetadataURL:    show.MetadataURL,
		CaptureTimeout: cc.config.Browser.CaptureTimeout,
	}, showLogger)

	svc := service.NewSyncService(
		pages,
		res,
		store,
		feed.NewWriter(show.FeedPath, show.Channel, showLogger),
		pub,
		logger,
		service.Options{
			ShowID:        show.ID,
			IndexURL:      show.IndexURL,
			WaitSelector:  show.WaitSelector,
			RenderTimeout: cc.config.Browser.RenderTimeout,
			Rules: discovery.Rules{
				BaseURL:        show.BaseURL,
				ItemSelector:   show.ItemSelector,
				EpisodePattern: episodePattern,
				MinEpisode:     show.MinEpisode,
			},
		},
	)

	return svc.Sync(ctx)
}
