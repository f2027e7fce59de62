package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"podcast_syncer/internal/config"
	"podcast_syncer/internal/service"
	"podcast_syncer/internal/storage/jsonfile"
	"podcast_syncer/internal/storage/postgres"
)

var errLocked = errors.New("another run holds the lock")

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     *slog.Logger

	db *sqlx.DB
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logger:     setupLogger("info"),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.config = cfg
		c.logger = setupLogger(cfg.LogLevel)
	})
	return c.config, c.configErr
}

func (c *commandContext) selectShows(ids []string) ([]config.ShowConfig, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return cfg.SelectShows(ids)
}

// openStore returns the snapshot backend configured for show.
func (c *commandContext) openStore(show config.ShowConfig, logger *slog.Logger) (service.SnapshotStore, error) {
	switch c.config.Storage.Driver {
	case config.DriverPostgres:
		if c.db == nil {
			db, err := sqlx.Connect("postgres", c.config.Storage.Database.DSN())
			if err != nil {
				return nil, fmt.Errorf("connect to database: %w", err)
			}
			c.db = db
			c.logger.Info("connected to database")
		}
		return postgres.NewSnapshotStore(c.db, show.ID, logger), nil
	default:
		return jsonfile.New(show.StorePath, logger), nil
	}
}

// lockShow takes the per-show run lock without blocking.
func (c *commandContext) lockShow(show config.ShowConfig) (*flock.Flock, error) {
	lock := flock.New(show.StorePath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock show %s: %w", show.ID, err)
	}
	if !ok {
		return nil, fmt.Errorf("show %s: %w (%s)", show.ID, errLocked, lock.Path())
	}
	return lock, nil
}

func (c *commandContext) close() {
	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
}
