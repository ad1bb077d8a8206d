package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jask/admindesk/internal/broker"
	"github.com/jask/admindesk/internal/config"
	"github.com/jask/admindesk/internal/crud"
	"github.com/jask/admindesk/internal/database"
	"github.com/jask/admindesk/internal/database/repository"
	"github.com/jask/admindesk/internal/logger"
	"github.com/jask/admindesk/internal/people"
	"github.com/jask/admindesk/internal/testdata"
)

type rootFlags struct {
	config   string
	driver   string
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "admindesk",
		Short:         "Administer people accounts",
		Long:          "admindesk lists, searches and edits people accounts from the terminal.\nWith the memory driver every run starts from freshly generated sample data.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "config file (default ~/.config/admindesk/config.toml)")
	pf.StringVar(&f.driver, "driver", "", "storage driver: memory or sqlite")
	pf.StringVar(&f.dbPath, "db", "", "sqlite database path")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newTUICmd(f),
		newListCmd(f),
		newShowCmd(f),
		newInviteCmd(f),
		newAccountCmd(f, "deactivate", "Deactivate people", "deactivated", (*people.Desk).Deactivate),
		newAccountCmd(f, "reactivate", "Reactivate people", "reactivated", (*people.Desk).Reactivate),
		newAccountCmd(f, "reset-mfa", "Turn off MFA so people re-enroll", "MFA reset for", (*people.Desk).ResetMFA),
		newBulkRoleCmd(f),
		newImportCmd(f),
		newResetCmd(f),
		newFormCmd(),
	)
	return root
}

// load reads the config and applies flag overrides.
func (f *rootFlags) load() (config.Config, error) {
	cfg, err := config.LoadFrom(f.config)
	if err != nil {
		return config.Config{}, err
	}
	if f.driver != "" {
		cfg.Storage.Driver = f.driver
	}
	if f.dbPath != "" {
		cfg.Storage.Path = f.dbPath
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// session is an opened desk plus whatever must be released with it.
type session struct {
	cfg   config.Config
	log   *log.Logger
	desk  *people.Desk
	close func() error
}

// open loads config and builds the desk with a logger writing to stderr.
func (f *rootFlags) open(cmd *cobra.Command) (*session, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	l := logger.New(cmd.ErrOrStderr(), cfg.Log)
	return openSession(cmd.Context(), cfg, l)
}

func openSession(ctx context.Context, cfg config.Config, l *log.Logger, opts ...broker.Option) (*session, error) {
	svc, closeFn, err := openPeople(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	opts = append([]broker.Option{
		broker.WithPageSize(cfg.Broker.PageSize),
		broker.WithLogger(l.WithPrefix("desk")),
	}, opts...)
	desk := people.NewDesk(svc, opts...)
	return &session{cfg: cfg, log: l, desk: desk, close: closeFn}, nil
}

// openPeople builds the people service stack for the configured driver:
// backend, optional row cache, call logging.
func openPeople(ctx context.Context, cfg config.Config, l *log.Logger) (crud.Service[people.Person, string], func() error, error) {
	var (
		svc     crud.Service[people.Person, string]
		closeFn = func() error { return nil }
	)
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := database.OpenMigrated(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPersonRepo(db)
		if err := testdata.Seed(ctx, testdata.Repos{People: repo}, cfg.Seed.People); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		l.Debug("opened sqlite store", "path", cfg.Storage.Path)
		svc, closeFn = repo, db.Close
	default:
		svc = people.NewMemoryService(testdata.People(cfg.Seed.People, time.Now().UTC()))
		l.Debug("generated memory store", "people", cfg.Seed.People)
	}

	if cfg.Storage.CacheSize > 0 {
		cached, err := crud.NewCached(svc, people.Entity(), cfg.Storage.CacheSize)
		if err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("people cache: %w", err)
		}
		svc = cached
	}
	return crud.NewLogged(svc, l.WithPrefix("people"), "person"), closeFn, nil
}
