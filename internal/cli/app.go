package cli

import (
	"context"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/relistr/mediakit/internal/journal"
	"github.com/relistr/mediakit/internal/session"
	"github.com/relistr/mediakit/internal/transport"
	"github.com/relistr/mediakit/pkg/config"
	"github.com/relistr/mediakit/pkg/enums"
	"github.com/relistr/mediakit/pkg/logger"
	"github.com/relistr/mediakit/pkg/scope"
	"github.com/relistr/mediakit/pkg/scopelock"
)

// scopeFlags are the persistent flags every subcommand shares: they
// name the scope the command operates on.
type scopeFlags struct {
	EntityType string
	EntityID   int64
	Purpose    string
}

// App carries the bootstrapped collaborators for the CLI commands.
type App struct {
	cfg     *config.Config
	logg    *logger.Logger
	journal *journal.Journal
	locker  scopelock.Locker
	flags   scopeFlags

	closers []func() error
}

// Bootstrap loads the environment, configuration, and the optional
// redis lock and journal backends.
func Bootstrap(ctx context.Context) (*App, error) {
	logg := logger.New(logger.Options{ServiceName: "mediactl"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logg = logger.New(logger.Options{
		ServiceName: "mediactl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	app := &App{cfg: cfg, logg: logg}

	if cfg.Redis.Enabled() {
		locker, err := scopelock.NewRedisLocker(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.locker = locker
		app.closers = append(app.closers, locker.Close)
	} else {
		app.locker = scopelock.NewKeyedMutex()
	}

	jrnl, err := journal.Open(ctx, cfg.Journal, logg)
	if err != nil {
		return nil, err
	}
	app.journal = jrnl
	app.closers = append(app.closers, jrnl.Close)

	return app, nil
}

func (a *App) Close() error {
	var errs error
	for _, close := range a.closers {
		errs = multierr.Append(errs, close())
	}
	return errs
}

func (a *App) scope() (scope.Scope, error) {
	entityType, err := enums.ParseEntityType(a.flags.EntityType)
	if err != nil {
		return scope.Scope{}, err
	}
	sc := scope.Scope{EntityType: entityType, EntityID: a.flags.EntityID, Purpose: a.flags.Purpose}
	return sc, sc.Validate()
}

// openSession builds a hydrated session for the flagged scope.
func (a *App) openSession(ctx context.Context) (*session.Session, error) {
	sc, err := a.scope()
	if err != nil {
		return nil, err
	}

	client, err := transport.NewClient(a.cfg.API, transport.EnvTokenSource{})
	if err != nil {
		return nil, err
	}

	sess, err := session.New(scope.UploadConfig{
		EntityType:    sc.EntityType,
		EntityID:      sc.EntityID,
		Purpose:       sc.Purpose,
		MaxFiles:      a.cfg.Media.MaxFiles,
		MaxSizeMB:     a.cfg.Media.MaxSizeMB,
		AcceptedTypes: a.cfg.Media.AcceptedTypes,
	}, session.Options{
		Backend:      client,
		Locker:       a.locker,
		Logger:       a.logg,
		Recorder:     a.journal,
		ProgressHold: a.cfg.Media.ProgressHold,
	})
	if err != nil {
		return nil, err
	}

	if err := sess.Fetch(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}
