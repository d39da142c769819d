package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nhle/tracker/internal/credential"
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/service"
	"github.com/nhle/tracker/internal/session"
	"github.com/nhle/tracker/internal/store"
)

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	configPath string
	debug      bool
}

func newFlagSet(name string) (*pflag.FlagSet, *commonFlags) {
	common := &commonFlags{}
	fs := pflag.NewFlagSet("tracker "+name, pflag.ContinueOnError)
	fs.StringVar(&common.configPath, "config", model.DefaultConfigPath(), "path to the configuration file")
	fs.BoolVar(&common.debug, "debug", false, "enable debug logging")
	return fs, common
}

// app holds the collaborators shared by the subcommands.
type app struct {
	cfg      *model.AppConfig
	logger   *slog.Logger
	store    *store.SQLiteStore
	sessions *session.Store
	svc      *service.Service
	resolver *identity.Resolver
	tokens   credential.TokenStore
	closers  []func() error
}

func newLogger(level string, debug bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if debug || os.Getenv("TRACKER_DEBUG") != "" {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openApp loads configuration and opens the database and session backend.
func openApp(ctx context.Context, common *commonFlags) (*app, error) {
	cfg, err := model.LoadConfig(common.configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log.Level, common.debug)

	if path := cfg.Database.Path; path != ":memory:" && !strings.Contains(path, "mode=memory") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		tokens:  credential.KeyringTokenStore{},
		closers: []func() error{st.Close},
	}

	var repo session.Repository = st
	if cfg.Session.Backend == model.SessionBackendRedis {
		rdb, err := session.DialRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		repo = session.NewRedisRepository(rdb, cfg.Redis.Prefix)
	}
	logger.Debug("opened store", "path", cfg.Database.Path, "sessions", cfg.Session.Backend)

	a.sessions = session.NewStore(repo, nil)
	a.svc = service.New(st, a.sessions, logger)
	a.resolver = identity.NewResolver(a.sessions, st)
	return a, nil
}

// Close releases everything openApp acquired, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
}

// signedIn resolves the token kept in the keyring and returns a context
// carrying the principal.
func (a *app) signedIn(ctx context.Context) (context.Context, identity.Principal, error) {
	token, err := a.tokens.Load()
	if err != nil {
		return ctx, identity.Anonymous, err
	}
	p, err := a.resolver.Resolve(ctx, token)
	if err != nil {
		return ctx, identity.Anonymous, err
	}
	return identity.WithPrincipal(ctx, p), p, nil
}
