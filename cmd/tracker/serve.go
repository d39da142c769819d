package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nhle/tracker/internal/httpapi"
	"github.com/nhle/tracker/internal/session"
)

func runServe(args []string) error {
	fs, common := newFlagSet("serve")
	var addr string
	fs.StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, common)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	sweeper := session.NewSweeper(a.sessions, a.cfg.Session.PurgeInterval, a.logger)
	sweeper.Start()
	defer sweeper.Stop()

	srv := httpapi.New(a.svc, a.resolver, httpapi.Options{
		SecureCookies: a.cfg.Server.SecureCookies,
		Logger:        a.logger,
	})

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runPurgeSessions(args []string) error {
	fs, common := newFlagSet("purge-sessions")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, common)
	if err != nil {
		return err
	}
	defer a.Close()

	sweeper := session.NewSweeper(a.sessions, 0, a.logger)
	n, err := sweeper.SweepOnce(ctx)
	if err != nil {
		return err
	}
	printSuccess("purged %d expired sessions", n)
	return nil
}
