package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/tracker/internal/service"
	"github.com/nhle/tracker/internal/ui/todolist"
)

func runTodos(args []string) error {
	fs, common := newFlagSet("todos")
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

	ctx, p, err := a.signedIn(ctx)
	if err != nil {
		return err
	}
	if p.IsAnonymous() {
		return service.ErrNotAuthenticated
	}
	user, _ := p.User()
	name := user.Name
	if name == "" {
		name = user.Email
	}

	_, err = tea.NewProgram(todolist.New(ctx, a.svc, name), tea.WithAltScreen()).Run()
	return err
}
