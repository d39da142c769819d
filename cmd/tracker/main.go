// Command tracker runs the task tracker API and its terminal client.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/nhle/tracker/internal/theme"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcommand, rest := args[0], args[1:]
	switch subcommand {
	case "serve":
		return runServe(rest)
	case "setup":
		return runSetup(rest)
	case "register":
		return runRegister(rest)
	case "login":
		return runLogin(rest)
	case "logout":
		return runLogout(rest)
	case "whoami":
		return runWhoami(rest)
	case "todos":
		return runTodos(rest)
	case "purge-sessions":
		return runPurgeSessions(rest)
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: tracker <subcommand> [flags]

Subcommands:
  serve            Run the HTTP API
  setup            Create the first (administrator) account
  register         Create an account
  login            Sign in and keep the session in the OS keyring
  logout           End the stored session
  whoami           Show the signed-in user
  todos            Browse your todos
  purge-sessions   Delete expired sessions

Every subcommand accepts --config and --debug.
`)
}
