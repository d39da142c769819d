package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/pflag"

	"github.com/nhle/tracker/internal/credential"
	"github.com/nhle/tracker/internal/service"
	"github.com/nhle/tracker/internal/theme"
)

func printSuccess(format string, args ...any) {
	fmt.Println(theme.SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func validateEmail(s string) error {
	if !credential.ValidateEmailFormat(credential.NormalizeEmail(s)) {
		return errors.New("not a valid email address")
	}
	return nil
}

func validatePassword(s string) error {
	check := credential.ValidatePasswordStrength(s)
	if !check.Valid {
		return fmt.Errorf("password needs: %v", check.Problems)
	}
	return nil
}

// describe adds validation problems to err's message.
func describe(err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		msg := "invalid input:"
		for _, p := range verr.Problems {
			msg += "\n  - " + p
		}
		return errors.New(msg)
	}
	return err
}

// accountForm asks for the fields of a new account.
func accountForm(in *service.RegisterInput) *huh.Form {
	var confirm string
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&in.Email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Name").
				Description("Shown to other project members").
				Value(&in.Name),
			huh.NewInput().
				Title("Password").
				Description("At least 8 characters with upper and lower case, a digit and a symbol").
				EchoMode(huh.EchoModePassword).
				Value(&in.Password).
				Validate(validatePassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != in.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Stay signed in for 30 days?").
				Value(&in.Remember),
		),
	)
}

func runSetup(args []string) error {
	return createAccount("setup", args, func(ctx context.Context, a *app, in service.RegisterInput) (service.SignedIn, error) {
		return a.svc.Setup(ctx, in)
	})
}

func runRegister(args []string) error {
	return createAccount("register", args, func(ctx context.Context, a *app, in service.RegisterInput) (service.SignedIn, error) {
		return a.svc.Register(ctx, in)
	})
}

func createAccount(name string, args []string, create func(context.Context, *app, service.RegisterInput) (service.SignedIn, error)) error {
	fs, common := newFlagSet(name)
	var in service.RegisterInput
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Name, "name", "", "display name")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := accountForm(&in).Run(); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, common)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := create(ctx, a, in)
	if errors.Is(err, service.ErrConflict) {
		if name == "setup" {
			return errors.New("setup has already been completed")
		}
		return errors.New("an account with this email already exists")
	}
	if err != nil {
		return describe(err)
	}
	if err := a.tokens.Save(out.Session.Token); err != nil {
		return err
	}
	printSuccess("signed in as %s", out.User.Email)
	return nil
}

func runLogin(args []string) error {
	fs, common := newFlagSet("login")
	var in service.LoginInput
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.BoolVar(&in.Remember, "remember", false, "stay signed in for 30 days")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&in.Email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&in.Password),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, common)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.svc.Login(ctx, in)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(out.Session.Token); err != nil {
		return err
	}
	printSuccess("signed in as %s until %s", out.User.Email, out.Session.ExpiresAt.Local().Format("Jan 02 15:04"))
	return nil
}

func runLogout(args []string) error {
	fs, common := newFlagSet("logout")
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

	ctx, _, err = a.signedIn(ctx)
	if err != nil {
		return err
	}
	if err := a.svc.Logout(ctx); err != nil {
		return err
	}
	if err := a.tokens.Clear(); err != nil {
		return err
	}
	printSuccess("signed out")
	return nil
}

func runWhoami(args []string) error {
	fs, common := newFlagSet("whoami")
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

	ctx, _, err = a.signedIn(ctx)
	if err != nil {
		return err
	}
	user, err := a.svc.Me(ctx)
	if err != nil {
		return err
	}

	role := "member"
	if user.IsAdmin {
		role = "administrator"
	}
	fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, role)

	projects, err := a.svc.ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		fmt.Printf("  %s %s\n", theme.RoleStyle(p.Role).Render(string(p.Role)), p.Name)
	}
	return nil
}
