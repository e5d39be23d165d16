package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// Input indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
	confirm       = Confirm
)

// Register prompts for an email, optional names and a password (twice) and
// creates the account. The server logs the new user in straight away.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.Wipe(password)

	again, err := getPassword(a.out, "Repeat password")
	if err != nil {
		return err
	}
	defer common.Wipe(again)

	user, err := a.authService.Register(ctx, models.Registration{
		Email:           email,
		Username:        username,
		Password:        string(password),
		PasswordConfirm: string(again),
	})
	if err != nil {
		return err
	}

	a.email = user.Email
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", user.Email)
	return nil
}

// Login prompts for credentials and authenticates against the server.
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.Wipe(password)

	user, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.email = user.Email
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
	return nil
}

// Logout revokes the session and forgets it locally.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.email = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Profile prints the account. With "edit" it first asks for new values;
// an empty answer keeps the current one.
func (a *App) Profile(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "edit" {
		user, err := a.authService.Profile(ctx)
		if err != nil {
			return err
		}
		printUser(a.out, user)
		return nil
	}

	var upd models.ProfileUpdate
	prompts := []struct {
		label string
		dst   **string
	}{
		{"New email (empty to keep)", &upd.Email},
		{"New username (empty to keep)", &upd.Username},
		{"New first name (empty to keep)", &upd.FirstName},
		{"New last name (empty to keep)", &upd.LastName},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.label, a.out)
		if err != nil {
			return err
		}
		if v != "" {
			*p.dst = &v
		}
	}

	user, err := a.authService.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	a.email = user.Email
	printUser(a.out, user)
	return nil
}
