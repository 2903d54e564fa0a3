package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/client/services"
	"github.com/dmitrijs2005/rollcall/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and signs the operator in on the server.
// Logging in needs the server; scanning does not, so a failed login leaves
// the station usable offline.
func (a *App) Login(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.lines, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	op, err := a.authService.Login(ctx, email, password)
	switch {
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, scanning continues offline")
		return err
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, "Invalid email or password")
		return err
	case errors.Is(err, common.ErrTooManyAttempts):
		fmt.Fprintln(a.out, "Too many attempts, try again later")
		return err
	case err != nil:
		fmt.Fprintf(a.out, "Login unsuccessful: %s\n", err)
		return err
	}

	a.setOperator(op)
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", op.Email, op.Role)
	return nil
}

// Logout forgets the session. The roster and pending check-ins stay on the
// station.
func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.setOperator(services.Operator{})
	fmt.Fprintln(a.out, "Signed out")
	return nil
}
