package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/user-management/internal/client/guard"
	"github.com/magabrotheeeer/user-management/internal/client/session"
	"github.com/magabrotheeeer/user-management/internal/lib/password"
)

var errRequired = errors.New("all fields are required")

// Signup регистрирует учётную запись и сразу выполняет вход.
func (a *App) Signup(ctx context.Context) error {
	fullName, err := a.prompt("Full name")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	pw, err := a.secret("Password")
	if err != nil {
		return err
	}
	if fullName == "" || email == "" || pw == "" {
		return errRequired
	}
	if err := password.Validate(pw); err != nil {
		return err
	}

	sess, err := a.backend.Signup(ctx, fullName, email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. Welcome, %s!\n", sess.Account.FullName)
	return a.startSession(ctx, sess)
}

// Login запрашивает email и пароль и открывает экран по умолчанию для роли.
func (a *App) Login(ctx context.Context) error {
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	pw, err := a.secret("Password")
	if err != nil {
		return err
	}
	if email == "" || pw == "" {
		return errRequired
	}

	sess, err := a.backend.Login(ctx, email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Login successful. Welcome back, %s!\n", sess.Account.FullName)
	return a.startSession(ctx, sess)
}

func (a *App) startSession(ctx context.Context, sess *session.Session) error {
	if err := a.store.Login(*sess); err != nil {
		return err
	}
	return a.open(ctx, guard.DefaultView(sess.Account.Role))
}

// Logout завершает сессию.
func (a *App) Logout(_ context.Context) error {
	if err := a.store.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
