package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/user-management/internal/client/api"
	"github.com/magabrotheeeer/user-management/internal/client/guard"
	"github.com/magabrotheeeer/user-management/internal/lib/password"
	"github.com/magabrotheeeer/user-management/internal/models"
)

var errPasswordMismatch = errors.New("passwords do not match")

// Profile открывает экран профиля.
func (a *App) Profile(ctx context.Context) error {
	return a.open(ctx, guard.ViewProfile)
}

func (a *App) showProfile(ctx context.Context) error {
	p, err := a.backend.Profile(ctx)
	if err != nil {
		return err
	}
	if err := a.store.UpdateAccount(*p); err != nil {
		return err
	}
	printProjection(a, p)
	return nil
}

func printProjection(a *App, p *models.Projection) {
	fmt.Fprintf(a.out, "ID:         %s\n", p.ID)
	fmt.Fprintf(a.out, "Full name:  %s\n", p.FullName)
	fmt.Fprintf(a.out, "Email:      %s\n", p.Email)
	fmt.Fprintf(a.out, "Role:       %s\n", p.Role)
	if p.Status != "" {
		fmt.Fprintf(a.out, "Status:     %s\n", p.Status)
	}
	fmt.Fprintf(a.out, "Last login: %s\n", formatTime(p.LastLogin))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

// Edit изменяет имя и email. Пустой ввод оставляет поле без изменений.
func (a *App) Edit(ctx context.Context) error {
	ok, err := a.allow(ctx)
	if !ok || err != nil {
		return err
	}
	cur := a.store.Current().Account

	fullName, err := a.prompt(fmt.Sprintf("Full name [%s]", cur.FullName))
	if err != nil {
		return err
	}
	email, err := a.prompt(fmt.Sprintf("Email [%s]", cur.Email))
	if err != nil {
		return err
	}
	if fullName == "" && email == "" {
		fmt.Fprintln(a.out, "Nothing to change.")
		return nil
	}
	return a.update(ctx, api.ProfileUpdate{FullName: fullName, Email: email})
}

// Passwd меняет пароль. Политика проверяется до отправки запроса.
func (a *App) Passwd(ctx context.Context) error {
	ok, err := a.allow(ctx)
	if !ok || err != nil {
		return err
	}

	pw, err := a.secret("New password")
	if err != nil {
		return err
	}
	if err := password.Validate(pw); err != nil {
		return err
	}
	confirm, err := a.secret("Repeat new password")
	if err != nil {
		return err
	}
	if pw != confirm {
		return errPasswordMismatch
	}
	return a.update(ctx, api.ProfileUpdate{Password: pw})
}

func (a *App) update(ctx context.Context, upd api.ProfileUpdate) error {
	p, err := a.backend.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	if err := a.store.UpdateAccount(*p); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated.")
	printProjection(a, p)
	return nil
}
