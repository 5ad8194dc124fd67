package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/magabrotheeeer/user-management/internal/client/guard"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Users открывает админ-панель на странице page.
func (a *App) Users(ctx context.Context, page int) error {
	d := guard.Guard(a.store.Current(), viewRoles[guard.ViewAdmin]...)
	if !d.Render {
		return a.open(ctx, guard.ViewAdmin)
	}
	return a.showUsers(ctx, page)
}

func (a *App) showUsers(ctx context.Context, page int) error {
	res, err := a.backend.ListUsers(ctx, page, a.limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tSTATUS\tLAST LOGIN")
	for _, u := range res.Users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.FullName, u.Email, u.Role, u.Status, formatTime(u.LastLogin))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Page %d of %d (%d users)\n", res.Page, res.TotalPages, res.Total)
	return nil
}

// Activate включает учётную запись id.
func (a *App) Activate(ctx context.Context, id string) error {
	return a.setStatus(ctx, id, models.StatusActive)
}

// Deactivate отключает учётную запись id.
func (a *App) Deactivate(ctx context.Context, id string) error {
	return a.setStatus(ctx, id, models.StatusInactive)
}

func (a *App) setStatus(ctx context.Context, id string, status models.Status) error {
	ok, err := a.allow(ctx, models.RoleAdmin)
	if !ok || err != nil {
		return err
	}
	if cur := a.store.Current(); cur != nil && cur.Account.ID == id {
		fmt.Fprintln(a.out, "You cannot change your own status.")
		return nil
	}
	msg, err := a.backend.SetStatus(ctx, id, status)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
