// Package cli — терминальный клиент user-management.
//
// Каждый экран (вход, профиль, админ-панель) открывается через guard:
// без сессии клиент переходит к входу, при чужой роли на экран по умолчанию.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/magabrotheeeer/user-management/internal/client/api"
	"github.com/magabrotheeeer/user-management/internal/client/guard"
	"github.com/magabrotheeeer/user-management/internal/client/session"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// Backend — операции REST API, нужные клиенту.
type Backend interface {
	Signup(ctx context.Context, fullName, email, password string) (*session.Session, error)
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Profile(ctx context.Context) (*models.Projection, error)
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*models.Projection, error)
	ListUsers(ctx context.Context, page, limit int) (*api.UsersPage, error)
	SetStatus(ctx context.Context, id string, status models.Status) (string, error)
}

// App — состояние терминального клиента.
type App struct {
	reader  *bufio.Reader
	out     io.Writer
	store   *session.Store
	backend Backend
	ttyFD   int
	limit   int
}

// DefaultPageSize — размер страницы списка пользователей.
const DefaultPageSize = 10

// NewApp создаёт клиент. Если in — терминал, пароли читаются без эха.
func NewApp(store *session.Store, backend Backend, in io.Reader, out io.Writer) *App {
	a := &App{
		reader:  bufio.NewReader(in),
		out:     out,
		store:   store,
		backend: backend,
		ttyFD:   -1,
		limit:   DefaultPageSize,
	}
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		a.ttyFD = int(f.Fd())
	}
	return a
}

// Run запускает цикл команд до exit или конца ввода.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "User Management client. Type 'help' for commands.")
	if sess := a.store.Current(); sess != nil {
		fmt.Fprintf(a.out, "Logged in as %s (%s)\n", sess.Account.Email, sess.Account.Role)
	}
	runREPL(ctx, a, a.reader, a.out, a.status)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.store.Current() != nil
}

func (a *App) status() string {
	sess := a.store.Current()
	if sess == nil {
		return "guest"
	}
	return fmt.Sprintf("%s (%s)", sess.Account.Email, sess.Account.Role)
}

var viewRoles = map[guard.View][]models.Role{
	guard.ViewAdmin: {models.RoleAdmin},
}

// open показывает экран view, если guard разрешает, иначе выполняет переход.
func (a *App) open(ctx context.Context, view guard.View) error {
	if view == guard.ViewLogin || view == guard.ViewSignup {
		return a.render(ctx, view)
	}
	d := guard.Guard(a.store.Current(), viewRoles[view]...)
	if d.Render {
		return a.render(ctx, view)
	}
	if d.Redirect == guard.ViewLogin {
		fmt.Fprintln(a.out, "Please log in first.")
	} else {
		fmt.Fprintf(a.out, "Access denied, opening %s.\n", d.Redirect)
	}
	return a.render(ctx, d.Redirect)
}

// allow проверяет действие так же, как экран, и при отказе выполняет переход.
func (a *App) allow(ctx context.Context, roles ...models.Role) (bool, error) {
	d := guard.Guard(a.store.Current(), roles...)
	if d.Render {
		return true, nil
	}
	if d.Redirect == guard.ViewLogin {
		fmt.Fprintln(a.out, "Please log in first.")
	} else {
		fmt.Fprintf(a.out, "Access denied, opening %s.\n", d.Redirect)
	}
	return false, a.render(ctx, d.Redirect)
}

func (a *App) render(ctx context.Context, view guard.View) error {
	switch view {
	case guard.ViewLogin:
		return a.Login(ctx)
	case guard.ViewSignup:
		return a.Signup(ctx)
	case guard.ViewAdmin:
		return a.showUsers(ctx, 1)
	default:
		return a.showProfile(ctx)
	}
}

func (a *App) prompt(text string) (string, error) {
	return GetSimpleText(a.reader, text, a.out)
}

func (a *App) secret(text string) (string, error) {
	if a.ttyFD >= 0 {
		return GetPassword(a.ttyFD, text, a.out)
	}
	return a.prompt(text)
}
