// Package guard решает, можно ли показать экран клиента текущей сессии.
package guard

import (
	"slices"

	"github.com/magabrotheeeer/user-management/internal/client/session"
	"github.com/magabrotheeeer/user-management/internal/models"
)

// View — экран терминального клиента.
type View string

// Экраны клиента.
const (
	ViewLogin   View = "login"
	ViewSignup  View = "signup"
	ViewProfile View = "profile"
	ViewAdmin   View = "admin"
)

// Decision — результат проверки: либо показать экран, либо перейти на Redirect.
type Decision struct {
	Render   bool
	Redirect View
}

// DefaultView возвращает экран по умолчанию для роли.
func DefaultView(role models.Role) View {
	if role == models.RoleAdmin {
		return ViewAdmin
	}
	return ViewProfile
}

// Guard проверяет сессию и, если roles не пусты, роль учётной записи.
// Без сессии ведёт на вход, при неподходящей роли на экран по умолчанию.
func Guard(sess *session.Session, roles ...models.Role) Decision {
	if sess == nil || sess.Token == "" {
		return Decision{Redirect: ViewLogin}
	}
	if len(roles) == 0 || slices.Contains(roles, sess.Account.Role) {
		return Decision{Render: true}
	}
	return Decision{Redirect: DefaultView(sess.Account.Role)}
}
