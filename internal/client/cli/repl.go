package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/user-management/internal/client/api"
	"github.com/magabrotheeeer/user-management/internal/lib/password"
)

// commander — команды, которые вызывает runREPL. App реализует его,
// тесты подставляют заглушку.
type commander interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Edit(ctx context.Context) error
	Passwd(ctx context.Context) error
	Users(ctx context.Context, page int) error
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
}

// runREPL читает строки из reader, первое слово считает командой и
// вызывает соответствующий метод c. Ошибки команд печатаются, цикл
// продолжается. Выход по exit, quit или концу ввода.
//
//	Без входа:  signup, login, help, exit
//	После входа: profile, edit, passwd, users [page],
//	             activate <id>, deactivate <id>, logout, help, exit
func runREPL(ctx context.Context, c commander, reader *bufio.Reader, out io.Writer, statusFn func() string) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "um [%s]> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if c.isLoggedIn() {
				fmt.Fprintln(out, "Available commands: profile, edit, passwd, users [page], activate <id>, deactivate <id>, logout, exit")
			} else {
				fmt.Fprintln(out, "Available commands: signup, login, exit")
			}
		case "signup", "register":
			cmdErr = c.Signup(ctx)
		case "login":
			cmdErr = c.Login(ctx)
		case "logout":
			cmdErr = c.Logout(ctx)
		case "profile", "me":
			cmdErr = c.Profile(ctx)
		case "edit":
			cmdErr = c.Edit(ctx)
		case "passwd":
			cmdErr = c.Passwd(ctx)
		case "users":
			page := 0
			if len(args) > 0 {
				// нечисловая страница означает страницу по умолчанию
				page, _ = strconv.Atoi(args[0])
			}
			cmdErr = c.Users(ctx, page)
		case "activate", "deactivate":
			if len(args) != 1 {
				fmt.Fprintf(out, "Usage: %s <id>\n", cmd)
				continue
			}
			if cmd == "activate" {
				cmdErr = c.Activate(ctx, args[0])
			} else {
				cmdErr = c.Deactivate(ctx, args[0])
			}
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(out, "Error:", errorText(cmdErr))
		}
	}
}

// errorText возвращает сообщение для пользователя.
func errorText(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return "session expired, please log in again"
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, password.ErrWeak):
		return password.ErrWeak.Error()
	case errors.Is(err, io.EOF):
		return "input closed"
	}
	return err.Error()
}
