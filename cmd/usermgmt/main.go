// Command usermgmt — терминальный клиент user-management.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/user-management/internal/client/api"
	"github.com/magabrotheeeer/user-management/internal/client/cli"
	"github.com/magabrotheeeer/user-management/internal/client/session"
	"github.com/magabrotheeeer/user-management/internal/config"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("cannot read config: %v", err)
	}

	dir := cfg.SessionDir
	if dir == "" {
		if dir, err = session.DefaultDir(); err != nil {
			log.Fatalf("%v", err)
		}
	}
	store, err := session.Open(dir)
	if err != nil {
		log.Fatalf("%v", err)
	}

	client := api.New(cfg.ServerURL, store, api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(store, client, os.Stdin, os.Stdout)
	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
