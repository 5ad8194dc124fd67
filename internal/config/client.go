package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Client настройки терминального клиента
type Client struct {
	ServerURL  string        `env:"USERMGMT_SERVER_URL" env-default:"http://localhost:3000"`
	SessionDir string        `env:"USERMGMT_SESSION_DIR"`
	Timeout    time.Duration `env:"USERMGMT_TIMEOUT" env-default:"10s"`
}

// LoadClient читает .env (если есть) и переменные окружения клиента.
func LoadClient() (*Client, error) {
	const op = "config.LoadClient"
	_ = godotenv.Load()

	var cfg Client
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}
