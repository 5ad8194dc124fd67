// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	JWTToken        `yaml:"jwttoken"`
	Auth            `yaml:"auth"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":3000"`
	Port        string        `yaml:"port" env:"PORT"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"5"`
	RateBurst   int           `yaml:"rate_burst" env-default:"10"`
}

// ListenAddress возвращает адрес для http.Server. PORT, если задан, имеет приоритет.
func (h HTTPServer) ListenAddress() string {
	if h.Port != "" {
		return ":" + h.Port
	}
	return h.AddressHTTP
}

// Storage структура для выбора и настройки хранилища учётных записей
type Storage struct {
	Driver           string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongodb"`
	MongoURI         string        `yaml:"mongo_uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabase    string        `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"user-management"`
	PostgresDSN      string        `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	OperationTimeout time.Duration `yaml:"operation_timeout" env-default:"5s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кэширование.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

// RabbitMQ структура для публикации событий учётных записей.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env-default:"accounts"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном.
// Срок жизни токена не настраивается: сессия живёт jwt.DefaultTTL.
type JWTToken struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET"`
}

// Auth структура с политикой регистрации
type Auth struct {
	AdminEmails []string `yaml:"admin_emails" env:"ADMIN_EMAILS" env-separator:","`
	BcryptCost  int      `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// Load читает .env (если есть), затем YAML из CONFIG_PATH (если задан) и
// переменные окружения, и проверяет результат.
func Load() (*Config, error) {
	const op = "config.Load"
	_ = godotenv.Load()

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Validate проверяет обязательные параметры.
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("jwt secret key is not set")
	}
	switch c.Driver {
	case "mongodb", "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("postgres_dsn is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  MongoDatabase: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"Auth:\n"+
			"  AdminEmails: %d\n"+
			"  BcryptCost: %d\n",
		c.Env,
		c.Driver,
		c.MongoDatabase,
		c.AddressRedis,
		c.DB,
		c.ListenAddress(),
		c.TimeoutHTTP,
		mask(c.JWTSecretKey),
		len(c.AdminEmails),
		c.BcryptCost,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}
