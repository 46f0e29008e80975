package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Backend struct {
	BaseURL    string        `yaml:"base_url" env:"RESTAURANT_API_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"RESTAURANT_API_TIMEOUT"`
	AuthScheme string        `yaml:"auth_scheme" env:"RESTAURANT_API_AUTH_SCHEME"`
}

// Storage selects where the client keeps its durable state: sqlite (local file),
// postgres (shared by several terminals, see Database) or memory.
type Storage struct {
	Driver string `yaml:"driver" env:"RESTAURANT_STORAGE_DRIVER"`
	Path   string `yaml:"path" env:"RESTAURANT_STORAGE_PATH"`
}

type DB struct {
	Host     string `yaml:"host" env:"RESTAURANT_DB_HOST"`
	Port     int    `yaml:"port" env:"RESTAURANT_DB_PORT"`
	User     string `yaml:"user" env:"RESTAURANT_DB_USER"`
	Pass     string `yaml:"password" env:"RESTAURANT_DB_PASSWORD"`
	Name     string `yaml:"database" env:"RESTAURANT_DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"RESTAURANT_DB_SSLMODE"`
	MaxConns int    `yaml:"max_conns" env:"RESTAURANT_DB_MAX_CONNS"`
}

type MQ struct {
	Enabled  bool   `yaml:"enabled" env:"RESTAURANT_MQ_ENABLED"`
	Host     string `yaml:"host" env:"RESTAURANT_MQ_HOST"`
	Port     int    `yaml:"port" env:"RESTAURANT_MQ_PORT"`
	User     string `yaml:"user" env:"RESTAURANT_MQ_USER"`
	Pass     string `yaml:"password" env:"RESTAURANT_MQ_PASSWORD"`
	VHost    string `yaml:"vhost" env:"RESTAURANT_MQ_VHOST"`
	Exchange string `yaml:"exchange" env:"RESTAURANT_MQ_EXCHANGE"`
	Queue    string `yaml:"queue" env:"RESTAURANT_MQ_QUEUE"`
}

type Kitchen struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"RESTAURANT_KITCHEN_POLL_INTERVAL"`
	Listen       string        `yaml:"listen" env:"RESTAURANT_KITCHEN_LISTEN"`
}

type Log struct {
	Level string `yaml:"level" env:"RESTAURANT_LOG_LEVEL"`
}

type App struct {
	Backend  Backend `yaml:"backend"`
	Storage  Storage `yaml:"storage"`
	Database DB      `yaml:"database"`
	Rabbit   MQ      `yaml:"rabbitmq"`
	Kitchen  Kitchen `yaml:"kitchen"`
	Log      Log     `yaml:"log"`
}

func Default() App {
	return App{
		Backend: Backend{
			BaseURL:    "http://127.0.0.1:8000",
			Timeout:    15 * time.Second,
			AuthScheme: "Token",
		},
		Storage:  Storage{Driver: "sqlite", Path: defaultStatePath()},
		Database: DB{Port: 5432, SSLMode: "disable", MaxConns: 4},
		Rabbit: MQ{
			Port:     5672,
			VHost:    "/",
			Exchange: "notifications_fanout",
			Queue:    "notifications.q",
		},
		Kitchen: Kitchen{PollInterval: 30 * time.Second, Listen: "127.0.0.1:3002"},
		Log:     Log{Level: "info"},
	}
}

// Load layers defaults, the YAML file at path (skipped when path is empty),
// a .env file in the working directory and finally the process environment.
func Load(path string) (App, error) {
	a := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return App{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &a); err != nil {
			return App{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return App{}, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&a); err != nil {
		return App{}, fmt.Errorf("parse env: %w", err)
	}
	if err := a.Validate(); err != nil {
		return App{}, err
	}
	return a, nil
}

func (a App) Validate() error {
	if strings.TrimSpace(a.Backend.BaseURL) == "" {
		return errors.New("invalid config: backend.base_url is required")
	}
	switch a.Backend.AuthScheme {
	case "Token", "Bearer":
	default:
		return fmt.Errorf("invalid config: backend.auth_scheme %q (want Token or Bearer)", a.Backend.AuthScheme)
	}
	switch a.Storage.Driver {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(a.Storage.Path) == "" {
			return errors.New("invalid config: storage.path is required for sqlite")
		}
	case "postgres":
		if a.Database.Host == "" || a.Database.User == "" || a.Database.Name == "" {
			return errors.New("invalid config: database host/user/database are required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid config: unknown storage.driver %q", a.Storage.Driver)
	}
	if a.Kitchen.PollInterval <= 0 {
		return errors.New("invalid config: kitchen.poll_interval must be positive")
	}
	if a.Rabbit.Enabled && (a.Rabbit.Host == "" || a.Rabbit.User == "") {
		return errors.New("invalid config: rabbitmq host/user are required when enabled")
	}
	return nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "config.yml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "restaurant-client.db"
	}
	return dir + string(os.PathSeparator) + "restaurant-client" + string(os.PathSeparator) + "state.db"
}
