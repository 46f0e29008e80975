package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"restaurant-client/internal/common/config"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Rebind turns '?' placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type Conn struct {
	*sql.DB
	Dialect Dialect
}

func (c *Conn) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

const (
	maxRetries = 10
	retryDelay = 2 * time.Second
	pingTTL    = 5 * time.Second
)

// Open connects to the configured SQL storage and applies the schema.
// Postgres is retried like a service dependency; a sqlite file either opens or not.
func Open(ctx context.Context, st config.Storage, pg config.DB) (*Conn, error) {
	var (
		c   *Conn
		err error
	)
	switch st.Driver {
	case "sqlite":
		c, err = openSQLite(ctx, st.Path)
	case "postgres":
		c, err = openPostgres(ctx, pg)
	default:
		return nil, fmt.Errorf("storage driver %q has no sql backend", st.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, c); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return c, nil
}

func openSQLite(ctx context.Context, path string) (*Conn, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := clean + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under the dashboard's goroutines
	sqlDB.SetMaxOpenConns(1)
	pctx, cancel := context.WithTimeout(ctx, pingTTL)
	defer cancel()
	if err := sqlDB.PingContext(pctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Conn{DB: sqlDB, Dialect: SQLite}, nil
}

func openPostgres(ctx context.Context, cfg config.DB) (*Conn, error) {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Pass, cfg.Name, sslmode)

	var (
		sqlDB *sql.DB
		err   error
	)
	for i := 1; i <= maxRetries; i++ {
		sqlDB, err = sql.Open("pgx", dsn)
		if err == nil {
			if cfg.MaxConns > 0 {
				sqlDB.SetMaxOpenConns(cfg.MaxConns)
			}
			pctx, cancel := context.WithTimeout(ctx, pingTTL)
			err = sqlDB.PingContext(pctx)
			cancel()
			if err == nil {
				return &Conn{DB: sqlDB, Dialect: Postgres}, nil
			}
			_ = sqlDB.Close()
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, err)
}
