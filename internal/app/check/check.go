// Package check verifies that the configured dependencies are reachable.
package check

import (
	"context"
	"fmt"
	"io"

	"restaurant-client/internal/api"
	"restaurant-client/internal/common/config"
	"restaurant-client/internal/common/db"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/common/mq"
)

type probe struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func Run(ctx context.Context, cfg config.App, lg *logger.Logger, out io.Writer) error {
	probes := []probe{
		{"backend", func(ctx context.Context) (string, error) {
			m, err := api.New(cfg.Backend).Menu(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s, %d menu items", cfg.Backend.BaseURL, m.ItemCount()), nil
		}},
		{"storage", func(ctx context.Context) (string, error) {
			if cfg.Storage.Driver == "memory" {
				return "memory (nothing persisted)", nil
			}
			conn, err := db.Open(ctx, cfg.Storage, cfg.Database)
			if err != nil {
				return "", err
			}
			defer conn.Close()
			if err := conn.PingContext(ctx); err != nil {
				return "", err
			}
			if conn.Dialect == db.Postgres {
				return fmt.Sprintf("postgres %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name), nil
			}
			return "sqlite " + cfg.Storage.Path, nil
		}},
	}
	if cfg.Rabbit.Enabled {
		probes = append(probes, probe{"rabbitmq", func(context.Context) (string, error) {
			client, err := mq.Dial(cfg.Rabbit)
			if err != nil {
				return "", err
			}
			defer client.Close()
			if err := client.Ping(); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s:%d vhost=%q", cfg.Rabbit.Host, cfg.Rabbit.Port, cfg.Rabbit.VHost), nil
		}})
	}

	failed := 0
	for _, p := range probes {
		detail, err := p.run(ctx)
		if err != nil {
			failed++
			lg.Error("dependency_unreachable", err, map[string]any{"dependency": p.name})
			fmt.Fprintf(out, "%-9s FAIL  %v\n", p.name, err)
			continue
		}
		fmt.Fprintf(out, "%-9s OK    %s\n", p.name, detail)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(probes))
	}
	return nil
}
