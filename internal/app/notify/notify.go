package notify

import (
	"context"
	"errors"

	"restaurant-client/internal/common/config"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/common/mq"
	notificator "restaurant-client/internal/notificator/service"
)

// Run consumes order status notifications until ctx is cancelled.
func Run(ctx context.Context, cfg config.MQ, lg *logger.Logger) error {
	if cfg.Host == "" || cfg.User == "" {
		return errors.New("rabbitmq host and user are required for the notification subscriber")
	}
	client, err := mq.Dial(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	svc := notificator.NewNotificatorService(client, cfg.Exchange, cfg.Queue, lg.With("notification-subscriber"))
	return svc.Run(ctx)
}
