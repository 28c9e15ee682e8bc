package notification_fx

import (
	"os"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"dynamo/internal/services"
)

var Module = fx.Provide(provideNotificationPublisher)

func provideNotificationPublisher(logger *zap.Logger) (services.NotificationPublisher, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return services.NewNoopNotificationPublisher(logger), nil
	}
	return services.NewKafkaNotificationPublisher(strings.Split(brokers, ","), logger)
}
