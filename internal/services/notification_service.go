package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifications (receipt emails, reset links) are handled by a downstream
// consumer. Publishing happens after the ledger is committed and a failure
// here never blocks or reverses a capture.

type PaymentCompletedEvent struct {
	EventType         string    `json:"event_type"`
	ProviderOrderID   string    `json:"provider_order_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	AccountID         uuid.UUID `json:"account_id"`
	PlanID            uuid.UUID `json:"plan_id"`
	AmountMinor       int64     `json:"amount_minor"`
	Currency          string    `json:"currency"`
	OccurredAt        int64     `json:"occurred_at"`
}

type PasswordResetEvent struct {
	EventType string `json:"event_type"`
	Email     string `json:"email"`
	Token     string `json:"token"`
}

type NotificationPublisher interface {
	PaymentCompleted(ctx context.Context, event PaymentCompletedEvent) error
	PasswordReset(ctx context.Context, event PasswordResetEvent) error
}

const (
	topicPayments = "dynamo.payments"
	topicAccounts = "dynamo.accounts"
)

type kafkaNotificationPublisher struct {
	producer sarama.SyncProducer
	logger   *zap.Logger
}

func NewKafkaNotificationPublisher(brokers []string, logger *zap.Logger) (NotificationPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	logger.Info("kafka notification publisher initialized", zap.Strings("brokers", brokers))
	return &kafkaNotificationPublisher{producer: producer, logger: logger}, nil
}

func (p *kafkaNotificationPublisher) PaymentCompleted(ctx context.Context, event PaymentCompletedEvent) error {
	event.EventType = "payment.completed"
	return p.publish(topicPayments, event.ProviderOrderID, event)
}

func (p *kafkaNotificationPublisher) PasswordReset(ctx context.Context, event PasswordResetEvent) error {
	event.EventType = "account.password_reset"
	return p.publish(topicAccounts, event.Email, event)
}

func (p *kafkaNotificationPublisher) publish(topic, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	p.logger.Info("notification published",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// noopNotificationPublisher is used when no brokers are configured, e.g. in
// local development.
type noopNotificationPublisher struct {
	logger *zap.Logger
}

func NewNoopNotificationPublisher(logger *zap.Logger) NotificationPublisher {
	return &noopNotificationPublisher{logger: logger}
}

func (p *noopNotificationPublisher) PaymentCompleted(ctx context.Context, event PaymentCompletedEvent) error {
	p.logger.Info("notification skipped (no brokers configured)",
		zap.String("event_type", "payment.completed"),
		zap.String("provider_order_id", event.ProviderOrderID))
	return nil
}

func (p *noopNotificationPublisher) PasswordReset(ctx context.Context, event PasswordResetEvent) error {
	p.logger.Info("notification skipped (no brokers configured)",
		zap.String("event_type", "account.password_reset"))
	return nil
}
