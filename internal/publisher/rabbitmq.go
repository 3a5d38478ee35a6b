package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"video_importer/internal/domain"
)

const eventArticleImported = "article.imported"

// ImportedEvent is the payload sent once a channel upload became a draft
// article. ID doubles as the AMQP message id so consumers can drop redeliveries.
type ImportedEvent struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	VideoID         string         `json:"video_id"`
	ArticleID       int64          `json:"article_id"`
	FeaturedMediaID *int64         `json:"featured_media_id,omitempty"`
	Article         domain.Article `json:"article"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

func newImportedEvent(article *domain.Article, at time.Time) ImportedEvent {
	return ImportedEvent{
		ID:              uuid.NewString(),
		Type:            eventArticleImported,
		VideoID:         article.Meta[domain.MetaVideoID],
		ArticleID:       article.ID,
		FeaturedMediaID: article.FeaturedMediaID,
		Article:         *article,
		OccurredAt:      at.UTC(),
	}
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

// RabbitMQ announces imported articles on a durable direct exchange.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	now     func() time.Time
	logger  *slog.Logger
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("rabbitmq publisher ready", "exchange", cfg.Exchange, "queue", cfg.QueueName)

	return &RabbitMQ{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.With("component", "publisher"),
	}, nil
}

// declareTopology makes the exchange, queue and binding exist. All three are
// durable and idempotent, so every process start may run it.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}
	if err := ch.QueueBind(cfg.QueueName, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", cfg.QueueName, cfg.Exchange, err)
	}
	return nil
}

func (r *RabbitMQ) Publish(ctx context.Context, article *domain.Article) error {
	event := newImportedEvent(article, r.now())

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	msg := amqp.Publishing{
		MessageId:    event.ID,
		Type:         event.Type,
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    event.OccurredAt,
		Body:         body,
	}
	if err := r.channel.PublishWithContext(ctx, r.cfg.Exchange, r.cfg.RoutingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s event for article %d: %w", event.Type, article.ID, err)
	}

	r.logger.Debug("article event published", "event_id", event.ID, "article_id", article.ID, "video_id", event.VideoID)
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
