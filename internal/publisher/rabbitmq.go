package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"newsagent/internal/domain"
)

const (
	EventArticleIngested = "article.ingested"
	EventHighRating      = "article.high_rating"
)

// RabbitMQ publishes events to a topic exchange. Each event goes out under
// "<routing key>.<event type>", so consumers can bind to one type or to all.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

// Config configures the publisher. QueueName is optional; when set, a durable
// queue bound to every event type is declared for consumers that do not
// manage their own.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
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

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"routing_key", cfg.RoutingKey,
		"queue", cfg.QueueName,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if cfg.QueueName == "" {
		return nil
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, cfg.RoutingKey+".#", cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Event is the message body for every published event.
type Event struct {
	Type      string          `json:"type"`
	Article   *domain.Article `json:"article,omitempty"`
	Alert     *domain.Alert   `json:"alert,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// PublishArticle announces a newly stored article.
func (r *RabbitMQ) PublishArticle(ctx context.Context, article *domain.Article) error {
	if err := r.publish(ctx, Event{Type: EventArticleIngested, Article: article}); err != nil {
		return err
	}

	r.logger.Debug("published article",
		"article_id", article.ID,
		"url", article.URL,
	)

	return nil
}

func (r *RabbitMQ) Name() string { return "rabbitmq" }

// SendAlert publishes a high-rating alert, making the broker a secondary channel.
func (r *RabbitMQ) SendAlert(ctx context.Context, alert domain.Alert) error {
	return r.publish(ctx, Event{Type: EventHighRating, Alert: &alert})
}

func (r *RabbitMQ) publish(ctx context.Context, event Event) error {
	event.Timestamp = time.Now().UTC()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey+"."+event.Type,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Type:         event.Type,
			Body:         body,
			Timestamp:    event.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

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
