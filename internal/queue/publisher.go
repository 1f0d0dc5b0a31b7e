package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/oops"

	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// DefaultExchange is the topic exchange catalog events are published to.
const DefaultExchange = "catalog.events"

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// publishTimeout bounds one Publish call, dial and handshake included.
const publishTimeout = 5 * time.Second

// dialFunc opens a channel and returns a func that closes the channel and
// its connection. ctx bounds the TCP connect and the AMQP handshake.
type dialFunc func(ctx context.Context, url string) (channel, func(), error)

func dialAMQP(ctx context.Context, url string) (channel, func(), error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			nc, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// Cleared by the client once the handshake completes.
			if deadline, ok := ctx.Deadline(); ok {
				if err := nc.SetDeadline(deadline); err != nil {
					_ = nc.Close()
					return nil, err
				}
			}
			return nc, nil
		},
	})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, func() {
		_ = ch.Close()
		_ = conn.Close()
	}, nil
}

// Publisher sends MovieEvents to a durable topic exchange, using the event
// type as routing key. It opens a connection per message; catalog writes are
// infrequent and this keeps the publisher free of reconnect state.
type Publisher struct {
	url      string
	exchange string
	dial     dialFunc
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

var _ catalog.Publisher = (*Publisher)(nil)

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		url:      url,
		exchange: DefaultExchange,
		dial:     dialAMQP,
		timeout:  publishTimeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Publish sends one event for m under routingKey. The whole exchange with
// the broker is bounded by the publisher timeout.
func (p *Publisher) Publish(ctx context.Context, routingKey string, m model.Movie) error {
	ev := MovieEvent{Type: routingKey, MovieID: m.ID, OccurredAt: p.now().UTC()}
	if routingKey != catalog.EventMovieDeleted {
		ev.Movie = &m
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return oops.Wrapf(err, "marshal %s event", routingKey)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ch, closeFn, err := p.dial(ctx, p.url)
	if err != nil {
		return oops.With("exchange", p.exchange).Wrapf(err, "dial broker")
	}
	defer closeFn()

	// Idempotent. Durable so the exchange survives broker restarts.
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return oops.With("exchange", p.exchange).Wrapf(err, "declare exchange")
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    ev.OccurredAt,
		Type:         routingKey,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return oops.With("exchange", p.exchange, "routing_key", routingKey).Wrapf(err, "publish")
	}
	p.logger.DebugContext(ctx, "catalog event published",
		slog.String("routing_key", routingKey), slog.Int64("movie_id", m.ID), slog.String("message_id", msg.MessageId))
	return nil
}
