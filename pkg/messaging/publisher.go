package messaging

import (
	"context"
	"fmt"

	"github.com/matst80/flow-finder/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Publisher interface {
	ContentChanged(ctx context.Context, change ContentChange) error
	ContactReceived(ctx context.Context, req types.ContactRequest) error
}

// AmqpPublisher sends events to topic exchanges named <prefix>_<topic>.
type AmqpPublisher struct {
	conn   *amqp.Connection
	prefix string
}

// Connect dials RabbitMQ and declares every topic.
func Connect(url, prefix string) (*AmqpPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	for _, topic := range []ChangeTopic{ContentChanged, ContactReceived} {
		if err := DefineTopic(ch, prefix, topic); err != nil {
			conn.Close()
			return nil, fmt.Errorf("define topic %s: %w", topic, err)
		}
	}
	return &AmqpPublisher{conn: conn, prefix: prefix}, nil
}

func (p *AmqpPublisher) ContentChanged(ctx context.Context, change ContentChange) error {
	return SendChange(ctx, p.conn, p.prefix, ContentChanged, change)
}

func (p *AmqpPublisher) ContactReceived(ctx context.Context, req types.ContactRequest) error {
	return SendChange(ctx, p.conn, p.prefix, ContactReceived, req)
}

// ListenContentChanges consumes content changes on a channel of its own.
func (p *AmqpPublisher) ListenContentChanges(ctx context.Context, logger *zap.Logger, fn func(context.Context, ContentChange) error) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	return ListenToTopic(ctx, ch, p.prefix, ContentChanged, logger, fn)
}

func (p *AmqpPublisher) Close() error {
	return p.conn.Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct {
	Logger *zap.Logger
}

func (n NopPublisher) ContentChanged(ctx context.Context, change ContentChange) error {
	if n.Logger != nil {
		n.Logger.Debug("content changed", zap.String("kind", change.Kind), zap.String("id", change.Id), zap.String("action", string(change.Action)))
	}
	return nil
}

func (n NopPublisher) ContactReceived(ctx context.Context, req types.ContactRequest) error {
	if n.Logger != nil {
		n.Logger.Debug("contact received", zap.String("id", req.Id))
	}
	return nil
}
