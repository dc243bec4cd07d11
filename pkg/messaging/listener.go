package messaging

import (
	"context"

	"github.com/matst80/flow-finder/pkg/common/jsoncompat"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	err = ch.QueueBind(q.Name, name, name, false, nil)
	if err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

// ListenToTopic decodes every delivery on topic into V and hands it to fn
// until ctx is done or the channel closes. Failed messages are dropped.
func ListenToTopic[V any](ctx context.Context, ch *amqp.Channel, prefix string, topic ChangeTopic, logger *zap.Logger, fn func(context.Context, V) error) error {
	msgs, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					logger.Warn("delivery channel closed", zap.String("topic", string(topic)))
					return
				}
				process(ctx, d.Body, d, topic, logger, fn)
			}
		}
	}()
	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func process[V any](ctx context.Context, body []byte, ack acknowledger, topic ChangeTopic, logger *zap.Logger, fn func(context.Context, V) error) {
	var data V
	if err := jsoncompat.Unmarshal(body, &data); err != nil {
		logger.Error("could not decode message", zap.String("topic", string(topic)), zap.Error(err))
		ack.Nack(false, false)
		return
	}
	if err := fn(ctx, data); err != nil {
		logger.Error("error processing message", zap.String("topic", string(topic)), zap.Error(err))
		ack.Nack(false, false)
		return
	}
	ack.Ack(false)
}
