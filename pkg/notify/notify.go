package notify

import (
	"context"
	"errors"
	"maps"
	"slices"

	"go.uber.org/zap"
)

// ErrUnregistered means the device token is no longer valid and should be
// forgotten.
var ErrUnregistered = errors.New("device token unregistered")

type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

type Notifier interface {
	Send(ctx context.Context, token string, msg Message) error
}

// LogNotifier only logs messages. It is used when push is not configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) Send(ctx context.Context, token string, msg Message) error {
	l.Logger.Info("push notification",
		zap.String("token", token),
		zap.String("title", msg.Title),
		zap.Strings("data", slices.Sorted(maps.Keys(msg.Data))))
	return nil
}
