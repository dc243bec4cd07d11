package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/matst80/flow-finder/pkg/types"
	"go.uber.org/zap"
)

type SubscriptionStore interface {
	AddSubscription(ctx context.Context, category, token string) error
	RemoveSubscription(ctx context.Context, category, token string) error
	RemoveToken(ctx context.Context, token string) error
	SubscriptionsFor(ctx context.Context, category string) ([]string, error)
}

// WatchService lets visitors follow a flow category and pushes a message to
// them when a flow in that category is published.
type WatchService struct {
	store    SubscriptionStore
	notifier Notifier
	logger   *zap.Logger
}

func NewWatchService(store SubscriptionStore, notifier Notifier, logger *zap.Logger) *WatchService {
	return &WatchService{store: store, notifier: notifier, logger: logger}
}

// Subscribe stores the token and sends a confirmation. A failed
// confirmation is logged, an unregistered token is rejected.
func (w *WatchService) Subscribe(ctx context.Context, category, token string) error {
	if category == "" || token == "" {
		return &types.ValidationError{Problems: []string{"category and token are required"}}
	}
	err := w.notifier.Send(ctx, token, Message{
		Title: "Watching " + category,
		Body:  "You will be notified when a new " + category + " flow is published.",
		Data: map[string]string{
			"category": category,
			"type":     "watch-confirmation",
		},
	})
	if errors.Is(err, ErrUnregistered) {
		return &types.ValidationError{Problems: []string{"device token is not registered"}}
	}
	if err != nil {
		w.logger.Warn("watch confirmation failed", zap.String("category", category), zap.Error(err))
	}
	return w.store.AddSubscription(ctx, category, token)
}

func (w *WatchService) Unsubscribe(ctx context.Context, category, token string) error {
	return w.store.RemoveSubscription(ctx, category, token)
}

// FlowPublished notifies the watchers of the flow's category and forgets
// tokens the push service no longer knows. Other items are ignored.
func (w *WatchService) FlowPublished(ctx context.Context, item types.ContentItem) (int, error) {
	if item.Flow == nil || !item.Published || item.Flow.Category == "" {
		return 0, nil
	}
	tokens, err := w.store.SubscriptionsFor(ctx, item.Flow.Category)
	if err != nil {
		return 0, fmt.Errorf("watchers of %s: %w", item.Flow.Category, err)
	}
	msg := Message{
		Title: "New flow: " + item.Title,
		Body:  item.Paragraph,
		Data: map[string]string{
			"id":       item.Id,
			"slug":     item.Slug,
			"category": item.Flow.Category,
			"type":     "flow-published",
		},
	}
	sent := 0
	for _, token := range tokens {
		err := w.notifier.Send(ctx, token, msg)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrUnregistered):
			if err := w.store.RemoveToken(ctx, token); err != nil {
				w.logger.Warn("could not remove token", zap.Error(err))
			}
		default:
			w.logger.Warn("push failed", zap.String("category", item.Flow.Category), zap.Error(err))
		}
	}
	w.logger.Info("flow watchers notified", zap.String("id", item.Id), zap.Int("sent", sent), zap.Int("watchers", len(tokens)))
	return sent, nil
}
