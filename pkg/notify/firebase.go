package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type FirebaseNotifier struct {
	client *messaging.Client
	logger *zap.Logger
}

// NewFirebaseNotifier uses credentialsFile when set and the default
// application credentials otherwise.
func NewFirebaseNotifier(ctx context.Context, credentialsFile string, logger *zap.Logger) (*FirebaseNotifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}
	return &FirebaseNotifier{client: client, logger: logger}, nil
}

func (f *FirebaseNotifier) Send(ctx context.Context, token string, msg Message) error {
	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data:  msg.Data,
		Token: token,
	}
	response, err := f.client.Send(ctx, message)
	if err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			return fmt.Errorf("%w: %v", ErrUnregistered, err)
		}
		return err
	}
	f.logger.Debug("push sent", zap.String("response", response))
	return nil
}
