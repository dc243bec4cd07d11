package storage

import (
	"context"
	"fmt"
	"time"
)

func (s *Store) AddSubscription(ctx context.Context, category, token string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO watch_subscriptions (category, token, created_at) VALUES (?, ?, ?)`,
		category, token, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("add subscription: %w", err)
	}
	return nil
}

func (s *Store) RemoveSubscription(ctx context.Context, category, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watch_subscriptions WHERE category = ? AND token = ?`, category, token)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	return nil
}

// RemoveToken drops a device token from every category.
func (s *Store) RemoveToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watch_subscriptions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (s *Store) SubscriptionsFor(ctx context.Context, category string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM watch_subscriptions WHERE category = ? ORDER BY created_at`, category)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	ret := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		ret = append(ret, token)
	}
	return ret, rows.Err()
}
