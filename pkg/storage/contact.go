package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/flow-finder/pkg/types"
)

func (s *Store) SaveContactRequest(ctx context.Context, req *types.ContactRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	req.Id = uuid.NewString()
	req.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO contact_requests (id, name, email, company, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		req.Id, req.Name, req.Email, req.Company, req.Message, req.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save contact request: %w", err)
	}
	return nil
}

// ContactRequests returns the newest requests first.
func (s *Store) ContactRequests(ctx context.Context, limit int) ([]types.ContactRequest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, company, message, created_at FROM contact_requests ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list contact requests: %w", err)
	}
	defer rows.Close()
	ret := make([]types.ContactRequest, 0)
	for rows.Next() {
		var (
			c       types.ContactRequest
			created int64
		)
		if err := rows.Scan(&c.Id, &c.Name, &c.Email, &c.Company, &c.Message, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = time.UnixMilli(created).UTC()
		ret = append(ret, c)
	}
	return ret, rows.Err()
}
