package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matst80/flow-finder/pkg/types"
)

func (s *Store) GetProfile(ctx context.Context, userId string) (types.Profile, error) {
	var (
		p       types.Profile
		role    string
		created int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT user_id, email, display_name, role, created_at FROM profiles WHERE user_id = ?`, userId).
		Scan(&p.UserId, &p.Email, &p.DisplayName, &role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("profile %s: %w", userId, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("get profile %s: %w", userId, err)
	}
	p.Role = types.Role(role)
	p.CreatedAt = time.UnixMilli(created).UTC()
	return p, nil
}

// SaveProfile creates or updates a profile. The role must be valid.
func (s *Store) SaveProfile(ctx context.Context, p *types.Profile) error {
	if p.UserId == "" {
		return &types.ValidationError{Problems: []string{"user id is required"}}
	}
	if !p.Role.Valid() {
		return &types.ValidationError{Problems: []string{fmt.Sprintf("role %q is not valid", p.Role)}}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, email, display_name, role, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			role = excluded.role`,
		p.UserId, p.Email, p.DisplayName, string(p.Role), p.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserId, err)
	}
	return nil
}
