package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/matst80/flow-finder/pkg/storage"
	"github.com/matst80/flow-finder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryProfiles struct {
	profiles map[string]types.Profile
	getErr   error
	saved    int
}

func (m *memoryProfiles) GetProfile(ctx context.Context, userId string) (types.Profile, error) {
	if m.getErr != nil {
		return types.Profile{}, m.getErr
	}
	p, ok := m.profiles[userId]
	if !ok {
		return p, fmt.Errorf("profile %s: %w", userId, storage.ErrNotFound)
	}
	return p, nil
}

func (m *memoryProfiles) SaveProfile(ctx context.Context, p *types.Profile) error {
	m.saved++
	m.profiles[p.UserId] = *p
	return nil
}

func TestGrantRole(t *testing.T) {
	ctx := context.Background()
	store := &memoryProfiles{profiles: map[string]types.Profile{
		"u-1": {UserId: "u-1", Email: "ada@site.example", DisplayName: "Ada", Role: types.RoleViewer},
	}}

	p, err := grantRole(ctx, store, "u-1", types.RoleEditor, "", "")
	require.NoError(t, err)
	assert.Equal(t, types.Profile{UserId: "u-1", Email: "ada@site.example", DisplayName: "Ada", Role: types.RoleEditor}, p)

	p, err = grantRole(ctx, store, "u-2", types.RoleAdmin, "grace@site.example", "Grace")
	require.NoError(t, err)
	assert.Equal(t, types.Profile{UserId: "u-2", Email: "grace@site.example", DisplayName: "Grace", Role: types.RoleAdmin}, p)
	assert.Equal(t, 2, store.saved)
}

func TestGrantRoleKeepsProfileOnLookupFailure(t *testing.T) {
	boom := errors.New("database is locked")
	store := &memoryProfiles{profiles: map[string]types.Profile{
		"u-1": {UserId: "u-1", Email: "ada@site.example", Role: types.RoleAdmin},
	}, getErr: boom}

	_, err := grantRole(context.Background(), store, "u-1", types.RoleViewer, "", "")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.saved)
	assert.Equal(t, types.RoleAdmin, store.profiles["u-1"].Role)
}

func TestGrantRejectsUnknownRole(t *testing.T) {
	cmd := grantCommand()
	cmd.SetArgs([]string{"u-1", "superuser"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	assert.ErrorContains(t, err, "unknown role")
}
