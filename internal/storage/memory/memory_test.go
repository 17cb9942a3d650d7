package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/fitgen/internal/storage"
)

var _ storage.Storage = (*MemoryStorage)(nil)

func TestUserProfileUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetUserProfile(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	age := 30
	require.NoError(t, s.UpsertUserProfile(ctx, &storage.UserProfile{UserID: "u1", Age: &age}))

	first, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30, *first.Age)

	time.Sleep(time.Millisecond)
	goal := "Cutting"
	require.NoError(t, s.UpsertUserProfile(ctx, &storage.UserProfile{UserID: "u1", Age: &age, Goal: &goal}))

	second, err := s.GetUserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Cutting", *second.Goal)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	require.NoError(t, s.DeleteUserProfile(ctx, "u1"))
	assert.ErrorIs(t, s.DeleteUserProfile(ctx, "u1"), storage.ErrNotFound)
}

func TestExportsListScopedToUser(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateExport(ctx, &storage.ExportMeta{UserID: "u1", Kind: "mealPlan"}))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, s.CreateExport(ctx, &storage.ExportMeta{UserID: "u2", Kind: "workoutPlan"}))

	all, err := s.ListExports(ctx, "u1", 50, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[2].CreatedAt))

	page, err := s.ListExports(ctx, "u1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	empty, err := s.ListExports(ctx, "u1", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	got, err := s.GetExport(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, s.DeleteExport(ctx, all[0].ID))
	_, err = s.GetExport(ctx, all[0].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
