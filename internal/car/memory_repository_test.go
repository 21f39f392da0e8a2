package car

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryListIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	a1 := New("alice", "A1", "d", nil, nil)
	b1 := New("bob", "B1", "d", nil, nil)
	a2 := New("alice", "A2", "d", nil, nil)
	for _, c := range []*Car{a1, b1, a2} {
		require.NoError(t, repo.Create(ctx, c))
	}

	cars, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cars, 2)
	assert.Equal(t, "A1", cars[0].Title)
	assert.Equal(t, "A2", cars[1].Title)

	cars, err = repo.ListByOwner(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, cars)
	assert.NotNil(t, cars)
}

func TestMemoryRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	c := New("alice", "Civic", "Reliable", []string{"sedan"}, []string{"uploads/a.png"})
	require.NoError(t, repo.Create(ctx, c))

	title := "Accord"
	updated, err := repo.UpdateByID(ctx, c.ID, UpdateFields{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Accord", updated.Title)
	assert.Equal(t, "Reliable", updated.Description)
	assert.Equal(t, []string{"sedan"}, updated.Tags)
	assert.Equal(t, []string{"uploads/a.png"}, updated.Images)
	assert.Equal(t, "alice", updated.OwnerID)
	assert.False(t, updated.UpdatedAt.Before(c.UpdatedAt))

	_, err = repo.UpdateByID(ctx, "missing", UpdateFields{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	c := New("alice", "Civic", "Reliable", []string{"sedan"}, nil)
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	got.Tags[0] = "changed"

	again, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sedan"}, again.Tags)
}

func TestMemoryRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	c := New("alice", "Civic", "Reliable", nil, []string{"uploads/a.png", "uploads/b.png"})
	require.NoError(t, repo.Create(ctx, c))

	deleted, err := repo.DeleteByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Images, deleted.Images)

	_, err = repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cars, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, cars)

	_, err = repo.DeleteByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
