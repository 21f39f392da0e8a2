package car

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/car-api/internal/database"
)

// openTestPostgres connects to TEST_POSTGRES_DSN and skips when it is unset
func openTestPostgres(t *testing.T) *bun.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := database.OpenPostgres(context.Background(), database.PostgresOptions{
		DSN:          dsn,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// insertOwner adds the users row cars.owner_id references
func insertOwner(t *testing.T, db *bun.DB) string {
	t.Helper()
	ctx := context.Background()

	owner := &database.User{
		ID:           uuid.NewString(),
		Name:         "owner",
		Email:        uuid.NewString() + "@cars.test",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	_, err := db.NewInsert().Model(owner).Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.NewDelete().Model((*database.Car)(nil)).Where("owner_id = ?", owner.ID).Exec(ctx)
		_, _ = db.NewDelete().Model((*database.User)(nil)).Where("id = ?", owner.ID).Exec(ctx)
	})
	return owner.ID
}

func TestBunRepository(t *testing.T) {
	db := openTestPostgres(t)
	ctx := context.Background()
	repo := NewBunRepository(db)
	ownerID := insertOwner(t, db)
	otherID := insertOwner(t, db)

	first := New(ownerID, "Golf", "blue", []string{"vw", "hatch"}, []string{"uploads/a.jpg"})
	require.NoError(t, repo.Create(ctx, first))
	second := New(ownerID, "Polo", "red", nil, nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, New(otherID, "Civic", "", nil, nil)))

	t.Run("list by owner oldest first", func(t *testing.T) {
		cars, err := repo.ListByOwner(ctx, ownerID)
		require.NoError(t, err)
		require.Len(t, cars, 2)
		assert.Equal(t, first.ID, cars[0].ID)
		assert.Equal(t, second.ID, cars[1].ID)
		assert.Equal(t, []string{}, cars[1].Tags)
		assert.Equal(t, []string{}, cars[1].Images)

		cars, err = repo.ListByOwner(ctx, "not-a-uuid")
		require.NoError(t, err)
		assert.Empty(t, cars)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Golf", got.Title)
		assert.Equal(t, []string{"vw", "hatch"}, got.Tags)
		assert.Equal(t, []string{"uploads/a.jpg"}, got.Images)
		assert.Equal(t, ownerID, got.OwnerID)
		assert.WithinDuration(t, first.CreatedAt, got.CreatedAt, time.Millisecond)

		_, err = repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("partial update keeps other columns", func(t *testing.T) {
		title := "Golf GTI"
		updated, err := repo.UpdateByID(ctx, first.ID, UpdateFields{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Golf GTI", updated.Title)
		assert.Equal(t, "blue", updated.Description)
		assert.Equal(t, []string{"vw", "hatch"}, updated.Tags)
		assert.Equal(t, []string{"uploads/a.jpg"}, updated.Images)
		assert.Equal(t, ownerID, updated.OwnerID)
		assert.WithinDuration(t, first.CreatedAt, updated.CreatedAt, time.Millisecond)
		assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Golf GTI", got.Title)
		assert.Equal(t, "blue", got.Description)

		images := []string{}
		updated, err = repo.UpdateByID(ctx, first.ID, UpdateFields{Images: &images})
		require.NoError(t, err)
		assert.Equal(t, []string{}, updated.Images)
		assert.Equal(t, "Golf GTI", updated.Title)
	})

	t.Run("update missing", func(t *testing.T) {
		title := "x"
		_, err := repo.UpdateByID(ctx, uuid.NewString(), UpdateFields{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.UpdateByID(ctx, "not-a-uuid", UpdateFields{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.UpdateByID(ctx, uuid.NewString(), UpdateFields{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete returns the removed row", func(t *testing.T) {
		deleted, err := repo.DeleteByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, deleted.ID)
		assert.Equal(t, "Polo", deleted.Title)

		_, err = repo.GetByID(ctx, second.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.DeleteByID(ctx, second.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.DeleteByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
