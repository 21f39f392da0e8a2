package car

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/car-api/internal/database"
)

// BunRepository stores cars in postgres through Bun
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Create inserts a new car
func (r *BunRepository) Create(ctx context.Context, c *Car) error {
	_, err := r.db.NewInsert().
		Model(mapModelToDBCar(c)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's cars, oldest first
func (r *BunRepository) ListByOwner(ctx context.Context, ownerID string) ([]Car, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return []Car{}, nil
	}

	var rows []database.Car
	err := r.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}

	cars := make([]Car, 0, len(rows))
	for i := range rows {
		cars = append(cars, *mapDBCarToModel(&rows[i]))
	}
	return cars, nil
}

// GetByID retrieves a car by ID
func (r *BunRepository) GetByID(ctx context.Context, id string) (*Car, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	dbCar := new(database.Car)
	err := r.db.NewSelect().
		Model(dbCar).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return mapDBCarToModel(dbCar), nil
}

// UpdateByID writes only the columns present in fields and returns the updated row
func (r *BunRepository) UpdateByID(ctx context.Context, id string, fields UpdateFields) (*Car, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	if fields.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	dbCar := &database.Car{ID: id, UpdatedAt: time.Now().UTC()}
	columns := []string{"updated_at"}
	if fields.Title != nil {
		dbCar.Title = *fields.Title
		columns = append(columns, "title")
	}
	if fields.Description != nil {
		dbCar.Description = *fields.Description
		columns = append(columns, "description")
	}
	if fields.Tags != nil {
		dbCar.Tags = *fields.Tags
		columns = append(columns, "tags")
	}
	if fields.Images != nil {
		dbCar.Images = *fields.Images
		columns = append(columns, "images")
	}

	res, err := r.db.NewUpdate().
		Model(dbCar).
		Column(columns...).
		WherePK().
		Returning("*").
		Exec(ctx)
	if err != nil {
		// RETURNING into a struct reports a missing row as sql.ErrNoRows
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update car: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBCarToModel(dbCar), nil
}

// DeleteByID removes the car and returns the deleted row
func (r *BunRepository) DeleteByID(ctx context.Context, id string) (*Car, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	dbCar := &database.Car{ID: id}
	res, err := r.db.NewDelete().
		Model(dbCar).
		WherePK().
		Returning("*").
		Exec(ctx)
	if err != nil {
		// RETURNING into a struct reports a missing row as sql.ErrNoRows
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete car: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBCarToModel(dbCar), nil
}

func mapModelToDBCar(c *Car) *database.Car {
	return &database.Car{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Tags:        nonNil(c.Tags),
		Images:      nonNil(c.Images),
		OwnerID:     c.OwnerID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// mapDBCarToModel converts database model to domain model
func mapDBCarToModel(dbc *database.Car) *Car {
	return &Car{
		ID:          dbc.ID,
		Title:       dbc.Title,
		Description: dbc.Description,
		Tags:        nonNil(dbc.Tags),
		Images:      nonNil(dbc.Images),
		OwnerID:     dbc.OwnerID,
		CreatedAt:   dbc.CreatedAt,
		UpdatedAt:   dbc.UpdatedAt,
	}
}
