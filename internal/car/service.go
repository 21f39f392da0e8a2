package car

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/redmonkez12/car-api/internal/logging"
	"github.com/redmonkez12/car-api/internal/upload"
)

// Repository is the car store. Implemented by MongoRepository, BunRepository and MemoryRepository.
type Repository interface {
	Create(ctx context.Context, c *Car) error
	ListByOwner(ctx context.Context, ownerID string) ([]Car, error)
	GetByID(ctx context.Context, id string) (*Car, error)
	UpdateByID(ctx context.Context, id string, fields UpdateFields) (*Car, error)
	DeleteByID(ctx context.Context, id string) (*Car, error)
}

// CreateInput holds the text fields of a new listing. Tags is comma-joined.
type CreateInput struct {
	Title       string
	Description string
	Tags        string
}

// Service handles car listings and the image files attached to them
type Service struct {
	repo  Repository
	store upload.Store
}

func NewService(repo Repository, store upload.Store) *Service {
	return &Service{repo: repo, store: store}
}

// Create stores the images and then the listing owned by ownerID.
// Images written for a listing that could not be stored are released.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput, files []*multipart.FileHeader) (*Car, error) {
	if in.Title == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}

	logger := logging.GetLoggerFromContext(ctx)

	images, err := upload.SaveAll(ctx, s.store, files, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to store images: %w", err)
	}

	c := New(ownerID, in.Title, in.Description, SplitTags(in.Tags), images)
	if err := s.repo.Create(ctx, c); err != nil {
		upload.Release(ctx, s.store, images, logger)
		return nil, err
	}

	logger.Info("car created", "car_id", c.ID, "images", len(images))
	return c, nil
}

// List returns the owner's listings
func (s *Service) List(ctx context.Context, ownerID string) ([]Car, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get returns any listing by id. Reads are not restricted to the owner.
func (s *Service) Get(ctx context.Context, id string) (*Car, error) {
	return s.repo.GetByID(ctx, id)
}

// Authorize returns the listing when userID owns it, ErrForbidden when someone else does
func (s *Service) Authorize(ctx context.Context, userID, carID string) (*Car, error) {
	c, err := s.repo.GetByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

// Update applies fields to an authorized listing. When files are sent they replace
// the current images, which are released once the update is stored.
func (s *Service) Update(ctx context.Context, existing *Car, fields UpdateFields, files []*multipart.FileHeader) (*Car, error) {
	logger := logging.GetLoggerFromContext(ctx)

	var images []string
	if len(files) > 0 {
		var err error
		images, err = upload.SaveAll(ctx, s.store, files, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to store images: %w", err)
		}
		fields.Images = &images
	}

	updated, err := s.repo.UpdateByID(ctx, existing.ID, fields)
	if err != nil {
		upload.Release(ctx, s.store, images, logger)
		return nil, err
	}

	if fields.Images != nil {
		upload.Release(ctx, s.store, replaced(existing.Images, images), logger)
	}

	logger.Info("car updated", "car_id", updated.ID)
	return updated, nil
}

// Delete removes the listing and then its images, best effort
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}

	logger := logging.GetLoggerFromContext(ctx)
	upload.Release(ctx, s.store, deleted.Images, logger)

	logger.Info("car deleted", "car_id", id, "images", len(deleted.Images))
	return nil
}

// replaced returns the old references that are not part of the new set
func replaced(old, current []string) []string {
	keep := make(map[string]struct{}, len(current))
	for _, ref := range current {
		keep[ref] = struct{}{}
	}

	var out []string
	for _, ref := range old {
		if _, ok := keep[ref]; !ok {
			out = append(out, ref)
		}
	}
	return out
}
