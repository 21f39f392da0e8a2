package car

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps cars in process memory. Used with DB_DRIVER=memory and in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	cars  map[string]*Car
	order []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{cars: make(map[string]*Car)}
}

func (r *MemoryRepository) Create(_ context.Context, c *Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyCar(c)
	r.cars[c.ID] = stored
	r.order = append(r.order, c.ID)
	return nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cars := []Car{}
	for _, id := range r.order {
		if c := r.cars[id]; c.OwnerID == ownerID {
			cars = append(cars, *copyCar(c))
		}
	}
	return cars, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cars[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCar(c), nil
}

func (r *MemoryRepository) UpdateByID(_ context.Context, id string, fields UpdateFields) (*Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cars[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !fields.IsEmpty() {
		fields.Apply(c)
		c.UpdatedAt = time.Now().UTC()
	}
	return copyCar(c), nil
}

func (r *MemoryRepository) DeleteByID(_ context.Context, id string) (*Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cars[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.cars, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return c, nil
}

func copyCar(c *Car) *Car {
	cp := *c
	cp.Tags = cloneStrings(nonNil(c.Tags))
	cp.Images = cloneStrings(nonNil(c.Images))
	return &cp
}
