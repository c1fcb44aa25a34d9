package cache

import (
	"context"
	"github.com/google/uuid"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/hashmap"
	"github.com/skybi/restkit/internal/user"
)

// UserRepository implements the user.Repository interface in order to implement caching
type UserRepository struct {
	repo  user.Repository
	cache *hashmap.ExpiringMap[string, *user.User]

	// documents is the document cache that has to be purged if a user (and thus their documents) gets deleted
	documents *hashmap.ExpiringMap[uuid.UUID, *document.Document]
}

var _ user.Repository = (*UserRepository)(nil)

func (repo *UserRepository) store(obj *user.User) *user.User {
	if obj == nil {
		return nil
	}
	cpy := *obj
	repo.cache.Set(obj.ID, &cpy)
	return obj
}

// Get retrieves multiple users
func (repo *UserRepository) Get(ctx context.Context, offset, limit uint64) ([]*user.User, uint64, error) {
	users, n, err := repo.repo.Get(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for _, obj := range users {
		repo.store(obj)
	}
	return users, n, nil
}

// GetByID retrieves a user by their ID
func (repo *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	if cached, ok := repo.cache.Lookup(id); ok {
		cpy := *cached
		return &cpy, nil
	}
	obj, err := repo.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return repo.store(obj), nil
}

// Create creates a new user
func (repo *UserRepository) Create(ctx context.Context, create *user.Create) (*user.User, error) {
	obj, err := repo.repo.Create(ctx, create)
	if err != nil {
		return nil, err
	}
	return repo.store(obj), nil
}

// Update updates an existing user
func (repo *UserRepository) Update(ctx context.Context, id string, update *user.Update) (*user.User, error) {
	obj, err := repo.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		repo.cache.Unset(id)
		return nil, nil
	}
	return repo.store(obj), nil
}

// Delete deletes a user by their ID
func (repo *UserRepository) Delete(ctx context.Context, id string) error {
	err := repo.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	repo.cache.Unset(id)
	repo.documents.UnsetFunc(func(_ uuid.UUID, obj *document.Document) bool {
		return obj.CreatedBy == id
	})
	return nil
}
