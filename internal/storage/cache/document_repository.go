package cache

import (
	"context"
	"github.com/google/uuid"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/hashmap"
)

// DocumentRepository implements the document.Repository interface in order to implement caching.
// Only single documents are cached; searches always hit the underlying repository.
type DocumentRepository struct {
	repo  document.Repository
	cache *hashmap.ExpiringMap[uuid.UUID, *document.Document]
}

var _ document.Repository = (*DocumentRepository)(nil)

func (repo *DocumentRepository) store(obj *document.Document) *document.Document {
	if obj == nil {
		return nil
	}
	repo.cache.Set(obj.ID, obj.Clone())
	return obj
}

// GetByID retrieves a document by its ID
func (repo *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	if cached, ok := repo.cache.Lookup(id); ok {
		return cached.Clone(), nil
	}
	obj, err := repo.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return repo.store(obj), nil
}

// Search retrieves all documents matching the query in the requested order
func (repo *DocumentRepository) Search(ctx context.Context, query *document.Query) ([]*document.Document, error) {
	documents, err := repo.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, obj := range documents {
		repo.store(obj)
	}
	return documents, nil
}

// CountByOwner counts the documents created by a specific user
func (repo *DocumentRepository) CountByOwner(ctx context.Context, owner string) (uint64, error) {
	return repo.repo.CountByOwner(ctx, owner)
}

// Create creates a new document
func (repo *DocumentRepository) Create(ctx context.Context, create *document.Create) (*document.Document, error) {
	obj, err := repo.repo.Create(ctx, create)
	if err != nil {
		return nil, err
	}
	return repo.store(obj), nil
}

// Update updates an existing document
func (repo *DocumentRepository) Update(ctx context.Context, id uuid.UUID, update *document.Update) (*document.Document, error) {
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

// Delete deletes a document by its ID
func (repo *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := repo.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	repo.cache.Unset(id)
	return nil
}
