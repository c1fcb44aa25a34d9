package document

import (
	"context"
	"errors"
	"github.com/google/uuid"
)

var (
	// ErrInvalidFilter is returned if a search filter uses unknown operators or malformed values
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidOrder is returned if a document is ordered by a field that does not support ordering
	ErrInvalidOrder = errors.New("invalid order field")

	// ErrAlreadyCreated is returned by Repository.Create if a single document per owner is requested and the owner
	// already created one
	ErrAlreadyCreated = errors.New("the owner already created a document")
)

// Repository defines the document repository API
type Repository interface {
	// GetByID retrieves a document by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// Search retrieves all documents matching the query in the requested order.
	// Ownership is not taken into account; callers have to filter the result themselves.
	Search(ctx context.Context, query *Query) ([]*Document, error)

	// CountByOwner counts the documents created by a specific user
	CountByOwner(ctx context.Context, owner string) (uint64, error)

	// Create creates a new document.
	// Returns ErrAlreadyCreated if create.Single is set and the owner already created a document.
	Create(ctx context.Context, create *Create) (*Document, error)

	// Update updates an existing document
	Update(ctx context.Context, id uuid.UUID, update *Update) (*Document, error)

	// Delete deletes a document by its ID
	Delete(ctx context.Context, id uuid.UUID) error
}

// Query is used to search for documents
type Query struct {
	Owner *string
	Order []Order
}

// Create is used to create a new document.
// If Single is set, the document is only created if the owner did not create any other document; the check and the
// insertion happen atomically.
type Create struct {
	Owner   string
	Title   string
	Content map[string]any
	Single  bool
}

// Update is used to update an existing document
type Update struct {
	Title   *string
	Content map[string]any
}
