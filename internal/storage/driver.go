package storage

import (
	"context"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/user"
)

// Driver represents a storage driver
type Driver interface {
	// Initialize initializes the storage driver (i.e. opens a database connection)
	Initialize(ctx context.Context) error

	// Users provides a user repository implementation
	Users() user.Repository

	// Documents provides a document repository implementation
	Documents() document.Repository

	// Close closes the storage driver (i.e. closes a database connection)
	Close()
}
