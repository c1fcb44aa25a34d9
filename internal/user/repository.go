package user

import (
	"context"
)

// Repository defines the user repository API
type Repository interface {
	// Get retrieves multiple users ordered by their ID.
	// If limit <= 0, a default limit value of 10 is used.
	Get(ctx context.Context, offset, limit uint64) ([]*User, uint64, error)

	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id string) (*User, error)

	// Create creates a new user
	Create(ctx context.Context, create *Create) (*User, error)

	// Update updates an existing user
	Update(ctx context.Context, id string, update *Update) (*User, error)

	// Delete deletes a user by their ID
	Delete(ctx context.Context, id string) error
}

// DefaultLimit is used by Repository.Get if no limit is given
const DefaultLimit = 10

// Create is used to create a new user
type Create struct {
	ID          string
	DisplayName string
	Email       string
	Mobile      string
	Admin       bool
}

// Update is used to update an existing user
type Update struct {
	DisplayName *string
	Email       *string
	Mobile      *string
	Restricted  *bool
	Admin       *bool
}
