package memory

import (
	"context"
	"github.com/hashicorp/go-memdb"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/storage"
	"github.com/skybi/restkit/internal/user"
)

const (
	tableUsers     = "users"
	tableDocuments = "documents"

	indexID    = "id"
	indexOwner = "owner"
)

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableUsers: {
			Name: tableUsers,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
			},
		},
		tableDocuments: {
			Name: tableDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				indexOwner: {
					Name:    indexOwner,
					Unique:  false,
					Indexer: &memdb.StringFieldIndex{Field: "Owner"},
				},
			},
		},
	},
}

// Driver represents the in-memory storage driver built using hashicorp/go-memdb.
// It is meant for development and tests; all data is lost as soon as the process exits.
type Driver struct {
	db        *memdb.MemDB
	users     *UserRepository
	documents *DocumentRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty in-memory storage driver.
// Use Initialize to create the database and initialize the repository implementations.
func New() *Driver {
	return &Driver{}
}

// Initialize creates the in-memory database and initializes the repository implementations
func (driver *Driver) Initialize(_ context.Context) error {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return err
	}
	driver.db = db
	driver.users = &UserRepository{db: db}
	driver.documents = &DocumentRepository{db: db}
	return nil
}

// Users provides the in-memory user repository implementation
func (driver *Driver) Users() user.Repository {
	return driver.users
}

// Documents provides the in-memory document repository implementation
func (driver *Driver) Documents() document.Repository {
	return driver.documents
}

// Close discards the database and the repository implementations
func (driver *Driver) Close() {
	driver.users = nil
	driver.documents = nil
	driver.db = nil
}
