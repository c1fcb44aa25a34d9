package memory

import (
	"context"
	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/stamp"
	"github.com/skybi/restkit/internal/storage"
	"time"
)

// documentRecord wraps a document together with the string representations its indexes operate on
type documentRecord struct {
	ID       string
	Owner    string
	Document *document.Document
}

func newDocumentRecord(obj *document.Document) *documentRecord {
	return &documentRecord{
		ID:       obj.ID.String(),
		Owner:    obj.CreatedBy,
		Document: obj.Clone(),
	}
}

// DocumentRepository implements the document.Repository interface using hashicorp/go-memdb
type DocumentRepository struct {
	db *memdb.MemDB
}

var _ document.Repository = (*DocumentRepository)(nil)

// GetByID retrieves a document by its ID
func (repo *DocumentRepository) GetByID(_ context.Context, id uuid.UUID) (*document.Document, error) {
	return repo.get(repo.db.Txn(false), id)
}

func (repo *DocumentRepository) get(txn *memdb.Txn, id uuid.UUID) (*document.Document, error) {
	obj, err := txn.First(tableDocuments, indexID, id.String())
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*documentRecord).Document.Clone(), nil
}

// Search retrieves all documents matching the query in the requested order
func (repo *DocumentRepository) Search(_ context.Context, query *document.Query) ([]*document.Document, error) {
	txn := repo.db.Txn(false)

	var (
		it  memdb.ResultIterator
		err error
	)
	if query.Owner != nil {
		it, err = txn.Get(tableDocuments, indexOwner, *query.Owner)
	} else {
		it, err = txn.Get(tableDocuments, indexID)
	}
	if err != nil {
		return nil, err
	}

	documents := []*document.Document{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		documents = append(documents, obj.(*documentRecord).Document.Clone())
	}

	// Both indexes yield documents ordered by their ID which breaks ties of the stable sort
	document.Sort(documents, query.Order)
	return documents, nil
}

// CountByOwner counts the documents created by a specific user
func (repo *DocumentRepository) CountByOwner(_ context.Context, owner string) (uint64, error) {
	it, err := repo.db.Txn(false).Get(tableDocuments, indexOwner, owner)
	if err != nil {
		return 0, err
	}
	var n uint64
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}

// Create creates a new document
func (repo *DocumentRepository) Create(_ context.Context, create *document.Create) (*document.Document, error) {
	obj := &document.Document{
		ID:      uuid.New(),
		Title:   create.Title,
		Content: create.Content,
		Stamp:   stamp.New(create.Owner, time.Now()),
	}
	if obj.Content == nil {
		obj.Content = map[string]any{}
	}

	txn := repo.db.Txn(true)
	defer txn.Abort()
	owner, err := txn.First(tableUsers, indexID, create.Owner)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, storage.ErrConflict
	}
	if create.Single {
		existing, err := txn.First(tableDocuments, indexOwner, create.Owner)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, document.ErrAlreadyCreated
		}
	}
	if err := txn.Insert(tableDocuments, newDocumentRecord(obj)); err != nil {
		return nil, err
	}
	txn.Commit()

	return obj.Clone(), nil
}

// Update updates an existing document and refreshes its modification date
func (repo *DocumentRepository) Update(_ context.Context, id uuid.UUID, update *document.Update) (*document.Document, error) {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	obj, err := repo.get(txn, id)
	if err != nil || obj == nil {
		return nil, err
	}
	if update.Title != nil {
		obj.Title = *update.Title
	}
	if update.Content != nil {
		obj.Content = update.Content
	}
	obj.Touch(time.Now())

	if err := txn.Insert(tableDocuments, newDocumentRecord(obj)); err != nil {
		return nil, err
	}
	txn.Commit()

	return obj.Clone(), nil
}

// Delete deletes a document by its ID
func (repo *DocumentRepository) Delete(_ context.Context, id uuid.UUID) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableDocuments, indexID, id.String()); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
