package postgres

import (
	"context"
	"errors"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/restkit/internal/document"
	"github.com/skybi/restkit/internal/stamp"
	"time"
)

var documentColumns = []string{"document_id", "title", "content", "created_by", "create_date", "update_date"}

var orderColumns = map[string]string{
	document.OrderID:         "document_id",
	document.OrderTitle:      "title",
	document.OrderCreateDate: "create_date",
	document.OrderUpdateDate: "update_date",
}

// DocumentRepository implements the document.Repository interface using PostgreSQL
type DocumentRepository struct {
	db *pgxpool.Pool
}

var _ document.Repository = (*DocumentRepository)(nil)

// GetByID retrieves a document by its ID
func (repo *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	sql, vals, err := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"document_id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	obj, err := repo.rowToDocument(repo.db.QueryRow(ctx, sql, vals...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return obj, nil
}

// Search retrieves all documents matching the query in the requested order
func (repo *DocumentRepository) Search(ctx context.Context, query *document.Query) ([]*document.Document, error) {
	orders := query.Order
	if len(orders) == 0 {
		orders = document.DefaultOrder
	}

	builder := squirrel.Select(documentColumns...).From("documents")
	if query.Owner != nil {
		builder = builder.Where(squirrel.Eq{"created_by": *query.Owner})
	}
	for _, order := range orders {
		column, ok := orderColumns[order.Field]
		if !ok {
			return nil, document.ErrInvalidOrder
		}
		if order.Descending {
			column += " DESC"
		}
		builder = builder.OrderBy(column)
	}
	// Ensure a deterministic order for equal values
	builder = builder.OrderBy("document_id")

	sql, vals, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	documents := []*document.Document{}
	for rows.Next() {
		obj, err := repo.rowToDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, obj)
	}
	return documents, rows.Err()
}

// CountByOwner counts the documents created by a specific user
func (repo *DocumentRepository) CountByOwner(ctx context.Context, owner string) (uint64, error) {
	var n uint64
	err := repo.db.QueryRow(ctx, "SELECT COUNT(*) FROM documents WHERE created_by = $1", owner).Scan(&n)
	return n, err
}

// Create creates a new document
func (repo *DocumentRepository) Create(ctx context.Context, create *document.Create) (*document.Document, error) {
	obj := &document.Document{
		ID:      uuid.New(),
		Title:   create.Title,
		Content: create.Content,
		Stamp:   stamp.New(create.Owner, time.Now()),
	}
	if obj.Content == nil {
		obj.Content = map[string]any{}
	}

	sql, vals, err := squirrel.Insert("documents").
		Columns(documentColumns...).
		Values(obj.ID, obj.Title, obj.Content, obj.CreatedBy, obj.CreateDate, obj.UpdateDate).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	tx, err := repo.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if create.Single {
		// Lock the owner so that concurrent creations for the same owner are serialized
		if _, err := tx.Exec(ctx, "SELECT 1 FROM users WHERE user_id = $1 FOR UPDATE", create.Owner); err != nil {
			return nil, err
		}
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM documents WHERE created_by = $1)", create.Owner).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, document.ErrAlreadyCreated
		}
	}

	if _, err := tx.Exec(ctx, sql, vals...); err != nil {
		return nil, mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapError(err)
	}
	return obj, nil
}

// Update updates an existing document and refreshes its modification date
func (repo *DocumentRepository) Update(ctx context.Context, id uuid.UUID, update *document.Update) (*document.Document, error) {
	query := squirrel.Update("documents").
		Where(squirrel.Eq{"document_id": id}).
		Set("update_date", time.Now().UTC())
	if update.Title != nil {
		query = query.Set("title", *update.Title)
	}
	if update.Content != nil {
		query = query.Set("content", update.Content)
	}

	sql, vals, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := repo.db.Exec(ctx, sql, vals...); err != nil {
		return nil, err
	}

	// Re-fetch the document
	return repo.GetByID(ctx, id)
}

// Delete deletes a document by its ID
func (repo *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repo.db.Exec(ctx, "DELETE FROM documents WHERE document_id = $1", id)
	return err
}

func (repo *DocumentRepository) rowToDocument(row pgx.Row) (*document.Document, error) {
	obj := new(document.Document)
	if err := row.Scan(&obj.ID, &obj.Title, &obj.Content, &obj.CreatedBy, &obj.CreateDate, &obj.UpdateDate); err != nil {
		return nil, err
	}
	obj.CreateDate = obj.CreateDate.UTC()
	obj.UpdateDate = obj.UpdateDate.UTC()
	return obj, nil
}
