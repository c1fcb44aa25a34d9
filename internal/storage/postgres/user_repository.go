package postgres

import (
	"context"
	"errors"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/restkit/internal/user"
)

var userColumns = []string{"user_id", "display_name", "email", "mobile", "restricted", "admin"}

// UserRepository implements the user.Repository interface using PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

var _ user.Repository = (*UserRepository)(nil)

// Get retrieves multiple users ordered by their ID
func (repo *UserRepository) Get(ctx context.Context, offset, limit uint64) ([]*user.User, uint64, error) {
	if limit <= 0 {
		limit = user.DefaultLimit
	}
	query := squirrel.Select(userColumns...).From("users").OrderBy("user_id").Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}
	sql, vals, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, 0, err
	}

	var n uint64
	if err := repo.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return []*user.User{}, 0, nil
	}

	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		obj, err := repo.rowToUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return users, n, nil
}

// GetByID retrieves a user by their ID
func (repo *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	sql, vals, err := squirrel.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"user_id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	obj, err := repo.rowToUser(repo.db.QueryRow(ctx, sql, vals...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return obj, nil
}

// Create creates a new user
func (repo *UserRepository) Create(ctx context.Context, create *user.Create) (*user.User, error) {
	sql, vals, err := squirrel.Insert("users").
		Columns(userColumns...).
		Values(create.ID, create.DisplayName, create.Email, create.Mobile, false, create.Admin).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := repo.db.Exec(ctx, sql, vals...); err != nil {
		return nil, mapError(err)
	}

	return &user.User{
		ID:          create.ID,
		DisplayName: create.DisplayName,
		Email:       create.Email,
		Mobile:      create.Mobile,
		Restricted:  false,
		Admin:       create.Admin,
	}, nil
}

// Update updates an existing user
func (repo *UserRepository) Update(ctx context.Context, id string, update *user.Update) (*user.User, error) {
	query := squirrel.Update("users").Where(squirrel.Eq{"user_id": id})
	changed := false
	set := func(column string, value any) {
		query = query.Set(column, value)
		changed = true
	}
	if update.DisplayName != nil {
		set("display_name", *update.DisplayName)
	}
	if update.Email != nil {
		set("email", *update.Email)
	}
	if update.Mobile != nil {
		set("mobile", *update.Mobile)
	}
	if update.Restricted != nil {
		set("restricted", *update.Restricted)
	}
	if update.Admin != nil {
		set("admin", *update.Admin)
	}

	if changed {
		sql, values, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return nil, err
		}
		if _, err := repo.db.Exec(ctx, sql, values...); err != nil {
			return nil, err
		}
	}

	// Re-fetch the user
	return repo.GetByID(ctx, id)
}

// Delete deletes a user by their ID.
// All documents created by the user are deleted as well.
func (repo *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := repo.db.Exec(ctx, "DELETE FROM users WHERE user_id = $1", id)
	return err
}

func (repo *UserRepository) rowToUser(row pgx.Row) (*user.User, error) {
	obj := new(user.User)
	if err := row.Scan(&obj.ID, &obj.DisplayName, &obj.Email, &obj.Mobile, &obj.Restricted, &obj.Admin); err != nil {
		return nil, err
	}
	return obj, nil
}
