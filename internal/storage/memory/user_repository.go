package memory

import (
	"context"
	"github.com/hashicorp/go-memdb"
	"github.com/skybi/restkit/internal/storage"
	"github.com/skybi/restkit/internal/user"
)

// UserRepository implements the user.Repository interface using hashicorp/go-memdb
type UserRepository struct {
	db *memdb.MemDB
}

var _ user.Repository = (*UserRepository)(nil)

// Get retrieves multiple users ordered by their ID
func (repo *UserRepository) Get(_ context.Context, offset, limit uint64) ([]*user.User, uint64, error) {
	if limit <= 0 {
		limit = user.DefaultLimit
	}

	txn := repo.db.Txn(false)
	it, err := txn.Get(tableUsers, indexID)
	if err != nil {
		return nil, 0, err
	}

	users := []*user.User{}
	var n uint64
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if n >= offset && uint64(len(users)) < limit {
			cpy := *obj.(*user.User)
			users = append(users, &cpy)
		}
		n++
	}
	return users, n, nil
}

// GetByID retrieves a user by their ID
func (repo *UserRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	return repo.get(repo.db.Txn(false), id)
}

func (repo *UserRepository) get(txn *memdb.Txn, id string) (*user.User, error) {
	obj, err := txn.First(tableUsers, indexID, id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	cpy := *obj.(*user.User)
	return &cpy, nil
}

// Create creates a new user
func (repo *UserRepository) Create(_ context.Context, create *user.Create) (*user.User, error) {
	obj := &user.User{
		ID:          create.ID,
		DisplayName: create.DisplayName,
		Email:       create.Email,
		Mobile:      create.Mobile,
		Restricted:  false,
		Admin:       create.Admin,
	}

	txn := repo.db.Txn(true)
	defer txn.Abort()
	existing, err := txn.First(tableUsers, indexID, create.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, storage.ErrAlreadyExists
	}
	if err := txn.Insert(tableUsers, obj); err != nil {
		return nil, err
	}
	txn.Commit()

	cpy := *obj
	return &cpy, nil
}

// Update updates an existing user
func (repo *UserRepository) Update(_ context.Context, id string, update *user.Update) (*user.User, error) {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	obj, err := repo.get(txn, id)
	if err != nil || obj == nil {
		return nil, err
	}
	if update.DisplayName != nil {
		obj.DisplayName = *update.DisplayName
	}
	if update.Email != nil {
		obj.Email = *update.Email
	}
	if update.Mobile != nil {
		obj.Mobile = *update.Mobile
	}
	if update.Restricted != nil {
		obj.Restricted = *update.Restricted
	}
	if update.Admin != nil {
		obj.Admin = *update.Admin
	}
	if err := txn.Insert(tableUsers, obj); err != nil {
		return nil, err
	}
	txn.Commit()

	cpy := *obj
	return &cpy, nil
}

// Delete deletes a user by their ID.
// All documents created by the user are deleted as well.
func (repo *UserRepository) Delete(_ context.Context, id string) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableUsers, indexID, id); err != nil {
		return err
	}
	if _, err := txn.DeleteAll(tableDocuments, indexOwner, id); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
