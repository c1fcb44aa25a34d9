package ownership

import "errors"

// ErrNotOwner is returned by Authorize if the identity may not access a record
var ErrNotOwner = errors.New("the identity does not own the record")

// Identity represents the authenticated principal performing a request.
// A nil *Identity represents an anonymous caller; every ownership check fails closed for it.
type Identity struct {
	ID    string `json:"id"`
	Admin bool   `json:"admin"`
}

// Owned is implemented by every record that keeps track of its creator
type Owned interface {
	OwnerID() string
}

// IsOwner checks whether the given identity created the given record
func IsOwner(record Owned, identity *Identity) bool {
	if record == nil || identity == nil || identity.ID == "" {
		return false
	}
	return record.OwnerID() == identity.ID
}

// IsOwnerOrAdmin checks whether the given identity either created the given record or is an administrator
func IsOwnerOrAdmin(record Owned, identity *Identity) bool {
	if identity != nil && identity.Admin {
		return true
	}
	return IsOwner(record, identity)
}

// Authorize returns ErrNotOwner if the given identity may neither access the record as its owner nor as an
// administrator
func Authorize(record Owned, identity *Identity) error {
	if !IsOwnerOrAdmin(record, identity) {
		return ErrNotOwner
	}
	return nil
}

// FilterByOwner returns the subsequence of records the given identity created.
// The relative order of the records is preserved and the input slice is never modified.
func FilterByOwner[T Owned](records []T, identity *Identity) []T {
	filtered := make([]T, 0, len(records))
	if identity == nil || identity.ID == "" {
		return filtered
	}
	for _, record := range records {
		if record.OwnerID() == identity.ID {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// FilterByOwnerOrAdmin behaves like FilterByOwner but returns all records if the identity is an administrator
func FilterByOwnerOrAdmin[T Owned](records []T, identity *Identity) []T {
	if identity != nil && identity.Admin {
		return records
	}
	return FilterByOwner(records, identity)
}
