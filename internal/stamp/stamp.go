package stamp

import (
	"encoding/json"
	"github.com/skybi/restkit/internal/ownership"
	"sort"
	"time"
)

// Field names of the ownership information every stamped record carries
const (
	FieldCreatedBy  = "created_by"
	FieldCreateDate = "create_date"
	FieldUpdateDate = "update_date"
)

// ProtectedFields lists the fields clients may never set themselves; the server manages them
var ProtectedFields = []string{FieldCreatedBy, FieldCreateDate, FieldUpdateDate}

// Stamp holds the creator as well as the creation and last modification date of a record.
// It is meant to be embedded into record types.
type Stamp struct {
	CreatedBy  string    `json:"created_by"`
	CreateDate time.Time `json:"create_date"`
	UpdateDate time.Time `json:"update_date"`
}

var _ ownership.Owned = Stamp{}

// New creates a new stamp for a record created by owner at the given time
func New(owner string, now time.Time) Stamp {
	now = now.UTC()
	return Stamp{
		CreatedBy:  owner,
		CreateDate: now,
		UpdateDate: now,
	}
}

// OwnerID returns the ID of the user who created the record
func (stamp Stamp) OwnerID() string {
	return stamp.CreatedBy
}

// IsOwner checks whether the given identity created the record
func (stamp Stamp) IsOwner(identity *ownership.Identity) bool {
	return ownership.IsOwner(stamp, identity)
}

// Touch updates the last modification date
func (stamp *Stamp) Touch(now time.Time) {
	stamp.UpdateDate = now.UTC()
}

// RejectProtected returns the (sorted) names of all protected fields present in the given raw JSON object
func RejectProtected(fields map[string]json.RawMessage) []string {
	var present []string
	for _, name := range ProtectedFields {
		if _, ok := fields[name]; ok {
			present = append(present, name)
		}
	}
	sort.Strings(present)
	return present
}
