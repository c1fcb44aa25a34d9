package stamp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/skybi/restkit/internal/ownership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndTouch(t *testing.T) {
	created := time.Date(2024, 3, 11, 5, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	s := New("alice", created)

	assert.Equal(t, "alice", s.OwnerID())
	assert.Equal(t, time.UTC, s.CreateDate.Location())
	assert.True(t, s.CreateDate.Equal(created))
	assert.Equal(t, s.CreateDate, s.UpdateDate)

	later := created.Add(time.Hour)
	s.Touch(later)
	assert.True(t, s.UpdateDate.Equal(later))
	assert.True(t, s.CreateDate.Equal(created))
}

func TestIsOwner(t *testing.T) {
	s := New("alice", time.Now())

	assert.True(t, s.IsOwner(&ownership.Identity{ID: "alice"}))
	assert.False(t, s.IsOwner(&ownership.Identity{ID: "bob", Admin: true}))
	assert.False(t, s.IsOwner(nil))
}

func TestJSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(New("alice", time.Unix(0, 0)))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, ProtectedFields, keys(fields))
}

func TestRejectProtected(t *testing.T) {
	fields := map[string]json.RawMessage{
		"title":       json.RawMessage(`"x"`),
		"update_date": json.RawMessage(`0`),
		"created_by":  json.RawMessage(`"mallory"`),
	}
	assert.Equal(t, []string{"created_by", "update_date"}, RejectProtected(fields))
	assert.Empty(t, RejectProtected(map[string]json.RawMessage{"title": nil}))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
