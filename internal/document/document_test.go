package document

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skybi/restkit/internal/stamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocument(title, owner string, created time.Time) *Document {
	return &Document{
		ID:      uuid.New(),
		Title:   title,
		Content: map[string]any{"color": "red"},
		Stamp:   stamp.New(owner, created),
	}
}

func TestFieldsFlattenStamp(t *testing.T) {
	doc := newDocument("a", "alice", time.Unix(100, 0))

	fields, err := doc.Fields()
	require.NoError(t, err)

	assert.Equal(t, "a", fields["title"])
	assert.Equal(t, "alice", fields["created_by"])
	assert.Contains(t, fields, "create_date")
	assert.Contains(t, fields, "update_date")
	assert.Equal(t, map[string]any{"color": "red"}, fields["content"])
}

func TestMatches(t *testing.T) {
	doc := newDocument("report", "alice", time.Unix(100, 0))

	match, err := Matches(doc, nil)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = Matches(doc, map[string]any{"title": map[string]any{"$eq": "report"}})
	require.NoError(t, err)
	assert.True(t, match)

	match, err = Matches(doc, map[string]any{"created_by": map[string]any{"$eq": "bob"}})
	require.NoError(t, err)
	assert.False(t, match)
}

func TestFilterPreservesOrder(t *testing.T) {
	docs := []*Document{
		newDocument("x", "alice", time.Unix(1, 0)),
		newDocument("y", "bob", time.Unix(2, 0)),
		newDocument("z", "alice", time.Unix(3, 0)),
	}

	out, err := Filter(docs, map[string]any{"created_by": map[string]any{"$eq": "alice"}})
	require.NoError(t, err)
	assert.Equal(t, []*Document{docs[0], docs[2]}, out)

	out, err = Filter(docs, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, docs, out)
}

func TestParseOrder(t *testing.T) {
	orders, err := ParseOrder(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOrder, orders)

	orders, err = ParseOrder([]string{"-create_date", " title ", ""})
	require.NoError(t, err)
	assert.Equal(t, []Order{{Field: OrderCreateDate, Descending: true}, {Field: OrderTitle}}, orders)
	assert.Equal(t, "-create_date", orders[0].String())
	assert.Equal(t, "title", orders[1].String())

	_, err = ParseOrder([]string{"content"})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = ParseOrder([]string{"-"})
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestSort(t *testing.T) {
	a := newDocument("b", "alice", time.Unix(3, 0))
	b := newDocument("a", "alice", time.Unix(1, 0))
	c := newDocument("a", "alice", time.Unix(2, 0))

	docs := []*Document{a, b, c}
	Sort(docs, nil)
	assert.Equal(t, []*Document{b, c, a}, docs)

	Sort(docs, []Order{{Field: OrderCreateDate, Descending: true}})
	assert.Equal(t, []*Document{a, c, b}, docs)

	Sort(docs, []Order{{Field: OrderTitle}, {Field: OrderCreateDate, Descending: true}})
	assert.Equal(t, []*Document{c, b, a}, docs)
}

func TestCloneIsDeep(t *testing.T) {
	doc := newDocument("a", "alice", time.Unix(1, 0))
	doc.Content["nested"] = map[string]any{"list": []any{"x"}}

	cpy := doc.Clone()
	cpy.Title = "b"
	cpy.Content["color"] = "blue"
	cpy.Content["nested"].(map[string]any)["list"].([]any)[0] = "y"

	assert.Equal(t, "a", doc.Title)
	assert.Equal(t, "red", doc.Content["color"])
	assert.Equal(t, "x", doc.Content["nested"].(map[string]any)["list"].([]any)[0])
	assert.Nil(t, (*Document)(nil).Clone())
}
