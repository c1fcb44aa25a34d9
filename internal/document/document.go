package document

import (
	"encoding/json"
	"fmt"
	"github.com/SierraSoftworks/connor"
	"github.com/google/uuid"
	"github.com/skybi/restkit/internal/stamp"
)

// Document represents a JSON document owned by the user who created it
type Document struct {
	ID      uuid.UUID      `json:"id"`
	Title   string         `json:"title"`
	Content map[string]any `json:"content"`
	stamp.Stamp
}

// Fields returns the generic JSON representation of the document
func (document *Document) Fields() (map[string]any, error) {
	raw, err := json.Marshal(document)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Matches checks whether the document matches the given filter.
// The filter uses MongoDB-like operators (i.e. '$eq', '$in', '$gt') on the JSON fields of the document.
// An empty filter matches every document.
func Matches(document *Document, filter map[string]any) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}
	fields, err := document.Fields()
	if err != nil {
		return false, err
	}
	match, err := connor.Match(filter, fields)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return match, nil
}

// Filter returns all documents matching the given filter, preserving their order
func Filter(documents []*Document, filter map[string]any) ([]*Document, error) {
	if len(filter) == 0 {
		return documents, nil
	}
	matching := make([]*Document, 0, len(documents))
	for _, document := range documents {
		match, err := Matches(document, filter)
		if err != nil {
			return nil, err
		}
		if match {
			matching = append(matching, document)
		}
	}
	return matching, nil
}

// Clone returns a deep copy of the document
func (document *Document) Clone() *Document {
	if document == nil {
		return nil
	}
	cpy := *document
	cpy.Content = cloneMap(document.Content)
	return &cpy
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = cloneValue(val)
	}
	return dst
}

func cloneValue(val any) any {
	switch typed := val.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		cpy := make([]any, len(typed))
		for i, elem := range typed {
			cpy[i] = cloneValue(elem)
		}
		return cpy
	default:
		return val
	}
}
