package document

import (
	"fmt"
	"github.com/skybi/restkit/internal/stamp"
	"sort"
	"strings"
)

// The fields documents may be ordered by
const (
	OrderID         = "id"
	OrderTitle      = "title"
	OrderCreateDate = stamp.FieldCreateDate
	OrderUpdateDate = stamp.FieldUpdateDate
)

// DefaultOrder is used if a query does not specify any order
var DefaultOrder = []Order{{Field: OrderCreateDate}}

// Order represents a single ordering criterion
type Order struct {
	Field      string
	Descending bool
}

// String returns the textual representation ('-field' for descending order)
func (order Order) String() string {
	if order.Descending {
		return "-" + order.Field
	}
	return order.Field
}

// ParseOrder parses multiple ordering criteria like 'title' or '-create_date'.
// If no criterion is given, DefaultOrder is returned.
func ParseOrder(raw []string) ([]Order, error) {
	orders := make([]Order, 0, len(raw))
	for _, str := range raw {
		str = strings.TrimSpace(str)
		if str == "" {
			continue
		}
		order := Order{Field: strings.TrimPrefix(str, "-"), Descending: strings.HasPrefix(str, "-")}
		switch order.Field {
		case OrderID, OrderTitle, OrderCreateDate, OrderUpdateDate:
		default:
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidOrder, order.Field)
		}
		orders = append(orders, order)
	}
	if len(orders) == 0 {
		return DefaultOrder, nil
	}
	return orders, nil
}

// Sort sorts the given documents in-place according to the ordering criteria.
// The sort is stable so that documents equal in all criteria keep their relative order.
func Sort(documents []*Document, orders []Order) {
	if len(orders) == 0 {
		orders = DefaultOrder
	}
	sort.SliceStable(documents, func(i, j int) bool {
		for _, order := range orders {
			cmp := compare(documents[i], documents[j], order.Field)
			if cmp == 0 {
				continue
			}
			if order.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compare(a, b *Document, field string) int {
	switch field {
	case OrderID:
		return strings.Compare(a.ID.String(), b.ID.String())
	case OrderTitle:
		return strings.Compare(a.Title, b.Title)
	case OrderCreateDate:
		return a.CreateDate.Compare(b.CreateDate)
	case OrderUpdateDate:
		return a.UpdateDate.Compare(b.UpdateDate)
	}
	return 0
}
