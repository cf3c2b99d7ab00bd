package pagination

import (
	"fmt"
	"strings"

	"github.com/frahmantamala/access-control/internal"
	"gorm.io/gorm"
)

type Order string

const (
	OrderASC  Order = "ASC"
	OrderDESC Order = "DESC"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

func (o Order) flip() Order {
	if o == OrderASC {
		return OrderDESC
	}
	return OrderASC
}

// Query is a page request. Cursors are opaque values returned by a previous page.
type Query struct {
	Limit        int
	AfterCursor  string
	BeforeCursor string
	Order        Order
}

// Cursor holds the boundaries of a returned page. A nil side means there is
// nothing further in that direction.
type Cursor struct {
	AfterCursor  *string `json:"afterCursor"`
	BeforeCursor *string `json:"beforeCursor"`
}

type Page[T any] struct {
	Data   []T    `json:"data"`
	Cursor Cursor `json:"cursor"`
}

// Normalize applies defaults, clamps the limit and rejects conflicting cursors.
func (q Query) Normalize() (Query, error) {
	switch {
	case q.Limit == 0:
		q.Limit = DefaultLimit
	case q.Limit < 1:
		q.Limit = 1
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}

	switch Order(strings.ToUpper(string(q.Order))) {
	case "":
		q.Order = OrderDESC
	case OrderASC:
		q.Order = OrderASC
	case OrderDESC:
		q.Order = OrderDESC
	default:
		return q, internal.NewValidationFieldError("order", "order must be ASC or DESC", internal.ErrCodeValidationFailed)
	}

	if q.AfterCursor != "" && q.BeforeCursor != "" {
		return q, internal.NewValidationFieldError("beforeCursor", "afterCursor and beforeCursor cannot be combined", internal.ErrCodeCursorConflict)
	}
	return q, nil
}

// Keys runs keyset pagination over column on an already filtered query and
// returns the page keys in requested order.
func Keys(tx *gorm.DB, column string, q Query) (Page[int64], error) {
	q, err := q.Normalize()
	if err != nil {
		return Page[int64]{}, err
	}

	queryOrder := q.Order
	cursor := q.AfterCursor
	if q.BeforeCursor != "" {
		queryOrder = q.Order.flip()
		cursor = q.BeforeCursor
	}

	if cursor != "" {
		key, err := DecodeCursor(cursor)
		if err != nil {
			field := "afterCursor"
			if q.BeforeCursor != "" {
				field = "beforeCursor"
			}
			return Page[int64]{}, internal.NewValidationFieldError(field, "cursor is malformed", internal.ErrCodeInvalidCursor)
		}
		op := ">"
		if queryOrder == OrderDESC {
			op = "<"
		}
		tx = tx.Where(fmt.Sprintf("%s %s ?", column, op), key)
	}

	var keys []int64
	err = tx.Order(fmt.Sprintf("%s %s", column, queryOrder)).
		Limit(q.Limit+1).
		Pluck(column, &keys).Error
	if err != nil {
		return Page[int64]{}, fmt.Errorf("paginate keys: %w", err)
	}

	hasMore := len(keys) > q.Limit
	if hasMore {
		keys = keys[:q.Limit]
	}
	if q.BeforeCursor != "" {
		reverse(keys)
	}

	page := Page[int64]{Data: keys}
	if len(keys) == 0 {
		page.Data = []int64{}
		return page, nil
	}

	if q.BeforeCursor != "" || hasMore {
		c := EncodeCursor(keys[len(keys)-1])
		page.Cursor.AfterCursor = &c
	}
	if q.AfterCursor != "" || (hasMore && q.BeforeCursor != "") {
		c := EncodeCursor(keys[0])
		page.Cursor.BeforeCursor = &c
	}
	return page, nil
}

// Reorder arranges items to follow keys, dropping keys with no matching item.
func Reorder[T any](keys []int64, items []T, key func(T) int64) []T {
	byKey := make(map[int64]T, len(items))
	for _, it := range items {
		byKey[key(it)] = it
	}
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		if it, ok := byKey[k]; ok {
			out = append(out, it)
		}
	}
	return out
}

func reverse(s []int64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
