package pagination

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Filter is a composable gorm scope.
type Filter func(*gorm.DB) *gorm.DB

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches value as a case-insensitive substring of any column.
func Search(value string, columns ...string) Filter {
	return func(tx *gorm.DB) *gorm.DB {
		value = strings.TrimSpace(value)
		if value == "" || len(columns) == 0 {
			return tx
		}
		pattern := "%" + strings.ToLower(likeEscaper.Replace(value)) + "%"

		parts := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, c := range columns {
			parts[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, c)
			args[i] = pattern
		}
		return tx.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
}

// Equals filters column by value when value is set.
func Equals[T any](column string, value *T) Filter {
	return func(tx *gorm.DB) *gorm.DB {
		if value == nil {
			return tx
		}
		return tx.Where(fmt.Sprintf("%s = ?", column), *value)
	}
}

// Relation describes a junction table correlated to the outer row. When
// Target is set the referenced entity must be active as well.
type Relation struct {
	Table       string
	OwnerColumn string
	OwnerRef    string
	KeyColumn   string
	Target      string
}

// Exists keeps rows that have at least one active junction row pointing at
// key. A zero key disables the filter.
func Exists(rel Relation, key int64) Filter {
	return func(tx *gorm.DB) *gorm.DB {
		if key == 0 {
			return tx
		}
		sub := tx.Session(&gorm.Session{NewDB: true}).
			Table(rel.Table).
			Select("1").
			Where(fmt.Sprintf("%s.%s = %s", rel.Table, rel.OwnerColumn, rel.OwnerRef)).
			Where(fmt.Sprintf("%s.%s = ?", rel.Table, rel.KeyColumn), key).
			Where(fmt.Sprintf("%s.is_active = ?", rel.Table), true)
		if rel.Target != "" {
			sub = sub.
				Joins(fmt.Sprintf("JOIN %s ON %s.id = %s.%s", rel.Target, rel.Target, rel.Table, rel.KeyColumn)).
				Where(fmt.Sprintf("%s.is_active = ?", rel.Target), true)
		}
		return tx.Where("EXISTS (?)", sub)
	}
}

// Apply runs filters in order.
func Apply(tx *gorm.DB, filters ...Filter) *gorm.DB {
	for _, f := range filters {
		tx = f(tx)
	}
	return tx
}
