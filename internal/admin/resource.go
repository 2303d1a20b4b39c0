package admin

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// FieldType selects the form widget for a Field.
type FieldType int

const (
	Text FieldType = iota
	TextArea
	Email
	Password
	Checkbox
	DateTime
	Select
	MultiSelect
)

type Option struct {
	Value string
	Label string
}

// Field describes one editable column.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	// Options lists the choices for Select and MultiSelect fields.
	Options func(ctx context.Context) ([]Option, error)
}

// Record is one row as the admin sees it. Values holds display values keyed
// by column name; MultiSelect values are []string of option values.
type Record struct {
	ID     string
	Title  string
	Values map[string]any
}

// Query is a list request. Limit 0 means no limit.
type Query struct {
	Search  string
	Filters map[string]string
	Limit   int
	Offset  int
}

// Resource is the minimum a view needs: read access to one entity type.
type Resource interface {
	Fields() []Field
	List(ctx context.Context, q Query) ([]Record, int, error)
	// Get returns nil, nil when id does not name a record.
	Get(ctx context.Context, id string) (*Record, error)
}

type Creator interface {
	Create(ctx context.Context, form url.Values) (*Record, error)
}

type Updater interface {
	Update(ctx context.Context, id string, form url.Values) (*Record, error)
}

type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// ValidationError reports per-field input problems from Create or Update.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}
