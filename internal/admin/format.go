package admin

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
)

const (
	displayTimeLayout = "2006-01-02 15:04:05"
	inputTimeLayout   = "2006-01-02T15:04"
)

// Formatter renders a list cell. The result is trusted HTML.
type Formatter func(v *ModelView, r *http.Request, rec Record) template.HTML

// FormatPlain renders a value as text for list cells, details and exports.
func FormatPlain(value any) string {
	switch x := value.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(displayTimeLayout)
	case *time.Time:
		if x == nil {
			return ""
		}
		return FormatPlain(*x)
	case []string:
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// formValue renders a value for an input element's value attribute.
func formValue(value any) string {
	switch x := value.(type) {
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(inputTimeLayout)
	case *time.Time:
		if x == nil {
			return ""
		}
		return formValue(*x)
	case bool:
		if x {
			return "true"
		}
		return ""
	default:
		return FormatPlain(value)
	}
}

// ParseFormTime accepts the datetime-local layout the forms emit.
func ParseFormTime(s string) (time.Time, error) {
	return time.ParseInLocation(inputTimeLayout, strings.TrimSpace(s), time.UTC)
}

func defaultLabel(column string) string {
	s := strings.ReplaceAll(column, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
