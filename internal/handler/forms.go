package handler

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/dukerupert/choreadmin/internal/admin"
	"github.com/dukerupert/choreadmin/internal/store"
)

var errRecordGone = errors.New("record no longer exists")

var (
	formDecoder = newFormDecoder()
	validate    = newValidator()
)

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report errors under the form field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("schema"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeForm fills dst from form and validates it. Input problems come back
// as *admin.ValidationError.
func decodeForm(form url.Values, dst any) error {
	if err := formDecoder.Decode(dst, form); err != nil {
		var multi schema.MultiError
		if errors.As(err, &multi) {
			verr := &admin.ValidationError{Fields: map[string]string{}}
			for field := range multi {
				verr.Fields[field] = "Invalid value."
			}
			return verr
		}
		return fmt.Errorf("decode form: %w", err)
	}

	if err := validate.Struct(dst); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			verr := &admin.ValidationError{Fields: map[string]string{}}
			for _, fe := range ves {
				verr.Fields[fe.Field()] = fieldMessage(fe)
			}
			return verr
		}
		return fmt.Errorf("validate form: %w", err)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	default:
		return "Invalid value."
	}
}

// uniqueError maps a UNIQUE violation onto field, leaving other errors alone.
func uniqueError(err error, field string) error {
	if store.IsUniqueViolation(err) {
		return &admin.ValidationError{Fields: map[string]string{field: "Already in use."}}
	}
	return err
}

// parseID reads a positive integer identifier. Anything else is no id.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func listParams(q admin.Query, searchable []string) store.ListParams {
	return store.ListParams{
		Search:        q.Search,
		SearchColumns: searchable,
		Filters:       q.Filters,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
