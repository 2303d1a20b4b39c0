package handler

import (
	"context"
	"net/url"
	"strings"

	"github.com/dukerupert/choreadmin/internal/admin"
	"github.com/dukerupert/choreadmin/internal/model"
	"github.com/dukerupert/choreadmin/internal/store"
)

var roleSearchable = []string{"name", "description"}

type roleForm struct {
	Name        string `schema:"name" validate:"required,max=80"`
	Description string `schema:"description" validate:"max=255"`
}

// RoleResource exposes roles to the admin with full CRUD.
type RoleResource struct {
	store *store.RoleStore
}

func NewRoleResource(s *store.RoleStore) *RoleResource {
	return &RoleResource{store: s}
}

func RoleViewConfig() admin.ViewConfig {
	return admin.ViewConfig{
		Name:           "Roles",
		Endpoint:       "role",
		Columns:        []string{"name", "description"},
		Searchable:     roleSearchable,
		Filters:        roleSearchable,
		CanCreate:      true,
		CanEdit:        true,
		CanDelete:      true,
		CanViewDetails: true,
		CanExport:      true,
		CreateModal:    true,
		EditModal:      true,
		DetailsModal:   true,
	}
}

func (res *RoleResource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "name", Label: "Name", Type: admin.Text, Required: true},
		{Name: "description", Label: "Description", Type: admin.Text},
	}
}

func roleRecord(r model.Role) admin.Record {
	return admin.Record{
		ID:    idString(r.ID),
		Title: r.String(),
		Values: map[string]any{
			"id":          r.ID,
			"name":        r.Name,
			"description": r.Description,
		},
	}
}

func (res *RoleResource) List(ctx context.Context, q admin.Query) ([]admin.Record, int, error) {
	roles, total, err := res.store.List(ctx, listParams(q, roleSearchable))
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(roles))
	for i, r := range roles {
		out[i] = roleRecord(r)
	}
	return out, total, nil
}

func (res *RoleResource) Get(ctx context.Context, id string) (*admin.Record, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	r, err := res.store.GetByID(ctx, n)
	if err != nil || r == nil {
		return nil, err
	}
	rec := roleRecord(*r)
	return &rec, nil
}

func (res *RoleResource) Create(ctx context.Context, form url.Values) (*admin.Record, error) {
	var f roleForm
	if err := decodeForm(form, &f); err != nil {
		return nil, err
	}
	r, err := res.store.Create(ctx, strings.TrimSpace(f.Name), strings.TrimSpace(f.Description))
	if err != nil {
		return nil, uniqueError(err, "name")
	}
	rec := roleRecord(*r)
	return &rec, nil
}

func (res *RoleResource) Update(ctx context.Context, id string, form url.Values) (*admin.Record, error) {
	n, _ := parseID(id)
	var f roleForm
	if err := decodeForm(form, &f); err != nil {
		return nil, err
	}
	r, err := res.store.Update(ctx, n, strings.TrimSpace(f.Name), strings.TrimSpace(f.Description))
	if err != nil {
		return nil, uniqueError(err, "name")
	}
	if r == nil {
		return nil, errRecordGone
	}
	rec := roleRecord(*r)
	return &rec, nil
}

func (res *RoleResource) Delete(ctx context.Context, id string) error {
	n, _ := parseID(id)
	return res.store.Delete(ctx, n)
}
