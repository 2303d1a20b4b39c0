package handler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dukerupert/choreadmin/internal/admin"
	"github.com/dukerupert/choreadmin/internal/auth"
	"github.com/dukerupert/choreadmin/internal/logging"
	"github.com/dukerupert/choreadmin/internal/model"
	"github.com/dukerupert/choreadmin/internal/store"
)

var userSearchable = []string{"email", "first_name", "last_name"}

type userForm struct {
	FirstName   string  `schema:"first_name" validate:"required,max=255"`
	LastName    string  `schema:"last_name" validate:"max=255"`
	Email       string  `schema:"email" validate:"required,email,max=255"`
	Password    string  `schema:"password" validate:"omitempty,min=8,max=72"`
	Active      bool    `schema:"active"`
	ConfirmedAt string  `schema:"confirmed_at"`
	Roles       []int64 `schema:"roles"`
}

// UserResource exposes accounts. Password hashes never leave the store;
// the form's password field replaces the hash only when filled in.
type UserResource struct {
	users    *store.UserStore
	roles    *store.RoleStore
	sessions *store.SessionStore
}

func NewUserResource(us *store.UserStore, rs *store.RoleStore, ss *store.SessionStore) *UserResource {
	return &UserResource{users: us, roles: rs, sessions: ss}
}

func UserViewConfig() admin.ViewConfig {
	return admin.ViewConfig{
		Name:            "Users",
		Endpoint:        "user",
		Columns:         []string{"email", "first_name", "last_name", "active", "confirmed_at", "role_names"},
		Labels:          map[string]string{"role_names": "Roles"},
		Editable:        userSearchable,
		Searchable:      userSearchable,
		Filters:         userSearchable,
		Excluded:        []string{"password"},
		DetailsExcluded: []string{"password"},
		CanCreate:       true,
		CanEdit:         true,
		CanDelete:       true,
		CanViewDetails:  true,
		CanExport:       true,
		CreateModal:     true,
		EditModal:       true,
		DetailsModal:    true,
	}
}

func (res *UserResource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "first_name", Label: "First name", Type: admin.Text, Required: true},
		{Name: "last_name", Label: "Last name", Type: admin.Text},
		{Name: "email", Label: "Email", Type: admin.Email, Required: true},
		{Name: "password", Label: "Password", Type: admin.Password},
		{Name: "active", Label: "Active", Type: admin.Checkbox},
		{Name: "confirmed_at", Label: "Confirmed at", Type: admin.DateTime},
		{Name: "roles", Label: "Roles", Type: admin.MultiSelect, Options: res.roleOptions},
	}
}

func (res *UserResource) roleOptions(ctx context.Context) ([]admin.Option, error) {
	roles, err := res.roles.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]admin.Option, len(roles))
	for i, r := range roles {
		opts[i] = admin.Option{Value: idString(r.ID), Label: r.Name}
	}
	return opts, nil
}

func userRecord(u model.User) admin.Record {
	roleIDs := make([]string, 0, len(u.RoleSet))
	for _, id := range u.RoleSet.IDs() {
		roleIDs = append(roleIDs, idString(id))
	}
	return admin.Record{
		ID:    idString(u.ID),
		Title: u.Email,
		Values: map[string]any{
			"id":           u.ID,
			"first_name":   u.FirstName,
			"last_name":    u.LastName,
			"email":        u.Email,
			"active":       u.Active,
			"confirmed_at": u.ConfirmedAt,
			"role_names":   u.RoleSet.Names(),
			"roles":        roleIDs,
		},
	}
}

func (res *UserResource) List(ctx context.Context, q admin.Query) ([]admin.Record, int, error) {
	users, total, err := res.users.List(ctx, listParams(q, userSearchable))
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(users))
	for i, u := range users {
		out[i] = userRecord(u)
	}
	return out, total, nil
}

func (res *UserResource) Get(ctx context.Context, id string) (*admin.Record, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	u, err := res.users.GetByID(ctx, n)
	if err != nil || u == nil {
		return nil, err
	}
	rec := userRecord(*u)
	return &rec, nil
}

// params validates the form and converts it to store parameters. A password
// is only mandatory when creating.
func (res *UserResource) params(form url.Values, creating bool) (store.UserParams, error) {
	var f userForm
	if err := decodeForm(form, &f); err != nil {
		return store.UserParams{}, err
	}
	if creating && f.Password == "" {
		return store.UserParams{}, &admin.ValidationError{Fields: map[string]string{"password": "This field is required."}}
	}

	p := store.UserParams{
		FirstName: strings.TrimSpace(f.FirstName),
		Email:     strings.ToLower(strings.TrimSpace(f.Email)),
		Active:    f.Active,
		RoleIDs:   f.Roles,
	}
	if last := strings.TrimSpace(f.LastName); last != "" {
		p.LastName = &last
	}
	if f.ConfirmedAt != "" {
		t, err := admin.ParseFormTime(f.ConfirmedAt)
		if err != nil {
			return store.UserParams{}, &admin.ValidationError{Fields: map[string]string{"confirmed_at": "Not a valid datetime value."}}
		}
		p.ConfirmedAt = &t
	}
	if f.Password != "" {
		hash, err := auth.HashPassword(f.Password)
		if err != nil {
			return store.UserParams{}, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = hash
	}
	return p, nil
}

func (res *UserResource) Create(ctx context.Context, form url.Values) (*admin.Record, error) {
	p, err := res.params(form, true)
	if err != nil {
		return nil, err
	}
	u, err := res.users.Create(ctx, p)
	if err != nil {
		return nil, uniqueError(err, "email")
	}
	rec := userRecord(*u)
	return &rec, nil
}

func (res *UserResource) Update(ctx context.Context, id string, form url.Values) (*admin.Record, error) {
	n, _ := parseID(id)
	p, err := res.params(form, false)
	if err != nil {
		return nil, err
	}
	u, err := res.users.Update(ctx, n, p)
	if err != nil {
		return nil, uniqueError(err, "email")
	}
	if u == nil {
		return nil, errRecordGone
	}

	// A deactivated account loses its open sessions immediately.
	if !u.Active {
		if err := res.sessions.DeleteByUserID(ctx, u.ID); err != nil {
			logging.FromContext(ctx).Error("revoke sessions", "user_id", u.ID, "error", err)
		}
	}
	rec := userRecord(*u)
	return &rec, nil
}

func (res *UserResource) Delete(ctx context.Context, id string) error {
	n, _ := parseID(id)
	return res.users.Delete(ctx, n)
}
