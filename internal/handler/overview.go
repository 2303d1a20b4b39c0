package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dukerupert/choreadmin/internal/store"
)

const recentCompletions = 10

// Overview is the admin landing page with table counts and the latest
// completions.
type Overview struct {
	stores Stores
}

func NewOverview(s Stores) *Overview {
	return &Overview{stores: s}
}

func (o *Overview) Render(r *http.Request) (template.HTML, error) {
	ctx := r.Context()
	one := store.ListParams{Limit: 1}

	roles, err := o.stores.Roles.Count(ctx)
	if err != nil {
		return "", err
	}
	_, users, err := o.stores.Users.List(ctx, one)
	if err != nil {
		return "", err
	}
	_, doIts, err := o.stores.DoIts.List(ctx, one)
	if err != nil {
		return "", err
	}
	didIts, err := o.stores.DidIts.Count(ctx)
	if err != nil {
		return "", err
	}
	recent, _, err := o.stores.DidIts.List(ctx, store.ListParams{Limit: recentCompletions})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = templates.ExecuteTemplate(&buf, "overview.html", map[string]any{
		"Roles":  roles,
		"Users":  users,
		"DoIts":  doIts,
		"DidIts": didIts,
		"Recent": recent,
	})
	if err != nil {
		return "", fmt.Errorf("render overview: %w", err)
	}
	return template.HTML(buf.String()), nil
}
