package handler

import (
	"context"

	"github.com/dukerupert/choreadmin/internal/admin"
	"github.com/dukerupert/choreadmin/internal/model"
	"github.com/dukerupert/choreadmin/internal/store"
)

var didItSearchable = []string{"doit_name", "done_at"}

// DidItResource is read-only; completions are only created by checkout.
type DidItResource struct {
	store *store.DidItStore
}

func NewDidItResource(s *store.DidItStore) *DidItResource {
	return &DidItResource{store: s}
}

func DidItViewConfig() admin.ViewConfig {
	return admin.ViewConfig{
		Name:           "DidIts",
		Endpoint:       "didit",
		Columns:        []string{"doit_name", "done_at"},
		Labels:         map[string]string{"doit_name": "DoIt", "done_at": "Done at"},
		DetailsColumns: []string{"id", "doit_name", "done_at"},
		Searchable:     didItSearchable,
		Filters:        didItSearchable,
		CanViewDetails: true,
		CanExport:      true,
		DetailsModal:   true,
	}
}

func (res *DidItResource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "doit_name", Label: "DoIt"},
		{Name: "done_at", Label: "Done at", Type: admin.DateTime},
	}
}

// didItRecord renders a completion. Completions of a deleted chore have no
// name and are titled by their own id.
func didItRecord(d model.DidIt) admin.Record {
	title := d.DoItName
	if title == "" {
		title = "#" + idString(d.ID)
	}
	return admin.Record{
		ID:    idString(d.ID),
		Title: title,
		Values: map[string]any{
			"id":        d.ID,
			"doit_id":   d.DoItID,
			"doit_name": d.DoItName,
			"done_at":   d.DoneAt,
		},
	}
}

func (res *DidItResource) List(ctx context.Context, q admin.Query) ([]admin.Record, int, error) {
	didIts, total, err := res.store.List(ctx, listParams(q, didItSearchable))
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(didIts))
	for i, d := range didIts {
		out[i] = didItRecord(d)
	}
	return out, total, nil
}

func (res *DidItResource) Get(ctx context.Context, id string) (*admin.Record, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	d, err := res.store.GetByID(ctx, n)
	if err != nil || d == nil {
		return nil, err
	}
	rec := didItRecord(*d)
	return &rec, nil
}
