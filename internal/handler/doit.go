package handler

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukerupert/choreadmin/internal/admin"
	"github.com/dukerupert/choreadmin/internal/model"
	"github.com/dukerupert/choreadmin/internal/store"
)

var doItSearchable = []string{"name", "description"}

const doItNowColumn = "do it now!"

type doItForm struct {
	Name        string `schema:"name" validate:"required,max=255"`
	Description string `schema:"description" validate:"required,max=1000"`
}

// DoItResource exposes chore definitions with full CRUD.
type DoItResource struct {
	store *store.DoItStore
}

func NewDoItResource(s *store.DoItStore) *DoItResource {
	return &DoItResource{store: s}
}

func DoItViewConfig() admin.ViewConfig {
	return admin.ViewConfig{
		Name:            "DoIts",
		Endpoint:        "doit",
		Columns:         []string{"id", "name", "description", doItNowColumn},
		Labels:          map[string]string{doItNowColumn: "Do it now!"},
		FormColumns:     []string{"name", "description"},
		Editable:        doItSearchable,
		Searchable:      doItSearchable,
		Filters:         doItSearchable,
		Excluded:        []string{"id"},
		DetailsExcluded: []string{"id"},
		Formatters:      map[string]admin.Formatter{doItNowColumn: doItNow},
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

var doItNowTmpl = template.Must(template.New("doitnow").Parse(
	`<form action="{{.Action}}" method="POST"><input name="do_it_id" type="hidden" value="{{.ID}}"><button type="submit">Do it!</button></form>`,
))

// doItNow renders the one-button form that posts a completion for the row.
func doItNow(v *admin.ModelView, r *http.Request, rec admin.Record) template.HTML {
	var buf bytes.Buffer
	err := doItNowTmpl.Execute(&buf, map[string]string{
		"Action": v.URL("checkout"),
		"ID":     rec.ID,
	})
	if err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

func (res *DoItResource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "name", Label: "Name", Type: admin.Text, Required: true},
		{Name: "description", Label: "Description", Type: admin.TextArea, Required: true},
	}
}

func doItRecord(d model.DoIt) admin.Record {
	return admin.Record{
		ID:    idString(d.ID),
		Title: d.Name,
		Values: map[string]any{
			"id":          d.ID,
			"name":        d.Name,
			"description": d.Description,
		},
	}
}

func (res *DoItResource) List(ctx context.Context, q admin.Query) ([]admin.Record, int, error) {
	doIts, total, err := res.store.List(ctx, listParams(q, doItSearchable))
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(doIts))
	for i, d := range doIts {
		out[i] = doItRecord(d)
	}
	return out, total, nil
}

func (res *DoItResource) Get(ctx context.Context, id string) (*admin.Record, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	d, err := res.store.GetByID(ctx, n)
	if err != nil || d == nil {
		return nil, err
	}
	rec := doItRecord(*d)
	return &rec, nil
}

func (res *DoItResource) Create(ctx context.Context, form url.Values) (*admin.Record, error) {
	var f doItForm
	if err := decodeForm(form, &f); err != nil {
		return nil, err
	}
	d, err := res.store.Create(ctx, strings.TrimSpace(f.Name), strings.TrimSpace(f.Description))
	if err != nil {
		return nil, err
	}
	rec := doItRecord(*d)
	return &rec, nil
}

func (res *DoItResource) Update(ctx context.Context, id string, form url.Values) (*admin.Record, error) {
	n, _ := parseID(id)
	var f doItForm
	if err := decodeForm(form, &f); err != nil {
		return nil, err
	}
	d, err := res.store.Update(ctx, n, strings.TrimSpace(f.Name), strings.TrimSpace(f.Description))
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errRecordGone
	}
	rec := doItRecord(*d)
	return &rec, nil
}

func (res *DoItResource) Delete(ctx context.Context, id string) error {
	n, _ := parseID(id)
	return res.store.Delete(ctx, n)
}
