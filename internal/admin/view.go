package admin

import (
	"encoding/csv"
	"errors"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/choreadmin/internal/flash"
	"github.com/dukerupert/choreadmin/internal/logging"
)

const filterPrefix = "flt_"

// ViewConfig declares how one entity is presented. Columns lists the list
// view cells in order; a column may be a record value or a Formatter key.
// Editable columns are edited in place on the list, one field per POST.
type ViewConfig struct {
	Name     string
	Endpoint string

	Columns         []string
	Labels          map[string]string
	FormColumns     []string
	Editable        []string
	Searchable      []string
	Filters         []string
	Excluded        []string
	DetailsColumns  []string
	DetailsExcluded []string
	ExportColumns   []string
	Formatters      map[string]Formatter

	CanCreate      bool
	CanEdit        bool
	CanDelete      bool
	CanViewDetails bool
	CanExport      bool

	CreateModal  bool
	EditModal    bool
	DetailsModal bool
}

type action struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

// ModelView serves the CRUD pages for one Resource.
type ModelView struct {
	admin   *Admin
	cfg     ViewConfig
	res     Resource
	actions []action
}

// URL joins parts below the view's endpoint.
func (v *ModelView) URL(parts ...string) string {
	u := v.admin.mount + "/" + v.cfg.Endpoint + "/"
	if len(parts) > 0 {
		u += strings.Join(parts, "/")
	}
	return u
}

func (v *ModelView) ListURL() string { return v.URL() }

// Flash exposes the admin's notice store to custom actions.
func (v *ModelView) Flash() *flash.Store { return v.admin.flash }

// Expose registers a custom handler at pattern below the view's endpoint.
// It must be called before the admin Handler is built.
func (v *ModelView) Expose(method, pattern string, h http.HandlerFunc) {
	v.actions = append(v.actions, action{method: method, pattern: strings.TrimPrefix(pattern, "/"), handler: h})
}

func (v *ModelView) creator() (Creator, bool) {
	c, ok := v.res.(Creator)
	return c, ok && v.cfg.CanCreate
}

func (v *ModelView) updater() (Updater, bool) {
	u, ok := v.res.(Updater)
	return u, ok && v.cfg.CanEdit
}

func (v *ModelView) deleter() (Deleter, bool) {
	d, ok := v.res.(Deleter)
	return d, ok && v.cfg.CanDelete
}

func (v *ModelView) routes(r chi.Router) {
	r.Get("/", v.list)
	if v.cfg.CanExport {
		r.Get("/export.csv", v.export)
	}
	if _, ok := v.creator(); ok {
		r.Get("/new", v.createForm)
		r.Post("/new", v.create)
	}
	if _, ok := v.updater(); ok {
		r.Get("/{id}/edit", v.editForm)
		r.Post("/{id}/edit", v.edit)
		if len(v.cfg.Editable) > 0 {
			r.Post("/{id}/field/{column}", v.editField)
		}
	}
	if _, ok := v.deleter(); ok {
		r.Post("/{id}/delete", v.delete)
	}
	if v.cfg.CanViewDetails {
		r.Get("/{id}", v.details)
	}
	for _, a := range v.actions {
		r.Method(a.method, "/"+a.pattern, a.handler)
	}
}

func (v *ModelView) label(column string) string {
	if l, ok := v.cfg.Labels[column]; ok {
		return l
	}
	for _, f := range v.res.Fields() {
		if f.Name == column && f.Label != "" {
			return f.Label
		}
	}
	return defaultLabel(column)
}

func (v *ModelView) listColumns() []string {
	var out []string
	for _, c := range v.cfg.Columns {
		if !slices.Contains(v.cfg.Excluded, c) {
			out = append(out, c)
		}
	}
	return out
}

func (v *ModelView) detailsColumns() []string {
	cols := v.cfg.DetailsColumns
	if len(cols) == 0 {
		cols = v.cfg.Columns
	}
	var out []string
	for _, c := range cols {
		if _, formatted := v.cfg.Formatters[c]; formatted {
			continue
		}
		if !slices.Contains(v.cfg.DetailsExcluded, c) {
			out = append(out, c)
		}
	}
	return out
}

func (v *ModelView) exportColumns() []string {
	if len(v.cfg.ExportColumns) > 0 {
		return v.cfg.ExportColumns
	}
	var out []string
	for _, c := range v.listColumns() {
		if _, formatted := v.cfg.Formatters[c]; !formatted {
			out = append(out, c)
		}
	}
	return out
}

func (v *ModelView) formFields() []Field {
	fields := v.res.Fields()
	if len(v.cfg.FormColumns) == 0 {
		return fields
	}
	var out []Field
	for _, name := range v.cfg.FormColumns {
		for _, f := range fields {
			if f.Name == name {
				out = append(out, f)
			}
		}
	}
	return out
}

func (v *ModelView) field(name string) (Field, bool) {
	for _, f := range v.res.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

var inlineEditTmpl = template.Must(template.New("inline").Parse(
	`<form class="inline-edit" method="POST" action="{{.Action}}">` +
		`<input type="{{.Type}}" name="value" value="{{.Value}}" aria-label="{{.Label}}">` +
		`<button type="submit">Save</button></form>`,
))

func (v *ModelView) cell(r *http.Request, rec Record, column string, editable bool) template.HTML {
	if f, ok := v.cfg.Formatters[column]; ok {
		return f(v, r, rec)
	}
	if editable && slices.Contains(v.cfg.Editable, column) {
		inputType := "text"
		if f, ok := v.field(column); ok && f.Type == Email {
			inputType = "email"
		}
		var buf strings.Builder
		err := inlineEditTmpl.Execute(&buf, map[string]string{
			"Action": v.URL(rec.ID, "field", column),
			"Type":   inputType,
			"Value":  formValue(rec.Values[column]),
			"Label":  v.label(column),
		})
		if err == nil {
			return template.HTML(buf.String())
		}
		logging.FromContext(r.Context()).Error("render inline edit", "view", v.cfg.Endpoint, "column", column, "error", err)
	}
	return template.HTML(template.HTMLEscapeString(FormatPlain(rec.Values[column])))
}

// query reads search, filters and paging from the request.
func (v *ModelView) query(r *http.Request) (Query, int) {
	params := r.URL.Query()
	q := Query{Filters: map[string]string{}}
	if len(v.cfg.Searchable) > 0 {
		q.Search = strings.TrimSpace(params.Get("search"))
	}
	for _, col := range v.cfg.Filters {
		if val := strings.TrimSpace(params.Get(filterPrefix + col)); val != "" {
			q.Filters[col] = val
		}
	}

	page, err := strconv.Atoi(params.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	q.Limit = v.admin.pageSize
	q.Offset = (page - 1) * v.admin.pageSize
	return q, page
}

type row struct {
	ID    string
	Cells []template.HTML
}

type filterInput struct {
	Name  string
	Label string
	Value string
}

func (v *ModelView) list(w http.ResponseWriter, r *http.Request) {
	q, page := v.query(r)
	records, total, err := v.res.List(r.Context(), q)
	if err != nil {
		v.fail(w, r, "list", err)
		return
	}

	_, canCreate := v.creator()
	_, canEdit := v.updater()
	_, canDelete := v.deleter()

	cols := v.listColumns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = v.label(c)
	}
	rows := make([]row, len(records))
	for i, rec := range records {
		cells := make([]template.HTML, len(cols))
		for j, c := range cols {
			cells[j] = v.cell(r, rec, c, canEdit)
		}
		rows[i] = row{ID: rec.ID, Cells: cells}
	}

	filters := make([]filterInput, len(v.cfg.Filters))
	for i, c := range v.cfg.Filters {
		filters[i] = filterInput{Name: filterPrefix + c, Label: v.label(c), Value: q.Filters[c]}
	}

	pages := int(math.Ceil(float64(total) / float64(v.admin.pageSize)))

	v.admin.render(w, r, "list.html", map[string]any{
		"Title":          v.cfg.Name,
		"View":           v,
		"Headers":        headers,
		"Colspan":        len(headers) + 1,
		"Rows":           rows,
		"Total":          total,
		"Search":         q.Search,
		"Searchable":     len(v.cfg.Searchable) > 0,
		"Filters":        filters,
		"Page":           page,
		"Pages":          pages,
		"PrevURL":        v.pageURL(r, page-1, pages),
		"NextURL":        v.pageURL(r, page+1, pages),
		"ExportURL":      v.exportURL(r),
		"CanCreate":      canCreate,
		"CanEdit":        canEdit,
		"CanDelete":      canDelete,
		"CanViewDetails": v.cfg.CanViewDetails,
		"CanExport":      v.cfg.CanExport,
	})
}

func (v *ModelView) pageURL(r *http.Request, page, pages int) string {
	if page < 1 || page > pages {
		return ""
	}
	params := r.URL.Query()
	params.Set("page", strconv.Itoa(page))
	return v.ListURL() + "?" + params.Encode()
}

func (v *ModelView) exportURL(r *http.Request) string {
	params := r.URL.Query()
	params.Del("page")
	if len(params) == 0 {
		return v.URL("export.csv")
	}
	return v.URL("export.csv") + "?" + params.Encode()
}

func (v *ModelView) export(w http.ResponseWriter, r *http.Request) {
	q, _ := v.query(r)
	q.Limit, q.Offset = 0, 0
	records, _, err := v.res.List(r.Context(), q)
	if err != nil {
		v.fail(w, r, "export", err)
		return
	}

	cols := v.exportColumns()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+v.cfg.Endpoint+`.csv"`)

	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = v.label(c)
	}
	cw.Write(header)
	for _, rec := range records {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = FormatPlain(rec.Values[c])
		}
		cw.Write(line)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.FromContext(r.Context()).Error("write csv export", "view", v.cfg.Endpoint, "error", err)
	}
}

type detailItem struct {
	Label string
	Value string
}

func (v *ModelView) details(w http.ResponseWriter, r *http.Request) {
	rec, ok := v.lookup(w, r)
	if !ok {
		return
	}
	cols := v.detailsColumns()
	items := make([]detailItem, len(cols))
	for i, c := range cols {
		items[i] = detailItem{Label: v.label(c), Value: FormatPlain(rec.Values[c])}
	}
	_, canEdit := v.updater()
	_, canDelete := v.deleter()
	v.admin.render(w, r, "details.html", map[string]any{
		"Title":     v.cfg.Name + " " + rec.Title,
		"View":      v,
		"Record":    rec,
		"Items":     items,
		"Modal":     v.cfg.DetailsModal,
		"CanEdit":   canEdit,
		"CanDelete": canDelete,
	})
}

// lookup loads the {id} record or flashes and redirects to the list.
func (v *ModelView) lookup(w http.ResponseWriter, r *http.Request) (*Record, bool) {
	rec, err := v.res.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		v.fail(w, r, "get", err)
		return nil, false
	}
	if rec == nil {
		v.admin.flash.Set(w, flash.Error("Record does not exist."))
		http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
		return nil, false
	}
	return rec, true
}

type formInput struct {
	Field
	Value    string
	Selected map[string]bool
	Choices  []Option
	Error    string
}

func (v *ModelView) inputs(r *http.Request, values map[string]any, submitted url.Values, errs map[string]string) ([]formInput, error) {
	fields := v.formFields()
	out := make([]formInput, len(fields))
	for i, f := range fields {
		in := formInput{Field: f, Error: errs[f.Name], Selected: map[string]bool{}}
		if in.Label == "" {
			in.Label = v.label(f.Name)
		}
		if f.Options != nil {
			opts, err := f.Options(r.Context())
			if err != nil {
				return nil, err
			}
			in.Choices = opts
		}

		switch {
		case submitted != nil:
			in.Value = submitted.Get(f.Name)
			for _, s := range submitted[f.Name] {
				in.Selected[s] = true
			}
		case values != nil:
			if sel, ok := values[f.Name].([]string); ok {
				for _, s := range sel {
					in.Selected[s] = true
				}
			} else {
				in.Value = formValue(values[f.Name])
			}
		}
		if f.Type == Password {
			in.Value = ""
		}
		out[i] = in
	}
	return out, nil
}

func (v *ModelView) renderForm(w http.ResponseWriter, r *http.Request, title, action string, modal bool, inputs []formInput) {
	v.admin.render(w, r, "form.html", map[string]any{
		"Title":  title,
		"View":   v,
		"Action": action,
		"Modal":  modal,
		"Inputs": inputs,
	})
}

func (v *ModelView) createForm(w http.ResponseWriter, r *http.Request) {
	inputs, err := v.inputs(r, nil, nil, nil)
	if err != nil {
		v.fail(w, r, "create form", err)
		return
	}
	v.renderForm(w, r, "Create "+v.cfg.Name, v.URL("new"), v.cfg.CreateModal, inputs)
}

func (v *ModelView) create(w http.ResponseWriter, r *http.Request) {
	c, _ := v.creator()
	if err := r.ParseForm(); err != nil {
		v.admin.flash.Set(w, flash.Error("Could not get form from request."))
		http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
		return
	}

	rec, err := c.Create(r.Context(), r.PostForm)
	if err != nil {
		v.formError(w, r, "Create "+v.cfg.Name, v.URL("new"), v.cfg.CreateModal, "Failed to create record.", err)
		return
	}
	logging.FromContext(r.Context()).Info("record created", "view", v.cfg.Endpoint, "id", rec.ID)
	v.admin.flash.Set(w, flash.Info("Record was successfully created."))
	http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
}

func (v *ModelView) editForm(w http.ResponseWriter, r *http.Request) {
	rec, ok := v.lookup(w, r)
	if !ok {
		return
	}
	inputs, err := v.inputs(r, rec.Values, nil, nil)
	if err != nil {
		v.fail(w, r, "edit form", err)
		return
	}
	v.renderForm(w, r, "Edit "+v.cfg.Name+" "+rec.Title, v.URL(rec.ID, "edit"), v.cfg.EditModal, inputs)
}

func (v *ModelView) edit(w http.ResponseWriter, r *http.Request) {
	u, _ := v.updater()
	rec, ok := v.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		v.admin.flash.Set(w, flash.Error("Could not get form from request."))
		http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
		return
	}

	if _, err := u.Update(r.Context(), rec.ID, r.PostForm); err != nil {
		v.formError(w, r, "Edit "+v.cfg.Name+" "+rec.Title, v.URL(rec.ID, "edit"), v.cfg.EditModal, "Failed to update record.", err)
		return
	}
	logging.FromContext(r.Context()).Info("record updated", "view", v.cfg.Endpoint, "id", rec.ID)
	v.admin.flash.Set(w, flash.Info("Record was successfully saved."))
	http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
}

// recordForm rebuilds the form a full edit would submit for rec as stored.
// Password fields stay empty so the resource keeps the current hash.
func (v *ModelView) recordForm(rec *Record) url.Values {
	form := url.Values{}
	for _, f := range v.formFields() {
		if f.Type == Password {
			continue
		}
		switch val := rec.Values[f.Name].(type) {
		case []string:
			form[f.Name] = slices.Clone(val)
		case bool:
			if val {
				form.Set(f.Name, "true")
			}
		default:
			form.Set(f.Name, formValue(val))
		}
	}
	return form
}

// editField saves one list cell. The rest of the record is resubmitted
// unchanged so the resource validates the row as a whole.
func (v *ModelView) editField(w http.ResponseWriter, r *http.Request) {
	u, _ := v.updater()
	column := chi.URLParam(r, "column")
	if !slices.Contains(v.cfg.Editable, column) {
		http.NotFound(w, r)
		return
	}
	rec, ok := v.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil || !r.PostForm.Has("value") {
		v.admin.flash.Set(w, flash.Error("Could not get form from request."))
		http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
		return
	}

	form := v.recordForm(rec)
	form[column] = r.PostForm["value"]
	if _, err := u.Update(r.Context(), rec.ID, form); err != nil {
		notice := "Failed to update record."
		var verr *ValidationError
		if errors.As(err, &verr) {
			notice += " " + v.validationSummary(verr)
		} else {
			logging.FromContext(r.Context()).Error("save field", "view", v.cfg.Endpoint, "id", rec.ID, "column", column, "error", err)
			notice += " " + err.Error()
		}
		v.admin.flash.Set(w, flash.Error(notice))
		http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
		return
	}
	logging.FromContext(r.Context()).Info("record updated", "view", v.cfg.Endpoint, "id", rec.ID, "column", column)
	v.admin.flash.Set(w, flash.Info("Record was successfully saved."))
	http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
}

func (v *ModelView) validationSummary(verr *ValidationError) string {
	names := make([]string, 0, len(verr.Fields))
	for name := range verr.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = v.label(name) + ": " + verr.Fields[name]
	}
	return strings.Join(parts, " ")
}

// formError re-renders a submitted form with the failure shown inline.
func (v *ModelView) formError(w http.ResponseWriter, r *http.Request, title, action string, modal bool, notice string, err error) {
	var verr *ValidationError
	errs := map[string]string{}
	if errors.As(err, &verr) {
		errs = verr.Fields
	} else {
		logging.FromContext(r.Context()).Error("save record", "view", v.cfg.Endpoint, "error", err)
		notice += " " + err.Error()
	}

	inputs, ierr := v.inputs(r, nil, r.PostForm, errs)
	if ierr != nil {
		v.fail(w, r, "form", ierr)
		return
	}
	v.admin.render(w, r, "form.html", map[string]any{
		"Title":  title,
		"View":   v,
		"Action": action,
		"Modal":  modal,
		"Inputs": inputs,
		"Notice": notice,
	})
}

func (v *ModelView) delete(w http.ResponseWriter, r *http.Request) {
	d, _ := v.deleter()
	rec, ok := v.lookup(w, r)
	if !ok {
		return
	}
	if err := d.Delete(r.Context(), rec.ID); err != nil {
		logging.FromContext(r.Context()).Error("delete record", "view", v.cfg.Endpoint, "id", rec.ID, "error", err)
		v.admin.flash.Set(w, flash.Error("Failed to delete record. "+err.Error()))
		http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
		return
	}
	logging.FromContext(r.Context()).Info("record deleted", "view", v.cfg.Endpoint, "id", rec.ID)
	v.admin.flash.Set(w, flash.Info("Record was successfully deleted."))
	http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
}

func (v *ModelView) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	logging.FromContext(r.Context()).Error("admin "+op, "view", v.cfg.Endpoint, "error", err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}
