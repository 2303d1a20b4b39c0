package admin

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/choreadmin/internal/flash"
)

type fakeRecord struct {
	id   int
	name string
	tags []string
}

// fakeResource keeps records in memory. It implements every optional
// interface so tests can switch capabilities through ViewConfig.
type fakeResource struct {
	mu        sync.Mutex
	records   []fakeRecord
	nextID    int
	lastQuery Query
	failList  error
}

func newFakeResource(names ...string) *fakeResource {
	f := &fakeResource{nextID: 1}
	for _, n := range names {
		f.records = append(f.records, fakeRecord{id: f.nextID, name: n})
		f.nextID++
	}
	return f
}

func (f *fakeResource) Fields() []Field {
	return []Field{
		{Name: "name", Label: "Name", Type: Text, Required: true},
		{Name: "tags", Type: MultiSelect, Options: func(context.Context) ([]Option, error) {
			return []Option{{Value: "a", Label: "Alpha"}, {Value: "b", Label: "Beta"}}, nil
		}},
	}
}

func (f *fakeResource) toRecord(r fakeRecord) Record {
	return Record{
		ID:     strconv.Itoa(r.id),
		Title:  r.name,
		Values: map[string]any{"id": r.id, "name": r.name, "tags": r.tags},
	}
}

func (f *fakeResource) List(ctx context.Context, q Query) ([]Record, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.failList != nil {
		return nil, 0, f.failList
	}

	var matched []Record
	for _, r := range f.records {
		if q.Search != "" && !strings.Contains(r.name, q.Search) {
			continue
		}
		if v, ok := q.Filters["name"]; ok && !strings.Contains(r.name, v) {
			continue
		}
		matched = append(matched, f.toRecord(r))
	}
	total := len(matched)
	if q.Offset > len(matched) {
		return nil, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (f *fakeResource) Get(ctx context.Context, id string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, nil
	}
	for _, r := range f.records {
		if r.id == n {
			rec := f.toRecord(r)
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeResource) Create(ctx context.Context, form url.Values) (*Record, error) {
	name := strings.TrimSpace(form.Get("name"))
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "is required"}}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := fakeRecord{id: f.nextID, name: name, tags: form["tags"]}
	f.nextID++
	f.records = append(f.records, r)
	rec := f.toRecord(r)
	return &rec, nil
}

func (f *fakeResource) Update(ctx context.Context, id string, form url.Values) (*Record, error) {
	name := strings.TrimSpace(form.Get("name"))
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "is required"}}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.Atoi(id)
	for i := range f.records {
		if f.records[i].id == n {
			f.records[i].name = name
			f.records[i].tags = form["tags"]
			rec := f.toRecord(f.records[i])
			return &rec, nil
		}
	}
	return nil, errors.New("gone")
}

func (f *fakeResource) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.Atoi(id)
	for i := range f.records {
		if f.records[i].id == n {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return nil
}

// readOnly hides the write methods of a fakeResource.
type readOnly struct{ res *fakeResource }

func (r readOnly) Fields() []Field { return r.res.Fields() }
func (r readOnly) List(ctx context.Context, q Query) ([]Record, int, error) {
	return r.res.List(ctx, q)
}
func (r readOnly) Get(ctx context.Context, id string) (*Record, error) { return r.res.Get(ctx, id) }

func fullConfig() ViewConfig {
	return ViewConfig{
		Name:           "Things",
		Endpoint:       "thing",
		Columns:        []string{"id", "name", "tags"},
		Excluded:       []string{"id"},
		Searchable:     []string{"name"},
		Filters:        []string{"name"},
		CanCreate:      true,
		CanEdit:        true,
		CanDelete:      true,
		CanViewDetails: true,
		CanExport:      true,
	}
}

type testAdmin struct {
	admin   *Admin
	handler http.Handler
	flash   *flash.Store
}

func newTestAdmin(t *testing.T, pageSize int, setup func(a *Admin)) *testAdmin {
	t.Helper()
	fs := flash.NewStore("test-secret", false)
	a := New(Options{Name: "Test Admin", Mount: "/admin/", PageSize: pageSize, LogoutURL: "/logout", Flash: fs})
	setup(a)

	root := http.NewServeMux()
	root.Handle("/admin/", http.StripPrefix("/admin", a.Handler()))
	return &testAdmin{admin: a, handler: root, flash: fs}
}

func (ta *testAdmin) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

// flashes reads the notices a response queued.
func (ta *testAdmin) flashes(rec *httptest.ResponseRecorder) []flash.Message {
	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return ta.flash.Pop(httptest.NewRecorder(), req)
}

func TestIndexListsViewsAndPages(t *testing.T) {
	ta := newTestAdmin(t, 10, func(a *Admin) {
		a.AddView(newFakeResource(), fullConfig())
		a.AddPage("Overview", "overview", func(r *http.Request) (template.HTML, error) {
			return "<p>hello</p>", nil
		})
	})

	rec := ta.do("GET", "/admin/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/admin/thing/"`)
	assert.Contains(t, body, `href="/admin/overview/"`)

	rec = ta.do("GET", "/admin/overview/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>hello</p>")
}

func TestListSearchFilterAndPaging(t *testing.T) {
	res := newFakeResource("apple", "banana", "apricot", "cherry", "avocado")
	ta := newTestAdmin(t, 2, func(a *Admin) { a.AddView(res, fullConfig()) })

	rec := ta.do("GET", "/admin/thing/?search=a&flt_name=a&flt_unknown=x&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "a", res.lastQuery.Search)
	assert.Equal(t, map[string]string{"name": "a"}, res.lastQuery.Filters)
	assert.Equal(t, 2, res.lastQuery.Limit)
	assert.Equal(t, 2, res.lastQuery.Offset)
	assert.Contains(t, rec.Body.String(), "Page 2 of 2")
}

func TestListHidesExcludedColumns(t *testing.T) {
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(newFakeResource("apple"), fullConfig()) })

	body := ta.do("GET", "/admin/thing/", nil).Body.String()
	assert.Contains(t, body, "<th>Name</th>")
	assert.NotContains(t, body, "<th>Id</th>")
}

func TestListEscapesValues(t *testing.T) {
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(newFakeResource("<b>bold</b>"), fullConfig()) })

	body := ta.do("GET", "/admin/thing/", nil).Body.String()
	assert.NotContains(t, body, "<b>bold</b>")
	assert.Contains(t, body, "&lt;b&gt;bold&lt;/b&gt;")
}

func TestFormatterRendersTrustedHTML(t *testing.T) {
	cfg := fullConfig()
	cfg.Columns = append(cfg.Columns, "go")
	cfg.Formatters = map[string]Formatter{
		"go": func(v *ModelView, r *http.Request, rec Record) template.HTML {
			return template.HTML(fmt.Sprintf(`<form action="%s"><input name="x" value="%s"></form>`, v.URL("act"), rec.ID))
		},
	}
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(newFakeResource("apple"), cfg) })

	body := ta.do("GET", "/admin/thing/", nil).Body.String()
	assert.Contains(t, body, `<form action="/admin/thing/act"><input name="x" value="1"></form>`)
}

func TestListError(t *testing.T) {
	res := newFakeResource()
	res.failList = errors.New("db down")
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(res, fullConfig()) })

	rec := ta.do("GET", "/admin/thing/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreate(t *testing.T) {
	res := newFakeResource()
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(res, fullConfig()) })

	rec := ta.do("GET", "/admin/thing/new", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="b">Beta</option>`)

	rec = ta.do("POST", "/admin/thing/new", url.Values{"name": {"pear"}, "tags": {"a", "b"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/thing/", rec.Header().Get("Location"))

	msgs := ta.flashes(rec)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Record was successfully created.", msgs[0].Text)

	require.Len(t, res.records, 1)
	assert.Equal(t, []string{"a", "b"}, res.records[0].tags)
}

func TestCreateValidationError(t *testing.T) {
	res := newFakeResource()
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(res, fullConfig()) })

	rec := ta.do("POST", "/admin/thing/new", url.Values{"name": {"  "}, "tags": {"b"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "is required")
	assert.Contains(t, body, `<option value="b" selected>Beta</option>`)
	assert.Empty(t, res.records)
}

func TestEdit(t *testing.T) {
	res := newFakeResource("apple")
	res.records[0].tags = []string{"a"}
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(res, fullConfig()) })

	rec := ta.do("GET", "/admin/thing/1/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="apple"`)
	assert.Contains(t, body, `<option value="a" selected>Alpha</option>`)

	rec = ta.do("POST", "/admin/thing/1/edit", url.Values{"name": {"apples"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "apples", res.records[0].name)
}

func TestEditMissingRecord(t *testing.T) {
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(newFakeResource(), fullConfig()) })

	rec := ta.do("GET", "/admin/thing/99/edit", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	msgs := ta.flashes(rec)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsError())
	assert.Equal(t, "Record does not exist.", msgs[0].Text)
}

func TestDelete(t *testing.T) {
	res := newFakeResource("apple", "banana")
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(res, fullConfig()) })

	rec := ta.do("POST", "/admin/thing/1/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, res.records, 1)
	assert.Equal(t, "banana", res.records[0].name)
}

func TestDetails(t *testing.T) {
	cfg := fullConfig()
	cfg.DetailsExcluded = []string{"tags"}
	cfg.DetailsModal = true
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(newFakeResource("apple"), cfg) })

	rec := ta.do("GET", "/admin/thing/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<th>Name</th><td>apple</td>")
	assert.NotContains(t, body, "<th>Tags</th>")
	assert.Contains(t, body, `<dialog class="modal" open>`)
}

func TestReadOnlyResourceHasNoWriteRoutes(t *testing.T) {
	res := newFakeResource("apple")
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(readOnly{res}, fullConfig()) })

	assert.Equal(t, http.StatusMethodNotAllowed, ta.do("POST", "/admin/thing/new", url.Values{"name": {"x"}}).Code)
	assert.Equal(t, http.StatusNotFound, ta.do("GET", "/admin/thing/1/edit", nil).Code)
	assert.Equal(t, http.StatusNotFound, ta.do("POST", "/admin/thing/1/delete", url.Values{}).Code)
	assert.Len(t, res.records, 1)

	body := ta.do("GET", "/admin/thing/", nil).Body.String()
	assert.NotContains(t, body, "/admin/thing/new")
	assert.NotContains(t, body, "/admin/thing/1/edit")
}

func TestExportCSV(t *testing.T) {
	ta := newTestAdmin(t, 1, func(a *Admin) {
		a.AddView(newFakeResource("apple", "banana", "cherry"), fullConfig())
	})

	rec := ta.do("GET", "/admin/thing/export.csv?search=an&page=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	lines, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Tags"}, {"banana", ""}}, lines)
}

func TestExposeRegistersCustomAction(t *testing.T) {
	var called bool
	ta := newTestAdmin(t, 10, func(a *Admin) {
		v := a.AddView(newFakeResource(), fullConfig())
		v.Expose(http.MethodPost, "checkout", func(w http.ResponseWriter, r *http.Request) {
			called = true
			v.Flash().Set(w, flash.Info("done"))
			http.Redirect(w, r, v.ListURL(), http.StatusSeeOther)
		})
	})

	rec := ta.do("POST", "/admin/thing/checkout", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, called)
	assert.Equal(t, "/admin/thing/", rec.Header().Get("Location"))
}

func TestListShowsAndConsumesFlash(t *testing.T) {
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(newFakeResource(), fullConfig()) })

	queued := httptest.NewRecorder()
	ta.flash.Set(queued, flash.Error("DoIt not found."))

	req := httptest.NewRequest("GET", "/admin/thing/", nil)
	for _, c := range queued.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `<div class="flash error" role="alert">DoIt not found.</div>`)
}

func TestEmptyTableSpansActionsColumn(t *testing.T) {
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(newFakeResource(), fullConfig()) })

	body := ta.do("GET", "/admin/thing/", nil).Body.String()
	assert.Contains(t, body, `<td colspan="3">There are no items in the table.</td>`)
}

func TestEditableColumnRendersInlineForm(t *testing.T) {
	cfg := fullConfig()
	cfg.Editable = []string{"name"}
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(newFakeResource("apple"), cfg) })

	body := ta.do("GET", "/admin/thing/", nil).Body.String()
	assert.Contains(t, body, `<form class="inline-edit" method="POST" action="/admin/thing/1/field/name">`)
	assert.Contains(t, body, `<input type="text" name="value" value="apple" aria-label="Name">`)
}

func TestEditableColumnsNeedUpdater(t *testing.T) {
	cfg := fullConfig()
	cfg.Editable = []string{"name"}
	res := newFakeResource("apple")
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(readOnly{res}, cfg) })

	body := ta.do("GET", "/admin/thing/", nil).Body.String()
	assert.NotContains(t, body, "inline-edit")
	assert.Equal(t, http.StatusNotFound, ta.do("POST", "/admin/thing/1/field/name", url.Values{"value": {"x"}}).Code)
	assert.Equal(t, "apple", res.records[0].name)
}

func TestEditFieldUpdatesOneColumn(t *testing.T) {
	cfg := fullConfig()
	cfg.Editable = []string{"name"}
	res := newFakeResource("apple")
	res.records[0].tags = []string{"a", "b"}
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(res, cfg) })

	rec := ta.do("POST", "/admin/thing/1/field/name", url.Values{"value": {"apples"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/thing/", rec.Header().Get("Location"))

	msgs := ta.flashes(rec)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Record was successfully saved.", msgs[0].Text)

	assert.Equal(t, "apples", res.records[0].name)
	assert.Equal(t, []string{"a", "b"}, res.records[0].tags)
}

func TestEditFieldValidationError(t *testing.T) {
	cfg := fullConfig()
	cfg.Editable = []string{"name"}
	res := newFakeResource("apple")
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(res, cfg) })

	rec := ta.do("POST", "/admin/thing/1/field/name", url.Values{"value": {"  "}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	msgs := ta.flashes(rec)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsError())
	assert.Equal(t, "Failed to update record. Name: is required", msgs[0].Text)
	assert.Equal(t, "apple", res.records[0].name)
}

func TestEditFieldRejectsBadRequests(t *testing.T) {
	cfg := fullConfig()
	cfg.Editable = []string{"name"}
	res := newFakeResource("apple")
	ta := newTestAdmin(t, 10, func(a *Admin) { a.AddView(res, cfg) })

	assert.Equal(t, http.StatusNotFound, ta.do("POST", "/admin/thing/1/field/tags", url.Values{"value": {"a"}}).Code)

	rec := ta.do("POST", "/admin/thing/1/field/name", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	msgs := ta.flashes(rec)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Could not get form from request.", msgs[0].Text)

	rec = ta.do("POST", "/admin/thing/99/field/name", url.Values{"value": {"x"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	msgs = ta.flashes(rec)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Record does not exist.", msgs[0].Text)

	assert.Equal(t, "apple", res.records[0].name)
}
