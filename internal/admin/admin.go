// Package admin generates list, form, details and export pages for
// registered resources under a single mount point.
package admin

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/choreadmin/internal/auth"
	"github.com/dukerupert/choreadmin/internal/flash"
	"github.com/dukerupert/choreadmin/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index.html", "list.html", "form.html", "details.html", "page.html"}

// PageFunc renders the body of a custom admin page.
type PageFunc func(r *http.Request) (template.HTML, error)

type page struct {
	name     string
	endpoint string
	render   PageFunc
}

type Options struct {
	Name      string
	Mount     string
	PageSize  int
	LogoutURL string
	Flash     *flash.Store
	Logger    *slog.Logger
}

type Admin struct {
	name      string
	mount     string
	pageSize  int
	logoutURL string
	flash     *flash.Store
	logger    *slog.Logger
	views     []*ModelView
	pages     []page
	templates map[string]*template.Template
}

func New(opts Options) *Admin {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	funcs := template.FuncMap{
		"isType": func(f Field, name string) bool { return fieldTypeNames[f.Type] == name },
	}
	tmpls := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpls[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}

	return &Admin{
		name:      opts.Name,
		mount:     strings.TrimRight(opts.Mount, "/"),
		pageSize:  opts.PageSize,
		logoutURL: opts.LogoutURL,
		flash:     opts.Flash,
		logger:    opts.Logger.With("component", "admin"),
		templates: tmpls,
	}
}

var fieldTypeNames = map[FieldType]string{
	Text:        "text",
	TextArea:    "textarea",
	Email:       "email",
	Password:    "password",
	Checkbox:    "checkbox",
	DateTime:    "datetime",
	Select:      "select",
	MultiSelect: "multiselect",
}

// Mount is the URL prefix the admin is served under, without a trailing slash.
func (a *Admin) Mount() string { return a.mount }

// AddView registers res under cfg.Endpoint. Create, edit and delete are only
// offered when both the config enables them and res implements the matching
// interface.
func (a *Admin) AddView(res Resource, cfg ViewConfig) *ModelView {
	v := &ModelView{admin: a, cfg: cfg, res: res}
	a.views = append(a.views, v)
	return v
}

// AddPage registers a custom page linked from the navigation.
func (a *Admin) AddPage(name, endpoint string, fn PageFunc) {
	a.pages = append(a.pages, page{name: name, endpoint: strings.Trim(endpoint, "/"), render: fn})
}

// Handler returns the router for everything under the mount. Paths are
// relative, so mount it with chi's Mount or http.StripPrefix.
func (a *Admin) Handler() http.Handler {
	a.logger.Debug("building admin routes", "mount", a.mount, "views", len(a.views), "pages", len(a.pages))

	r := chi.NewRouter()
	r.Get("/", a.index)
	for _, v := range a.views {
		r.Route("/"+v.cfg.Endpoint, v.routes)
	}
	for _, p := range a.pages {
		r.Get("/"+p.endpoint+"/", a.customPage(p))
		r.Get("/"+p.endpoint, func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, a.mount+"/"+p.endpoint+"/", http.StatusMovedPermanently)
		})
	}
	return r
}

type navItem struct {
	Name string
	URL  string
}

func (a *Admin) nav() []navItem {
	items := make([]navItem, 0, len(a.views)+len(a.pages))
	for _, v := range a.views {
		items = append(items, navItem{Name: v.cfg.Name, URL: v.ListURL()})
	}
	for _, p := range a.pages {
		items = append(items, navItem{Name: p.name, URL: a.mount + "/" + p.endpoint + "/"})
	}
	return items
}

func (a *Admin) index(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "index.html", map[string]any{
		"Title": a.name,
		"Items": a.nav(),
	})
}

func (a *Admin) customPage(p page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := p.render(r)
		if err != nil {
			logging.FromContext(r.Context()).Error("render admin page", "page", p.endpoint, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		a.render(w, r, "page.html", map[string]any{
			"Title": p.name,
			"Body":  body,
		})
	}
}

// render executes a page inside the layout. Flash notices are consumed here.
func (a *Admin) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	data["AppName"] = a.name
	data["Mount"] = a.mount
	data["Nav"] = a.nav()
	data["LogoutURL"] = a.logoutURL
	if a.flash != nil {
		data["Flashes"] = a.flash.Pop(w, r)
	}
	if p := auth.FromContext(r.Context()); p.IsAuthenticated() {
		data["User"] = p.User
	}

	var buf bytes.Buffer
	if err := a.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.FromContext(r.Context()).Error("render template", "template", name, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
