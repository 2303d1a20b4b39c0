package handler

import (
	"net/http"

	"github.com/dukerupert/choreadmin/internal/admin"
	"github.com/dukerupert/choreadmin/internal/store"
)

// Stores bundles the persistence layer the admin views read and write.
type Stores struct {
	Roles    *store.RoleStore
	Users    *store.UserStore
	Sessions *store.SessionStore
	DoIts    *store.DoItStore
	DidIts   *store.DidItStore
}

// RegisterAdmin adds every entity view, the checkout action and the overview
// page to a.
func RegisterAdmin(a *admin.Admin, s Stores) {
	a.AddView(NewRoleResource(s.Roles), RoleViewConfig())
	a.AddView(NewUserResource(s.Users, s.Roles, s.Sessions), UserViewConfig())

	doIts := a.AddView(NewDoItResource(s.DoIts), DoItViewConfig())
	checkout := NewCheckoutHandler(s.DoIts, s.DidIts, doIts.Flash(), doIts.ListURL())
	doIts.Expose(http.MethodPost, "checkout", checkout.ServeHTTP)

	a.AddView(NewDidItResource(s.DidIts), DidItViewConfig())
	a.AddPage("Overview", "overview", NewOverview(s).Render)
}
