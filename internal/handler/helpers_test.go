package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/choreadmin/internal/database"
	"github.com/dukerupert/choreadmin/internal/flash"
	"github.com/dukerupert/choreadmin/internal/store"
)

func setupStores(t *testing.T) Stores {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Stores{
		Roles:    store.NewRoleStore(db),
		Users:    store.NewUserStore(db),
		Sessions: store.NewSessionStore(db),
		DoIts:    store.NewDoItStore(db),
		DidIts:   store.NewDidItStore(db),
	}
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// popFlash returns the notices rec queued for the next page.
func popFlash(fs *flash.Store, rec *httptest.ResponseRecorder) []flash.Message {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return fs.Pop(httptest.NewRecorder(), req)
}

var testTime = time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)
