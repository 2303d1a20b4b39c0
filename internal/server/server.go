package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/choreadmin/internal/admin"
	"github.com/dukerupert/choreadmin/internal/auth"
	"github.com/dukerupert/choreadmin/internal/config"
	"github.com/dukerupert/choreadmin/internal/flash"
	"github.com/dukerupert/choreadmin/internal/handler"
	"github.com/dukerupert/choreadmin/internal/middleware"
	"github.com/dukerupert/choreadmin/internal/store"
)

const loginURL = "/login"

type Server struct {
	cfg         *config.Config
	stores      handler.Stores
	admin       *admin.Admin
	gate        *auth.Gate
	authH       *handler.AuthHandler
	homeH       *handler.HomeHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(cfg *config.Config, db *sqlx.DB, logger *slog.Logger) *Server {
	stores := handler.Stores{
		Roles:    store.NewRoleStore(db),
		Users:    store.NewUserStore(db),
		Sessions: store.NewSessionStore(db),
		DoIts:    store.NewDoItStore(db),
		DidIts:   store.NewDidItStore(db),
	}

	flashStore := flash.NewStore(cfg.Security.SecretKey, cfg.Security.CookieSecure)
	adm := admin.New(admin.Options{
		Name:      cfg.App.Name,
		Mount:     cfg.Admin.Mount,
		PageSize:  cfg.Admin.PageSize,
		LogoutURL: "/logout",
		Flash:     flashStore,
		Logger:    logger,
	})
	handler.RegisterAdmin(adm, stores)

	adminURL := adm.Mount() + "/"
	return &Server{
		cfg:    cfg,
		stores: stores,
		admin:  adm,
		gate:   auth.NewGate(cfg.Admin.RequiredRole),
		authH: handler.NewAuthHandler(
			stores.Users,
			stores.Sessions,
			cfg.Security.SessionTTL,
			cfg.Security.CookieSecure,
			adminURL,
			cfg.App.Name,
			logger.With("component", "auth"),
		),
		homeH:       handler.NewHomeHandler(cfg.App.Name, adminURL, logger.With("component", "home")),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginBurst),
		logger:      logger,
	}
}

// SessionStore returns the session store for startup cleanup.
func (s *Server) SessionStore() *store.SessionStore {
	return s.stores.Sessions
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoadSession(s.stores.Sessions, s.stores.Users))

	// Public routes
	r.Get("/", s.homeH.Home)
	r.Get("/health", s.homeH.Health)
	r.Get(loginURL, s.authH.LoginPage)
	r.With(middleware.RateLimit(s.rateLimiter, middleware.ClientIP(s.cfg.Server.TrustedProxy))).Post(loginURL, s.authH.Login)
	r.Post("/logout", s.authH.Logout)

	// Everything under the mount, including unknown paths, goes through the gate.
	r.Route(s.admin.Mount(), func(r chi.Router) {
		r.Use(middleware.RequireAccess(s.gate, loginURL))
		r.Mount("/", s.admin.Handler())
	})

	return r
}
