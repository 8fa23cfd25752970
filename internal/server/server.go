package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"larder/internal/email"
	"larder/internal/handler"
	"larder/internal/middleware"
	"larder/internal/store"
	ws "larder/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	householdH    *handler.HouseholdHandler
	listH         *handler.ListHandler
	groceryStoreH *handler.GroceryStoreHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	resetStore    *store.PasswordResetStore
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	resetStore := store.NewPasswordResetStore(db)
	listStore := store.NewListStore(db)
	groceryStoreStore := store.NewGroceryStoreStore(db)

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, householdStore, sessionStore, resetStore, emailClient, logger.With("component", "auth")),
		householdH:    handler.NewHouseholdHandler(householdStore, listStore, userStore, hub, logger.With("component", "household")),
		listH:         handler.NewListHandler(listStore, householdStore, hub, logger.With("component", "list")),
		groceryStoreH: handler.NewGroceryStoreHandler(groceryStoreStore, hub, logger.With("component", "grocery_store")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		resetStore:    resetStore,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// PasswordResetStore returns the reset store for cleanup tasks.
func (s *Server) PasswordResetStore() *store.PasswordResetStore {
	return s.resetStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes; credential endpoints are rate-limited by client IP
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/password-reset", s.rateLimitedHandler(s.authH.RequestPasswordReset))
	outerMux.HandleFunc("POST /api/auth/password-reset/confirm", s.rateLimitedHandler(s.authH.ResetPassword))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateProfile)

	// Household routes
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PUT /api/households/{id}", s.householdH.Rename)
	mux.HandleFunc("DELETE /api/households/{id}", s.householdH.Delete)
	mux.HandleFunc("POST /api/households/{id}/join", s.householdH.Join)
	mux.HandleFunc("POST /api/households/{id}/leave", s.householdH.Leave)
	mux.HandleFunc("POST /api/households/{id}/members", s.householdH.AddMember)
	mux.HandleFunc("DELETE /api/households/{id}/members/{user_id}", s.householdH.RemoveMember)
	mux.HandleFunc("GET /api/households/{id}/lists", s.householdH.Lists)

	// Grocery list routes
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("GET /api/lists/{id}", s.listH.Get)
	mux.HandleFunc("PUT /api/lists/{id}", s.listH.Update)
	mux.HandleFunc("PUT /api/lists/{id}/completed", s.listH.SetCompleted)
	mux.HandleFunc("DELETE /api/lists/{id}", s.listH.Delete)
	mux.HandleFunc("POST /api/lists/{id}/household", s.listH.Attach)
	mux.HandleFunc("DELETE /api/lists/{id}/household", s.listH.Detach)

	// List item routes
	mux.HandleFunc("POST /api/lists/{list_id}/items", s.listH.CreateItem)
	mux.HandleFunc("GET /api/lists/{list_id}/items", s.listH.ListItems)
	mux.HandleFunc("POST /api/lists/{list_id}/clear-completed", s.listH.ClearCompleted)
	mux.HandleFunc("PUT /api/items/{id}", s.listH.UpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", s.listH.DeleteItem)
	mux.HandleFunc("POST /api/items/{id}/toggle", s.listH.ToggleItem)

	// Grocery store routes
	mux.HandleFunc("POST /api/stores", s.groceryStoreH.Create)
	mux.HandleFunc("GET /api/stores", s.groceryStoreH.List)
	mux.HandleFunc("GET /api/stores/{id}", s.groceryStoreH.Get)
	mux.HandleFunc("PUT /api/stores/{id}", s.groceryStoreH.Update)
	mux.HandleFunc("DELETE /api/stores/{id}", s.groceryStoreH.Delete)

	// Change feed
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))
}
