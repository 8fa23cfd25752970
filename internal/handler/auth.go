package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"larder/internal/auth"
	"larder/internal/email"
	"larder/internal/store"
)

const (
	sessionCookieName = "larder_session"
	minPasswordLength = 6
)

type AuthHandler struct {
	userStore      *store.UserStore
	householdStore *store.HouseholdStore
	sessionStore   *store.SessionStore
	resetStore     *store.PasswordResetStore
	emailClient    *email.Client
	logger         *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	hs *store.HouseholdStore,
	ss *store.SessionStore,
	prs *store.PasswordResetStore,
	ec *email.Client,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userStore:      us,
		householdStore: hs,
		sessionStore:   ss,
		resetStore:     prs,
		emailClient:    ec,
		logger:         logger,
	}
}

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	HouseholdID   string `json:"household_id"`
	HouseholdName string `json:"household_name"`
}

// Register creates the user account and its household linkage as a sequence
// of steps. If any step after the user insert fails, the just-created user is
// deleted again so a failed registration leaves the email address free for a
// retry. The compensating delete is best-effort: its own failure is logged,
// not retried.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := h.userStore.Create(req.Email, req.Name, string(hash))
	if errors.Is(err, store.ErrAlreadyExists) {
		writeError(w, http.StatusConflict, "email is already registered")
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	// Household step: join an existing household when an id was supplied,
	// otherwise create a fresh one with the new user as creator.
	var householdID string
	if req.HouseholdID != "" {
		if err := h.householdStore.Join(req.HouseholdID, user.ID); err != nil {
			h.rollbackUser(user.ID)
			writeStoreError(w, err, "registration failed")
			return
		}
		householdID = req.HouseholdID
	} else {
		household, err := h.householdStore.Create(user.ID, req.HouseholdName)
		if err != nil {
			h.logger.Error("create household", "error", err)
			h.rollbackUser(user.ID)
			writeError(w, http.StatusInternalServerError, "registration failed")
			return
		}
		householdID = household.ID
	}

	user, err = h.userStore.SetHousehold(user.ID, &householdID)
	if err != nil {
		h.logger.Error("link user household", "error", err)
		h.rollbackUser(user.ID)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	setSessionCookie(w, r, sess.Token)

	writeJSON(w, http.StatusCreated, user)
}

// rollbackUser deletes a user created by a registration that failed at a
// later step.
func (h *AuthHandler) rollbackUser(userID string) {
	if err := h.userStore.Delete(userID); err != nil {
		h.logger.Error("rollback user after failed registration", "user_id", userID, "error", err)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session. Unknown emails and wrong
// passwords get the same response to avoid leaking which addresses exist.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.userStore.GetByEmail(req.Email)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	setSessionCookie(w, r, sess.Token)

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeStoreError(w, err, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the signed-in user's display name.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.userStore.UpdateName(auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeStoreError(w, err, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// RequestPasswordReset issues a reset token and emails it. The response is
// always 202 so callers cannot probe which addresses are registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	defer writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("reset lookup", "error", err)
		}
		return
	}

	token, err := h.resetStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create password reset", "error", err)
		return
	}

	if !h.emailClient.Configured() {
		h.logger.Warn("password reset requested but email is not configured", "user_id", user.ID)
		return
	}
	if err := h.emailClient.SendPasswordReset(user.Email, token); err != nil {
		h.logger.Error("send password reset", "error", err)
	}
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	userID, err := h.resetStore.Consume(req.Token)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	if err != nil {
		h.logger.Error("consume password reset", "error", err)
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	if err := h.userStore.UpdatePassword(userID, string(hash)); err != nil {
		writeStoreError(w, err, "reset failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   90 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
