package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"larder/internal/auth"
	"larder/internal/model"
	"larder/internal/store"
	"larder/internal/websocket"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	listStore      *store.ListStore
	userStore      *store.UserStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewHouseholdHandler(
	hs *store.HouseholdStore,
	ls *store.ListStore,
	us *store.UserStore,
	hub *websocket.Hub,
	logger *slog.Logger,
) *HouseholdHandler {
	return &HouseholdHandler{
		householdStore: hs,
		listStore:      ls,
		userStore:      us,
		hub:            hub,
		logger:         logger,
	}
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	household, err := h.householdStore.Create(userID, strings.TrimSpace(req.Name))
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	if _, err := h.userStore.SetHousehold(userID, &household.ID); err != nil {
		h.logger.Error("link creator household", "error", err)
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityHousehold, "created", household.ID))
	writeJSON(w, http.StatusCreated, household)
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.householdStore.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list households", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list households")
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

// Get returns the household. Only members may read it.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := auth.UserID(r.Context())

	household, err := h.householdStore.GetByID(id)
	if err != nil {
		writeStoreError(w, err, "failed to get household")
		return
	}
	if !household.IsMember(userID) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// Join adds the signed-in user to an existing household.
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := auth.UserID(r.Context())

	if err := h.householdStore.Join(id, userID); err != nil {
		writeStoreError(w, err, "failed to join household")
		return
	}
	if _, err := h.userStore.SetHousehold(userID, &id); err != nil {
		h.logger.Error("link user household", "error", err)
	}

	household, err := h.householdStore.GetByID(id)
	if err != nil {
		writeStoreError(w, err, "failed to get household")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityHousehold, "updated", id))
	writeJSON(w, http.StatusOK, household)
}

// Leave removes the signed-in user from the household.
func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := auth.UserID(r.Context())

	if err := h.householdStore.RemoveMember(id, userID); err != nil {
		writeStoreError(w, err, "failed to leave household")
		return
	}
	if _, err := h.userStore.SetHousehold(userID, nil); err != nil {
		h.logger.Error("unlink user household", "error", err)
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityHousehold, "updated", id))
	w.WriteHeader(http.StatusNoContent)
}

// AddMember adds another user to the household. The requester must already be
// a member. Adding a user who is already present succeeds without change.
func (h *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	requester := auth.UserID(r.Context())

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	member, err := h.householdStore.IsMember(id, requester)
	if err != nil {
		h.logger.Error("check membership", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	added, err := h.householdStore.AddMember(id, req.UserID)
	if err != nil {
		writeStoreError(w, err, "failed to add member")
		return
	}
	if added {
		if _, err := h.userStore.SetHousehold(req.UserID, &id); err != nil {
			h.logger.Error("link member household", "error", err)
		}
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityHousehold, "updated", id))
	}

	household, err := h.householdStore.GetByID(id)
	if err != nil {
		writeStoreError(w, err, "failed to get household")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// RemoveMember removes a user from the household. The requester must be a
// member; members may remove themselves or others.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	targetID := r.PathValue("user_id")
	requester := auth.UserID(r.Context())

	member, err := h.householdStore.IsMember(id, requester)
	if err != nil {
		h.logger.Error("check membership", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	if err := h.householdStore.RemoveMember(id, targetID); err != nil {
		writeStoreError(w, err, "failed to remove member")
		return
	}
	if _, err := h.userStore.SetHousehold(targetID, nil); err != nil {
		h.logger.Error("unlink member household", "error", err)
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityHousehold, "updated", id))
	w.WriteHeader(http.StatusNoContent)
}

// Rename changes the household name. Any member may rename.
func (h *HouseholdHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

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

	household, err := h.householdStore.Rename(id, auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeStoreError(w, err, "failed to rename household")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityHousehold, "updated", id))
	writeJSON(w, http.StatusOK, household)
}

// Delete removes the household. Only its creator may delete it; linked lists
// fall back to private.
func (h *HouseholdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.householdStore.Delete(id, auth.UserID(r.Context())); err != nil {
		writeStoreError(w, err, "failed to delete household")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityHousehold, "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// Lists returns the grocery lists linked to the household. Members only.
func (h *HouseholdHandler) Lists(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := auth.UserID(r.Context())

	member, err := h.householdStore.IsMember(id, userID)
	if err != nil {
		h.logger.Error("check membership", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list household lists")
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	lists, err := h.listStore.ListByHousehold(id)
	if err != nil {
		h.logger.Error("list household lists", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list household lists")
		return
	}
	if lists == nil {
		lists = []model.GroceryList{}
	}
	writeJSON(w, http.StatusOK, lists)
}
