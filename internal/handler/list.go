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

type ListHandler struct {
	listStore      *store.ListStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewListHandler(ls *store.ListStore, hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *ListHandler {
	return &ListHandler{listStore: ls, householdStore: hs, hub: hub, logger: logger}
}

// canAccess reports whether the user may see the list: its owner always, and
// every member of the linked household when there is one.
func (h *ListHandler) canAccess(l *model.GroceryList, userID string) (bool, error) {
	if l.OwnerID == userID {
		return true, nil
	}
	if l.HouseholdID == nil {
		return false, nil
	}
	return h.householdStore.IsMember(*l.HouseholdID, userID)
}

// getAccessible loads the list and enforces read access, writing the error
// response itself when access fails.
func (h *ListHandler) getAccessible(w http.ResponseWriter, r *http.Request, id string) *model.GroceryList {
	l, err := h.listStore.GetByID(id)
	if err != nil {
		writeStoreError(w, err, "failed to get list")
		return nil
	}
	ok, err := h.canAccess(l, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("check list access", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get list")
		return nil
	}
	if !ok {
		writeError(w, http.StatusForbidden, "access denied")
		return nil
	}
	return l
}

type listRequest struct {
	Name        string       `json:"name"`
	Priority    string       `json:"priority"`
	DueDate     *string      `json:"due_date"`
	HouseholdID *string      `json:"household_id"`
	Items       []model.Item `json:"items"`
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(req.Priority) {
		writeError(w, http.StatusBadRequest, "priority must be low, medium, or high")
		return
	}

	if req.HouseholdID != nil {
		member, err := h.householdStore.IsMember(*req.HouseholdID, userID)
		if err != nil {
			h.logger.Error("check membership", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create list")
			return
		}
		if !member {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
	}

	list, err := h.listStore.Create(userID, req.Name, req.Priority, req.DueDate, req.HouseholdID, req.Items)
	if err != nil {
		writeStoreError(w, err, "failed to create list")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, "created", list.ID))
	writeJSON(w, http.StatusCreated, list)
}

// List returns the signed-in user's own lists, household-linked or not.
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.listStore.ListByOwner(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list lists", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list lists")
		return
	}
	if lists == nil {
		lists = []model.GroceryList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	l := h.getAccessible(w, r, r.PathValue("id"))
	if l == nil {
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Update changes list metadata. The store enforces owner-only access.
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(req.Priority) {
		writeError(w, http.StatusBadRequest, "priority must be low, medium, or high")
		return
	}

	list, err := h.listStore.Update(id, auth.UserID(r.Context()), req.Name, req.Priority, req.DueDate)
	if err != nil {
		writeStoreError(w, err, "failed to update list")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, "updated", id))
	writeJSON(w, http.StatusOK, list)
}

// SetCompleted sets the list-level completion flag. Any user with read access
// may complete a list, mirroring how shared shopping works in practice.
func (h *ListHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.getAccessible(w, r, id) == nil {
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	list, err := h.listStore.SetCompleted(id, req.Completed)
	if err != nil {
		writeStoreError(w, err, "failed to update list")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, "updated", id))
	writeJSON(w, http.StatusOK, list)
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.listStore.Delete(id, auth.UserID(r.Context())); err != nil {
		writeStoreError(w, err, "failed to delete list")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// Attach links the list to a household. The requester must own the list and
// be a member of the target household.
func (h *ListHandler) Attach(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := auth.UserID(r.Context())

	var req struct {
		HouseholdID string `json:"household_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.HouseholdID == "" {
		writeError(w, http.StatusBadRequest, "household_id is required")
		return
	}

	existing, err := h.listStore.GetByID(id)
	if err != nil {
		writeStoreError(w, err, "failed to get list")
		return
	}
	if existing.OwnerID != userID {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	list, err := h.listStore.AttachToHousehold(id, req.HouseholdID, userID)
	if err != nil {
		writeStoreError(w, err, "failed to attach list")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, "updated", id))
	writeJSON(w, http.StatusOK, list)
}

// Detach makes the list private to its owner again.
func (h *ListHandler) Detach(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := auth.UserID(r.Context())

	existing, err := h.listStore.GetByID(id)
	if err != nil {
		writeStoreError(w, err, "failed to get list")
		return
	}
	if existing.OwnerID != userID {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	list, err := h.listStore.DetachFromHousehold(id)
	if err != nil {
		writeStoreError(w, err, "failed to detach list")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, "updated", id))
	writeJSON(w, http.StatusOK, list)
}

// --- Item handlers ---

type itemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Brand    string `json:"brand"`
}

// CreateItem appends an item to the list. Anyone with read access may add
// items, so household members can all contribute.
func (h *ListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")
	if h.getAccessible(w, r, listID) == nil {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	item, err := h.listStore.AddItem(listID, req.Name, req.Quantity, req.Brand)
	if err != nil {
		writeStoreError(w, err, "failed to add item")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, "created", item.ID))
	writeJSON(w, http.StatusCreated, item)
}

func (h *ListHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")
	if h.getAccessible(w, r, listID) == nil {
		return
	}

	items, err := h.listStore.ListItems(listID)
	if err != nil {
		h.logger.Error("list items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// itemWithAccess loads the item and enforces access through its parent list.
func (h *ListHandler) itemWithAccess(w http.ResponseWriter, r *http.Request) *model.Item {
	item, err := h.listStore.GetItemByID(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "failed to get item")
		return nil
	}
	if h.getAccessible(w, r, item.ListID) == nil {
		return nil
	}
	return item
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	item := h.itemWithAccess(w, r)
	if item == nil {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	updated, err := h.listStore.UpdateItem(item.ID, req.Name, req.Quantity, req.Brand)
	if err != nil {
		writeStoreError(w, err, "failed to update item")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, "updated", item.ID))
	writeJSON(w, http.StatusOK, updated)
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	item := h.itemWithAccess(w, r)
	if item == nil {
		return
	}

	if err := h.listStore.RemoveItem(item.ID); err != nil {
		writeStoreError(w, err, "failed to delete item")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, "deleted", item.ID))
	w.WriteHeader(http.StatusNoContent)
}

// ToggleItem flips the item's completion flag.
func (h *ListHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	item := h.itemWithAccess(w, r)
	if item == nil {
		return
	}

	toggled, err := h.listStore.ToggleItemCompleted(item.ID)
	if err != nil {
		writeStoreError(w, err, "failed to toggle item")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityItem, "updated", item.ID))
	writeJSON(w, http.StatusOK, toggled)
}

// ClearCompleted deletes every completed item on the list.
func (h *ListHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")
	if h.getAccessible(w, r, listID) == nil {
		return
	}

	count, err := h.listStore.ClearCompleted(listID)
	if err != nil {
		h.logger.Error("clear completed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear completed items")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityList, "updated", listID))
	writeJSON(w, http.StatusOK, map[string]int64{"cleared": count})
}
