package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"larder/internal/model"
	"larder/internal/store"
	"larder/internal/websocket"
)

type GroceryStoreHandler struct {
	stores *store.GroceryStoreStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGroceryStoreHandler(gs *store.GroceryStoreStore, hub *websocket.Hub, logger *slog.Logger) *GroceryStoreHandler {
	return &GroceryStoreHandler{stores: gs, hub: hub, logger: logger}
}

type groceryStoreRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (req *groceryStoreRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return "latitude out of range"
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return "longitude out of range"
	}
	return ""
}

func (h *GroceryStoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req groceryStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	gs, err := h.stores.Create(req.Name, req.Latitude, req.Longitude)
	if err != nil {
		h.logger.Error("create grocery store", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create store")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityGroceryStore, "created", gs.ID))
	writeJSON(w, http.StatusCreated, gs)
}

func (h *GroceryStoreHandler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.List()
	if err != nil {
		h.logger.Error("list grocery stores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list stores")
		return
	}
	if stores == nil {
		stores = []model.GroceryStore{}
	}
	writeJSON(w, http.StatusOK, stores)
}

func (h *GroceryStoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	gs, err := h.stores.GetByID(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "failed to get store")
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *GroceryStoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req groceryStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	gs, err := h.stores.Update(id, req.Name, req.Latitude, req.Longitude)
	if err != nil {
		writeStoreError(w, err, "failed to update store")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityGroceryStore, "updated", id))
	writeJSON(w, http.StatusOK, gs)
}

func (h *GroceryStoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.stores.Delete(id); err != nil {
		writeStoreError(w, err, "failed to delete store")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityGroceryStore, "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}
