package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/canvas2d/internal/auth"
	"github.com/inamate/canvas2d/internal/document"
	"github.com/inamate/canvas2d/internal/engine"
	"github.com/inamate/canvas2d/internal/geom"
	"github.com/inamate/canvas2d/internal/typeid"
)

const maxDocumentSize = 4 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the scene endpoints on r, usually the /api subrouter.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/scenes", h.Create).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}", h.Get).Methods("GET")
	r.HandleFunc("/scenes/{sceneId}", h.Put).Methods("PUT")
	r.HandleFunc("/scenes/{sceneId}/hit", h.HitTest).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}/query", h.Query).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}/bounds", h.Bounds).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}/nearest", h.Nearest).Methods("POST")
}

type createRequest struct {
	Name   string `json:"name"`
	Sample bool   `json:"sample"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type queryRequest struct {
	Box []float64 `json:"box"`
}

type boundsRequest struct {
	ObjectIDs []string `json:"objectIds"`
}

type hitResponse struct {
	ObjectID string `json:"objectId"`
}

type queryResponse struct {
	ObjectIDs []string `json:"objectIds"`
}

type nearestResponse struct {
	Found bool `json:"found"`
	engine.NearestResult
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	snap, err := h.service.Create(r.Context(), req.Name, req.Sample)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("scene created", "scene", snap.SceneID, "by", auth.SubjectFromContext(r.Context()))
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := sceneIDFromRequest(w, r)
	if !ok {
		return
	}

	snap, err := h.service.Get(r.Context(), sceneID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := sceneIDFromRequest(w, r)
	if !ok {
		return
	}

	var doc document.InDocument
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentSize)).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document body"})
		return
	}

	snap, err := h.service.Put(r.Context(), sceneID, &doc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) HitTest(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	eng, ok := h.loadEngine(w, r, &req)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, hitResponse{ObjectID: eng.HitTest(req.X, req.Y)})
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	eng, ok := h.loadEngine(w, r, &req)
	if !ok {
		return
	}

	if len(req.Box) != 4 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "box must be [minX, minY, maxX, maxY]"})
		return
	}

	var region geom.Box2
	region.FromArray(req.Box, 0)

	ids := eng.Query(region)
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, queryResponse{ObjectIDs: ids})
}

func (h *Handler) Bounds(w http.ResponseWriter, r *http.Request) {
	var req boundsRequest
	eng, ok := h.loadEngine(w, r, &req)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, eng.Bounds(req.ObjectIDs))
}

func (h *Handler) Nearest(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	eng, ok := h.loadEngine(w, r, &req)
	if !ok {
		return
	}

	res, found := eng.Nearest(req.X, req.Y)
	writeJSON(w, http.StatusOK, nearestResponse{Found: found, NearestResult: res})
}

// loadEngine decodes the request body into req and loads the scene named in
// the path. It writes the error response itself and reports false on failure.
func (h *Handler) loadEngine(w http.ResponseWriter, r *http.Request, req any) (*engine.Engine, bool) {
	sceneID, ok := sceneIDFromRequest(w, r)
	if !ok {
		return nil, false
	}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}

	eng, err := h.service.Engine(r.Context(), sceneID)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return eng, true
}

func sceneIDFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	sceneID := mux.Vars(r)["sceneId"]
	if err := typeid.Validate(sceneID, typeid.PrefixScene); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid scene id"})
		return "", false
	}
	return sceneID, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrSceneMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scene id mismatch"})
	case errors.Is(err, ErrInvalidDocument):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
