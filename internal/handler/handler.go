package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/srl-labs/vscode-containerlab-sub006/internal/domain"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/ident"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/reconcile"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/repository"
	"github.com/srl-labs/vscode-containerlab-sub006/internal/service"
)

// TopologyHandler handles topology API requests
type TopologyHandler struct {
	svc      *service.TopologyService
	registry repository.Registry
}

// NewTopologyHandler creates a new topology handler
func NewTopologyHandler(svc *service.TopologyService) *TopologyHandler {
	return &TopologyHandler{svc: svc}
}

// SetRegistry sets the lab registry backing the recent-labs listing
func (h *TopologyHandler) SetRegistry(reg repository.Registry) {
	h.registry = reg
}

// ErrorResponse is the JSON error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetElements returns the topology as a canvas element list
func (h *TopologyHandler) GetElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.svc.Elements(r.Context())
	if err != nil {
		log.Printf("Failed to load topology: %v", err)
		h.writeError(w, "Failed to load topology", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, elements, http.StatusOK)
}

// saveRequest is the POST body for a topology save
type saveRequest struct {
	Mode     string           `json:"mode"`
	Elements []domain.Element `json:"elements"`
}

// SaveTopology runs a reconciliation pass for the posted snapshot
func (h *TopologyHandler) SaveTopology(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	mode, ok := parseMode(req.Mode)
	if !ok {
		h.writeError(w, "Invalid mode", "mode must be edit or view", http.StatusBadRequest)
		return
	}

	snap := domain.NewSnapshot(req.Elements)
	if err := h.svc.Save(r.Context(), snap, mode); err != nil {
		if reconcile.IsStructural(err) {
			h.writeError(w, "Document cannot hold this topology", err.Error(), http.StatusUnprocessableEntity)
			return
		}
		log.Printf("Failed to save topology: %v", err)
		h.writeError(w, "Failed to save topology", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]any{
		"saved": true,
		"nodes": len(snap.Nodes),
		"links": len(snap.Links),
	}, http.StatusOK)
}

func parseMode(s string) (reconcile.Mode, bool) {
	switch s {
	case "", "edit":
		return reconcile.ModeEdit, true
	case "view":
		return reconcile.ModeView, true
	default:
		return 0, false
	}
}

// GetAnnotations returns the full annotation collection
func (h *TopologyHandler) GetAnnotations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Annotations(), http.StatusOK)
}

// annotationsRequest carries the canvas-owned annotation layers
type annotationsRequest struct {
	FreeTextAnnotations   []domain.FreeTextAnnotation   `json:"freeTextAnnotations"`
	FreeShapeAnnotations  []domain.FreeShapeAnnotation  `json:"freeShapeAnnotations"`
	GroupStyleAnnotations []domain.GroupStyleAnnotation `json:"groupStyleAnnotations"`
}

// PutAnnotations replaces the canvas-owned annotation layers wholesale
func (h *TopologyHandler) PutAnnotations(w http.ResponseWriter, r *http.Request) {
	var req annotationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.ReplaceCanvasAnnotations(req.FreeTextAnnotations, req.FreeShapeAnnotations, req.GroupStyleAnnotations); err != nil {
		log.Printf("Failed to save annotations: %v", err)
		h.writeError(w, "Failed to save annotations", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, h.svc.Annotations(), http.StatusOK)
}

// nameRequest asks for a fresh identifier
type nameRequest struct {
	Base  string `json:"base"`
	Class string `json:"class"`
}

// AllocateName returns a fresh identifier derived from the requested base
func (h *TopologyHandler) AllocateName(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Base == "" {
		h.writeError(w, "Invalid base", "base is required", http.StatusBadRequest)
		return
	}

	class, ok := parseClass(req.Class)
	if !ok {
		h.writeError(w, "Invalid class", "unknown identifier class "+req.Class, http.StatusBadRequest)
		return
	}

	name, err := h.svc.FreeName(r.Context(), req.Base, class)
	if err != nil {
		log.Printf("Failed to allocate name: %v", err)
		h.writeError(w, "Failed to allocate name", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{"name": name}, http.StatusOK)
}

func parseClass(s string) (ident.Class, bool) {
	switch s {
	case "", "regular":
		return ident.ClassRegular, true
	case "group":
		return ident.ClassGroup, true
	case "dummy":
		return ident.ClassDummy, true
	case "adapter":
		return ident.ClassAdapter, true
	case "endpoint":
		return ident.ClassEndpoint, true
	default:
		return 0, false
	}
}

// ListLabs returns the recent-labs registry listing
func (h *TopologyHandler) ListLabs(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		h.writeJSON(w, []domain.LabRecord{}, http.StatusOK)
		return
	}

	records, err := h.registry.List(r.Context())
	if err != nil {
		log.Printf("Failed to list labs: %v", err)
		h.writeError(w, "Failed to list labs", err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.LabRecord{}
	}

	h.writeJSON(w, records, http.StatusOK)
}

// Health reports liveness
func (h *TopologyHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok", "topology": h.svc.DocumentPath()}, http.StatusOK)
}

func (h *TopologyHandler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *TopologyHandler) writeError(w http.ResponseWriter, msg, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: msg, Details: details}, statusCode)
}
