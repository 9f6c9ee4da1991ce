package intake

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type fieldRequest struct {
	SessionID string `json:"session_id"`
	Slot      string `json:"slot"`
	// Value is a pointer so an absent slot value is distinguished from
	// an empty string; both are rejected, but explicitly.
	Value *string `json:"value"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type symptomsRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	sess := h.svc.StartSession()
	json.NewEncoder(w).Encode(map[string]string{
		"session_id": sess.ID.String(),
		"state":      string(sess.State),
	})
}

func (h *Handler) ValidateField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	raw := ""
	if req.Value != nil {
		raw = *req.Value
	}

	res, err := h.svc.ValidateField(id, req.Slot, raw)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	res, err := h.svc.CompleteProfile(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) SubmitSymptoms(w http.ResponseWriter, r *http.Request) {
	var req symptomsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	res, err := h.svc.SubmitSymptoms(r.Context(), id, req.Text)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) IntakeReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	pdfData, err := h.svc.IntakeSummary(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(pdfData)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNoPatient):
		http.Error(w, "Patient ID not found. Please restart the intake.", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/intake", h.StartSession)
	r.Post("/intake/field", h.ValidateField)
	r.Post("/intake/profile", h.CompleteProfile)
	r.Post("/intake/symptoms", h.SubmitSymptoms)
	r.Get("/intake/report", h.IntakeReport)
}
