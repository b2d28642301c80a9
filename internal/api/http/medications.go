package http

import (
	"net/http"

	"github.com/medtrackhq/medtrack/internal/api/service"
	"github.com/medtrackhq/medtrack/pkg/httpx"
)

// MedicationHandler serves the authenticated /user-medications endpoints.
type MedicationHandler struct {
	MedicationService *service.MedicationService
}

func (h *MedicationHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context())

	meds, err := h.MedicationService.List(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meds)
}

type medicationCreateRequest struct {
	DrugName     string `json:"drugName"`
	Rxcui        string `json:"rxcui"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	StartDate    string `json:"startDate"`
	Instructions string `json:"instructions"`
}

func (h *MedicationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context())

	var req medicationCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	med, err := h.MedicationService.Create(r.Context(), id.UserID, service.MedicationCreate{
		DrugName:     req.DrugName,
		Rxcui:        req.Rxcui,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		StartDate:    req.StartDate,
		Instructions: req.Instructions,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, med)
}

// medicationUpdateRequest uses pointers so an omitted field can be told
// apart from an explicitly blank one.
type medicationUpdateRequest struct {
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency"`
	StartDate    *string `json:"startDate"`
	Instructions *string `json:"instructions"`
}

func (h *MedicationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context())

	var req medicationUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	med, err := h.MedicationService.Update(r.Context(), id.UserID, r.PathValue("id"), service.MedicationUpdate{
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		StartDate:    req.StartDate,
		Instructions: req.Instructions,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, med)
}

func (h *MedicationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context())

	if err := h.MedicationService.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
