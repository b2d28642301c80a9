package http

import (
	"net/http"

	"github.com/medtrackhq/medtrack/internal/api/service"
	"github.com/medtrackhq/medtrack/pkg/httpx"
)

// DrugSearchHandler proxies drug label lookups to the upstream API.
type DrugSearchHandler struct {
	DrugService *service.DrugService
}

func (h *DrugSearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.DrugService.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, results)
}
