package handlers

import (
	"net/http"

	appabbr "github.com/turtacn/ScaffoldNet/internal/application/abbreviation"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/convert"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

type AbbreviationHandler struct {
	svc         appabbr.Service
	logger      logging.Logger
	maxBodySize int64
}

func NewAbbreviationHandler(svc appabbr.Service, logger logging.Logger, maxBodySize int64) *AbbreviationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AbbreviationHandler{svc: svc, logger: logger, maxBodySize: maxBodySize}
}

// Condense handles POST /api/v1/abbreviations/condense.
func (h *AbbreviationHandler) Condense(w http.ResponseWriter, r *http.Request) {
	var req dto.CondenseRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Condense(r.Context(), convert.CondenseInputFromDTO(&req))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, convert.CondenseToDTO(res))
}

// List handles GET /api/v1/abbreviations.
func (h *AbbreviationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.AbbreviationsResponse{
		Abbreviations: convert.AbbreviationsToDTO(h.svc.Definitions()),
	})
}

//Personal.AI order the ending
