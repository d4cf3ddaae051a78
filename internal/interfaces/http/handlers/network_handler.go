package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/convert"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

// NetworkHandler serves scaffold network building, retrieval, fragment
// listing and scaffold search.
type NetworkHandler struct {
	svc         appscaffold.Service
	logger      logging.Logger
	maxBodySize int64
}

// NewNetworkHandler creates a NetworkHandler.  A non-positive maxBodySize
// uses DefaultMaxBodySize.
func NewNetworkHandler(svc appscaffold.Service, logger logging.Logger, maxBodySize int64) *NetworkHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NetworkHandler{svc: svc, logger: logger, maxBodySize: maxBodySize}
}

// Build handles POST /api/v1/networks.
func (h *NetworkHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req dto.BuildNetworkRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.BuildNetwork(r.Context(), &appscaffold.BuildNetworkInput{
		SMILES: req.SMILES,
		Params: convert.ParamsFromDTO(req.Params),
		Source: "http",
		Reuse:  req.Reuse,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	status := http.StatusCreated
	if res.Source != appscaffold.SourceBuilt {
		status = http.StatusOK
	}
	writeJSON(w, r, status, convert.BuildResultToDTO(res))
}

// Get handles GET /api/v1/networks/{id}.
func (h *NetworkHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetNetwork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, convert.RecordToDTO(rec))
}

// List handles GET /api/v1/networks?limit=&offset=.
func (h *NetworkHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.ListNetworks(r.Context(), &appscaffold.ListInput{Limit: limit, Offset: offset})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writePaged(w, r, dto.ListNetworksResponse{Networks: convert.RecordsToDTO(res.Networks)},
		common.Page{Limit: res.Limit, Offset: res.Offset, Total: res.Total})
}

// Fragments handles POST /api/v1/fragments.
func (h *NetworkHandler) Fragments(w http.ResponseWriter, r *http.Request) {
	var req dto.FragmentsRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Fragments(r.Context(), &appscaffold.FragmentsInput{
		SMILES: req.SMILES,
		Params: convert.ParamsFromDTO(req.Params),
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, convert.FragmentsToDTO(res))
}

// Search handles GET /api/v1/scaffolds/search?smiles=&limit=&children=.
func (h *NetworkHandler) Search(w http.ResponseWriter, r *http.Request) {
	smiles := r.URL.Query().Get("smiles")
	if smiles == "" {
		writeAppError(w, r, h.logger, errors.InvalidParam("smiles query parameter is required"))
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.SearchScaffold(r.Context(), &appscaffold.SearchInput{
		SMILES:       smiles,
		Limit:        limit,
		WithChildren: queryBool(r, "children"),
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, convert.SearchToDTO(res))
}

//Personal.AI order the ending
