package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appabbr "github.com/turtacn/ScaffoldNet/internal/application/abbreviation"
	"github.com/turtacn/ScaffoldNet/internal/config"
	domain "github.com/turtacn/ScaffoldNet/internal/domain/abbreviation"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

func newAbbreviationHandler(t *testing.T) *AbbreviationHandler {
	t.Helper()
	svc, err := appabbr.NewService(appabbr.Deps{Config: config.AbbreviationConfig{MaxCoverage: domain.DefaultMaxCoverage}})
	require.NoError(t, err)
	return NewAbbreviationHandler(svc, nil, 0)
}

func TestAbbreviationHandler_Condense(t *testing.T) {
	h := newAbbreviationHandler(t)
	w := serve(h.Condense, http.MethodPost, "/api/v1/abbreviations/condense",
		`{"smiles":"c1ccccc1OC","labels":["OMe"]}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[dto.CondenseResponse](t, w)
	assert.Equal(t, "*c1ccccc1 |$OMe;;;;;;$|", resp.Data.CXSMILES)
	assert.Equal(t, appabbr.ModePattern, resp.Data.Mode)
	assert.Equal(t, map[string]int{"OMe": 1}, resp.Data.Applied)
}

func TestAbbreviationHandler_CoverageOverride(t *testing.T) {
	h := newAbbreviationHandler(t)
	w := serve(h.Condense, http.MethodPost, "/api/v1/abbreviations/condense",
		`{"smiles":"CC(=O)O","labels":["CO2H"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"CO2H"}, decodeBody[dto.CondenseResponse](t, w).Data.Gated)

	w = serve(h.Condense, http.MethodPost, "/api/v1/abbreviations/condense",
		`{"smiles":"CC(=O)O","labels":["CO2H"],"max_coverage":1.0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*C |$CO2H;$|", decodeBody[dto.CondenseResponse](t, w).Data.CXSMILES)
}

func TestAbbreviationHandler_Errors(t *testing.T) {
	h := newAbbreviationHandler(t)

	w := serve(h.Condense, http.MethodPost, "/api/v1/abbreviations/condense", `{"smiles":"CCO","labels":["Nope"]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h.Condense, http.MethodPost, "/api/v1/abbreviations/condense", `{"smiles":"CCO","smarts":"[C"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.ErrCodePatternCompilation), decodeBody[any](t, w).Error.Code)

	w = serve(h.Condense, http.MethodPost, "/api/v1/abbreviations/condense", `{"labels":["OMe"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAbbreviationHandler_List(t *testing.T) {
	w := serve(newAbbreviationHandler(t).List, http.MethodGet, "/api/v1/abbreviations", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[dto.AbbreviationsResponse](t, w)
	assert.Len(t, resp.Data.Abbreviations, domain.DefaultTable().Len())
	assert.Equal(t, "CO2Et", resp.Data.Abbreviations[0].Label)
}

//Personal.AI order the ending
