package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

func TestCondenseCmd_Label(t *testing.T) {
	out, err := runCLI(t, "", "condense", "c1ccccc1OC", "-l", "OMe", "-o", "json")
	require.NoError(t, err)

	var res dto.CondenseResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "*c1ccccc1 |$OMe;;;;;;$|", res.CXSMILES)
	assert.Equal(t, "pattern", res.Mode)
	assert.Equal(t, map[string]int{"OMe": 1}, res.Applied)
}

func TestCondenseCmd_Text(t *testing.T) {
	out, err := runCLI(t, "", "condense", "--smiles", "c1ccccc1OC", "-l", "OMe")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "*c1ccccc1 |$OMe;;;;;;$|", lines[0])
	assert.Contains(t, out, "OMe")
	assert.Contains(t, out, "APPLIED")
}

func TestCondenseCmd_CustomSMARTS(t *testing.T) {
	out, err := runCLI(t, "", "condense", "c1ccccc1OCCOCCOc1ccncc1", "--smarts", "OCC", "--as", "CONN", "-o", "json")
	require.NoError(t, err)
	var res dto.CondenseResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "smarts", res.Mode)
	assert.Equal(t, map[string]int{"CONN": 2}, res.Applied)
}

func TestCondenseCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"argument and flag", []string{"condense", "CC", "--smiles", "CC"}, errors.CodeInvalidParam},
		{"smarts without label", []string{"condense", "CC", "--smarts", "CC"}, errors.CodeInvalidParam},
		{"coverage out of range", []string{"condense", "CC", "--max-coverage", "2"}, errors.CodeInvalidParam},
		{"missing molecule", []string{"condense"}, errors.CodeInvalidParam},
		{"bad smiles", []string{"condense", "C1CC"}, errors.ErrCodeMoleculeInvalidSMILES},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, "", tt.args...)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestAbbreviationsCmd(t *testing.T) {
	out, err := runCLI(t, "", "abbr", "-o", "table")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "LABEL"))
	assert.Contains(t, out, "OMe")

	out, err = runCLI(t, "", "abbreviations", "-o", "json")
	require.NoError(t, err)
	var res dto.AbbreviationsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotEmpty(t, res.Abbreviations)
	for _, a := range res.Abbreviations {
		assert.NotEmpty(t, a.Label)
		assert.Positive(t, a.NonDummyAtoms)
	}
}

func TestCondenseCmd_Remote(t *testing.T) {
	url := newRemoteAPI(t)
	out, err := runCLI(t, "", "--server", url, "condense", "c1ccccc1OC", "-l", "OMe")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "*c1ccccc1 |$OMe;;;;;;$|\n"))
}

//Personal.AI order the ending
