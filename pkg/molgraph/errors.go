package molgraph

import "fmt"

// ParseError reports a SMILES or SMARTS string that could not be read.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("molgraph: parse %q at %d: %s", e.Input, e.Pos, e.Msg)
}

// SanitizeError reports a molecule that violates valence or aromaticity
// constraints.  Atom is -1 when the problem is not tied to a single atom.
type SanitizeError struct {
	Atom int
	Msg  string
}

func (e *SanitizeError) Error() string {
	if e.Atom < 0 {
		return "molgraph: sanitize: " + e.Msg
	}
	return fmt.Sprintf("molgraph: sanitize atom %d: %s", e.Atom, e.Msg)
}

//Personal.AI order the ending
