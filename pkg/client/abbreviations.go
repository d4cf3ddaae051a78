package client

import (
	"context"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

// AbbreviationsClient covers the abbreviation condenser.
type AbbreviationsClient struct {
	client *Client
}

// Condense replaces matched functional groups with labelled superatoms.
func (a *AbbreviationsClient) Condense(ctx context.Context, req *scaffold.CondenseRequest) (*scaffold.CondenseResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out scaffold.CondenseResponse
	if err := a.client.post(ctx, "/api/v1/abbreviations/condense", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the server's abbreviation table.
func (a *AbbreviationsClient) List(ctx context.Context) (*scaffold.AbbreviationsResponse, error) {
	var out scaffold.AbbreviationsResponse
	if _, err := a.client.get(ctx, "/api/v1/abbreviations", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
