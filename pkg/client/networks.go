package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

// NetworksClient covers scaffold network building, retrieval and search.
type NetworksClient struct {
	client *Client
}

// Build creates a scaffold network from the request's molecules.
func (n *NetworksClient) Build(ctx context.Context, req *scaffold.BuildNetworkRequest) (*scaffold.BuildNetworkResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out scaffold.BuildNetworkResponse
	if err := n.client.post(ctx, "/api/v1/networks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a stored network.
func (n *NetworksClient) Get(ctx context.Context, id string) (*scaffold.NetworkRecord, error) {
	req := scaffold.GetNetworkRequest{ID: id}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out scaffold.NetworkRecord
	if _, err := n.client.get(ctx, "/api/v1/networks/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List pages through stored networks, newest first.  A nil req uses the
// server's defaults.
func (n *NetworksClient) List(ctx context.Context, req *scaffold.ListNetworksRequest) (*scaffold.ListNetworksResponse, error) {
	q := url.Values{}
	if req != nil {
		if req.Limit > 0 {
			q.Set("limit", strconv.Itoa(req.Limit))
		}
		if req.Offset > 0 {
			q.Set("offset", strconv.Itoa(req.Offset))
		}
	}
	path := "/api/v1/networks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out scaffold.ListNetworksResponse
	page, err := n.client.get(ctx, path, &out)
	if err != nil {
		return nil, err
	}
	out.Page = page
	return &out, nil
}

// Fragments lists the raw fragments of one molecule.
func (n *NetworksClient) Fragments(ctx context.Context, req *scaffold.FragmentsRequest) (*scaffold.FragmentsResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out scaffold.FragmentsResponse
	if err := n.client.post(ctx, "/api/v1/fragments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search finds stored networks containing a scaffold.
func (n *NetworksClient) Search(ctx context.Context, req *scaffold.SearchRequest) (*scaffold.SearchResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{"smiles": {req.SMILES}}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Children {
		q.Set("children", "true")
	}
	var out scaffold.SearchResponse
	if _, err := n.client.get(ctx, "/api/v1/scaffolds/search?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
