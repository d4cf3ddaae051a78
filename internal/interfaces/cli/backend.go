package cli

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/turtacn/ScaffoldNet/internal/bootstrap"
	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/convert"
	"github.com/turtacn/ScaffoldNet/pkg/client"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"

	appabbr "github.com/turtacn/ScaffoldNet/internal/application/abbreviation"
	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
)

const sourceCLI = "cli"

// Backend is what the one-shot commands run against.
type Backend interface {
	BuildNetwork(ctx context.Context, req *dto.BuildNetworkRequest) (*dto.BuildNetworkResponse, error)
	GetNetwork(ctx context.Context, id string) (*dto.NetworkRecord, error)
	ListNetworks(ctx context.Context, req *dto.ListNetworksRequest) (*dto.ListNetworksResponse, error)
	Fragments(ctx context.Context, req *dto.FragmentsRequest) (*dto.FragmentsResponse, error)
	Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)
	Condense(ctx context.Context, req *dto.CondenseRequest) (*dto.CondenseResponse, error)
	Abbreviations(ctx context.Context) (*dto.AbbreviationsResponse, error)
	Close() error
}

// ─────────────────────────────────────────────────────────────────────────────
// In-process
// ─────────────────────────────────────────────────────────────────────────────

type localBackend struct {
	app           *bootstrap.App
	networks      appscaffold.Service
	abbreviations appabbr.Service
}

func newLocalBackend(ctx context.Context, cfg *config.Config, logger logging.Logger, offline bool) (*localBackend, error) {
	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{Offline: offline})
	if err != nil {
		return nil, err
	}
	return &localBackend{app: app, networks: app.Networks, abbreviations: app.Abbreviations}, nil
}

func (b *localBackend) BuildNetwork(ctx context.Context, req *dto.BuildNetworkRequest) (*dto.BuildNetworkResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := b.networks.BuildNetwork(ctx, &appscaffold.BuildNetworkInput{
		SMILES: req.SMILES,
		Params: convert.ParamsFromDTO(req.Params),
		Source: sourceCLI,
		Reuse:  req.Reuse,
	})
	if err != nil {
		return nil, err
	}
	out := convert.BuildResultToDTO(res)
	return &out, nil
}

func (b *localBackend) GetNetwork(ctx context.Context, id string) (*dto.NetworkRecord, error) {
	rec, err := b.networks.GetNetwork(ctx, id)
	if err != nil {
		return nil, err
	}
	out := convert.RecordToDTO(rec)
	return &out, nil
}

func (b *localBackend) ListNetworks(ctx context.Context, req *dto.ListNetworksRequest) (*dto.ListNetworksResponse, error) {
	res, err := b.networks.ListNetworks(ctx, &appscaffold.ListInput{Limit: req.Limit, Offset: req.Offset})
	if err != nil {
		return nil, err
	}
	return &dto.ListNetworksResponse{
		Networks: convert.RecordsToDTO(res.Networks),
		Page:     &common.Page{Limit: res.Limit, Offset: res.Offset, Total: res.Total},
	}, nil
}

func (b *localBackend) Fragments(ctx context.Context, req *dto.FragmentsRequest) (*dto.FragmentsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := b.networks.Fragments(ctx, &appscaffold.FragmentsInput{SMILES: req.SMILES, Params: convert.ParamsFromDTO(req.Params)})
	if err != nil {
		return nil, err
	}
	out := convert.FragmentsToDTO(res)
	return &out, nil
}

func (b *localBackend) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := b.networks.SearchScaffold(ctx, &appscaffold.SearchInput{
		SMILES: req.SMILES, Limit: req.Limit, WithChildren: req.Children,
	})
	if err != nil {
		return nil, err
	}
	out := convert.SearchToDTO(res)
	return &out, nil
}

func (b *localBackend) Condense(ctx context.Context, req *dto.CondenseRequest) (*dto.CondenseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := b.abbreviations.Condense(ctx, convert.CondenseInputFromDTO(req))
	if err != nil {
		return nil, err
	}
	out := convert.CondenseToDTO(res)
	return &out, nil
}

func (b *localBackend) Abbreviations(context.Context) (*dto.AbbreviationsResponse, error) {
	return &dto.AbbreviationsResponse{Abbreviations: convert.AbbreviationsToDTO(b.abbreviations.Definitions())}, nil
}

func (b *localBackend) Close() error {
	return b.app.Close(context.Background())
}

// ─────────────────────────────────────────────────────────────────────────────
// Remote
// ─────────────────────────────────────────────────────────────────────────────

type remoteBackend struct {
	c *client.Client
}

func newRemoteBackend(addr, apiKey string, timeout time.Duration) (*remoteBackend, error) {
	opts := []client.Option{client.WithUserAgent("scaffoldnet-cli/" + Version)}
	if timeout > 0 {
		opts = append(opts, client.WithTimeout(timeout))
	}
	if apiKey != "" {
		opts = append(opts, client.WithAPIKey(apiKey))
	}
	c, err := client.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &remoteBackend{c: c}, nil
}

// remoteErr turns API errors back into service errors so both backends
// report failures the same way.
func remoteErr(err error) error {
	var apiErr *client.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.AppError()
	}
	return err
}

func (b *remoteBackend) BuildNetwork(ctx context.Context, req *dto.BuildNetworkRequest) (*dto.BuildNetworkResponse, error) {
	res, err := b.c.Networks().Build(ctx, req)
	return res, remoteErr(err)
}

func (b *remoteBackend) GetNetwork(ctx context.Context, id string) (*dto.NetworkRecord, error) {
	res, err := b.c.Networks().Get(ctx, id)
	return res, remoteErr(err)
}

func (b *remoteBackend) ListNetworks(ctx context.Context, req *dto.ListNetworksRequest) (*dto.ListNetworksResponse, error) {
	res, err := b.c.Networks().List(ctx, req)
	return res, remoteErr(err)
}

func (b *remoteBackend) Fragments(ctx context.Context, req *dto.FragmentsRequest) (*dto.FragmentsResponse, error) {
	res, err := b.c.Networks().Fragments(ctx, req)
	return res, remoteErr(err)
}

func (b *remoteBackend) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	res, err := b.c.Networks().Search(ctx, req)
	return res, remoteErr(err)
}

func (b *remoteBackend) Condense(ctx context.Context, req *dto.CondenseRequest) (*dto.CondenseResponse, error) {
	res, err := b.c.Abbreviations().Condense(ctx, req)
	return res, remoteErr(err)
}

func (b *remoteBackend) Abbreviations(ctx context.Context) (*dto.AbbreviationsResponse, error) {
	res, err := b.c.Abbreviations().List(ctx)
	return res, remoteErr(err)
}

func (b *remoteBackend) Close() error { return nil }

var (
	_ Backend = (*localBackend)(nil)
	_ Backend = (*remoteBackend)(nil)
)

//Personal.AI order the ending
