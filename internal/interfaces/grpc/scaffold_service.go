package grpc

import (
	"context"

	"google.golang.org/grpc"

	appabbr "github.com/turtacn/ScaffoldNet/internal/application/abbreviation"
	appscaffold "github.com/turtacn/ScaffoldNet/internal/application/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/interfaces/convert"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
	dto "github.com/turtacn/ScaffoldNet/pkg/types/scaffold"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "scaffoldnet.v1.ScaffoldService"

// Full method names.
const (
	MethodBuildNetwork      = "/" + ServiceName + "/BuildNetwork"
	MethodGetNetwork        = "/" + ServiceName + "/GetNetwork"
	MethodListNetworks      = "/" + ServiceName + "/ListNetworks"
	MethodFragments         = "/" + ServiceName + "/Fragments"
	MethodSearchScaffold    = "/" + ServiceName + "/SearchScaffold"
	MethodCondense          = "/" + ServiceName + "/Condense"
	MethodListAbbreviations = "/" + ServiceName + "/ListAbbreviations"
)

// ScaffoldServiceServer is the server API of ScaffoldService.
type ScaffoldServiceServer interface {
	BuildNetwork(context.Context, *dto.BuildNetworkRequest) (*dto.BuildNetworkResponse, error)
	GetNetwork(context.Context, *dto.GetNetworkRequest) (*dto.NetworkRecord, error)
	ListNetworks(context.Context, *dto.ListNetworksRequest) (*dto.ListNetworksResponse, error)
	Fragments(context.Context, *dto.FragmentsRequest) (*dto.FragmentsResponse, error)
	SearchScaffold(context.Context, *dto.SearchRequest) (*dto.SearchResponse, error)
	Condense(context.Context, *dto.CondenseRequest) (*dto.CondenseResponse, error)
	ListAbbreviations(context.Context, *dto.ListAbbreviationsRequest) (*dto.AbbreviationsResponse, error)
}

// unaryHandler adapts a typed method to grpc.MethodDesc.
func unaryHandler[Req any, Resp any](fullMethod string, call func(ScaffoldServiceServer, context.Context, *Req) (*Resp, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScaffoldServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ScaffoldServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ScaffoldServiceDesc describes ScaffoldService for grpc.Server.RegisterService.
var ScaffoldServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScaffoldServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BuildNetwork", Handler: unaryHandler(MethodBuildNetwork, ScaffoldServiceServer.BuildNetwork)},
		{MethodName: "GetNetwork", Handler: unaryHandler(MethodGetNetwork, ScaffoldServiceServer.GetNetwork)},
		{MethodName: "ListNetworks", Handler: unaryHandler(MethodListNetworks, ScaffoldServiceServer.ListNetworks)},
		{MethodName: "Fragments", Handler: unaryHandler(MethodFragments, ScaffoldServiceServer.Fragments)},
		{MethodName: "SearchScaffold", Handler: unaryHandler(MethodSearchScaffold, ScaffoldServiceServer.SearchScaffold)},
		{MethodName: "Condense", Handler: unaryHandler(MethodCondense, ScaffoldServiceServer.Condense)},
		{MethodName: "ListAbbreviations", Handler: unaryHandler(MethodListAbbreviations, ScaffoldServiceServer.ListAbbreviations)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scaffoldnet/v1/scaffold.json",
}

// ─────────────────────────────────────────────────────────────────────────────
// Server implementation
// ─────────────────────────────────────────────────────────────────────────────

type scaffoldServer struct {
	networks      appscaffold.Service
	abbreviations appabbr.Service
}

// NewScaffoldServiceServer serves ScaffoldService from the application
// services.  Either may be nil, which makes its methods Unavailable.
func NewScaffoldServiceServer(networks appscaffold.Service, abbreviations appabbr.Service) ScaffoldServiceServer {
	return &scaffoldServer{networks: networks, abbreviations: abbreviations}
}

var errNoNetworks = errors.New(errors.ErrCodeServiceUnavailable, "network service is not configured")
var errNoAbbreviations = errors.New(errors.ErrCodeServiceUnavailable, "abbreviation service is not configured")

func (s *scaffoldServer) BuildNetwork(ctx context.Context, req *dto.BuildNetworkRequest) (*dto.BuildNetworkResponse, error) {
	if s.networks == nil {
		return nil, toStatus(errNoNetworks)
	}
	res, err := s.networks.BuildNetwork(ctx, &appscaffold.BuildNetworkInput{
		SMILES: req.SMILES,
		Params: convert.ParamsFromDTO(req.Params),
		Source: "grpc",
		Reuse:  req.Reuse,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	out := convert.BuildResultToDTO(res)
	return &out, nil
}

func (s *scaffoldServer) GetNetwork(ctx context.Context, req *dto.GetNetworkRequest) (*dto.NetworkRecord, error) {
	if s.networks == nil {
		return nil, toStatus(errNoNetworks)
	}
	rec, err := s.networks.GetNetwork(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	out := convert.RecordToDTO(rec)
	return &out, nil
}

func (s *scaffoldServer) ListNetworks(ctx context.Context, req *dto.ListNetworksRequest) (*dto.ListNetworksResponse, error) {
	if s.networks == nil {
		return nil, toStatus(errNoNetworks)
	}
	res, err := s.networks.ListNetworks(ctx, &appscaffold.ListInput{Limit: req.Limit, Offset: req.Offset})
	if err != nil {
		return nil, toStatus(err)
	}
	return &dto.ListNetworksResponse{
		Networks: convert.RecordsToDTO(res.Networks),
		Page:     &common.Page{Limit: res.Limit, Offset: res.Offset, Total: res.Total},
	}, nil
}

func (s *scaffoldServer) Fragments(ctx context.Context, req *dto.FragmentsRequest) (*dto.FragmentsResponse, error) {
	if s.networks == nil {
		return nil, toStatus(errNoNetworks)
	}
	res, err := s.networks.Fragments(ctx, &appscaffold.FragmentsInput{SMILES: req.SMILES, Params: convert.ParamsFromDTO(req.Params)})
	if err != nil {
		return nil, toStatus(err)
	}
	out := convert.FragmentsToDTO(res)
	return &out, nil
}

func (s *scaffoldServer) SearchScaffold(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	if s.networks == nil {
		return nil, toStatus(errNoNetworks)
	}
	res, err := s.networks.SearchScaffold(ctx, &appscaffold.SearchInput{
		SMILES: req.SMILES, Limit: req.Limit, WithChildren: req.Children,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	out := convert.SearchToDTO(res)
	return &out, nil
}

func (s *scaffoldServer) Condense(ctx context.Context, req *dto.CondenseRequest) (*dto.CondenseResponse, error) {
	if s.abbreviations == nil {
		return nil, toStatus(errNoAbbreviations)
	}
	res, err := s.abbreviations.Condense(ctx, convert.CondenseInputFromDTO(req))
	if err != nil {
		return nil, toStatus(err)
	}
	out := convert.CondenseToDTO(res)
	return &out, nil
}

func (s *scaffoldServer) ListAbbreviations(ctx context.Context, _ *dto.ListAbbreviationsRequest) (*dto.AbbreviationsResponse, error) {
	if s.abbreviations == nil {
		return nil, toStatus(errNoAbbreviations)
	}
	return &dto.AbbreviationsResponse{Abbreviations: convert.AbbreviationsToDTO(s.abbreviations.Definitions())}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

// ScaffoldServiceClient calls ScaffoldService.  Errors are converted back
// into *errors.AppError.
type ScaffoldServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewScaffoldServiceClient(cc grpc.ClientConnInterface) *ScaffoldServiceClient {
	return &ScaffoldServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, FromStatus(err)
	}
	return out, nil
}

func (c *ScaffoldServiceClient) BuildNetwork(ctx context.Context, in *dto.BuildNetworkRequest, opts ...grpc.CallOption) (*dto.BuildNetworkResponse, error) {
	return invoke[dto.BuildNetworkResponse](ctx, c.cc, MethodBuildNetwork, in, opts)
}

func (c *ScaffoldServiceClient) GetNetwork(ctx context.Context, in *dto.GetNetworkRequest, opts ...grpc.CallOption) (*dto.NetworkRecord, error) {
	return invoke[dto.NetworkRecord](ctx, c.cc, MethodGetNetwork, in, opts)
}

func (c *ScaffoldServiceClient) ListNetworks(ctx context.Context, in *dto.ListNetworksRequest, opts ...grpc.CallOption) (*dto.ListNetworksResponse, error) {
	return invoke[dto.ListNetworksResponse](ctx, c.cc, MethodListNetworks, in, opts)
}

func (c *ScaffoldServiceClient) Fragments(ctx context.Context, in *dto.FragmentsRequest, opts ...grpc.CallOption) (*dto.FragmentsResponse, error) {
	return invoke[dto.FragmentsResponse](ctx, c.cc, MethodFragments, in, opts)
}

func (c *ScaffoldServiceClient) SearchScaffold(ctx context.Context, in *dto.SearchRequest, opts ...grpc.CallOption) (*dto.SearchResponse, error) {
	return invoke[dto.SearchResponse](ctx, c.cc, MethodSearchScaffold, in, opts)
}

func (c *ScaffoldServiceClient) Condense(ctx context.Context, in *dto.CondenseRequest, opts ...grpc.CallOption) (*dto.CondenseResponse, error) {
	return invoke[dto.CondenseResponse](ctx, c.cc, MethodCondense, in, opts)
}

func (c *ScaffoldServiceClient) ListAbbreviations(ctx context.Context, opts ...grpc.CallOption) (*dto.AbbreviationsResponse, error) {
	return invoke[dto.AbbreviationsResponse](ctx, c.cc, MethodListAbbreviations, &dto.ListAbbreviationsRequest{}, opts)
}

//Personal.AI order the ending
