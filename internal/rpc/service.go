// Package rpc exposes the planner over gRPC. Messages are google.protobuf.Struct
// values carrying the same JSON shapes as the HTTP API.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sdwr/cowprofit/internal/drops"
	"github.com/sdwr/cowprofit/internal/enhance"
	"github.com/sdwr/cowprofit/internal/game"
	"github.com/sdwr/cowprofit/internal/service"
)

const (
	ServiceName = "cowprofit.v1.Enhancement"
	Transport   = "grpc"
)

// Engine is the application service behind the gRPC API.
type Engine interface {
	Plan(ctx context.Context, in service.PlanInput) (service.PlanOutput, error)
	Estimate(ctx context.Context, in service.EstimateInput) (service.EstimateOutput, error)
}

// EnhancementServer is the server API for the Enhancement service.
type EnhancementServer interface {
	Plan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Estimate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Enhancement service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EnhancementServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Plan", Handler: planHandler},
		{MethodName: "Estimate", Handler: estimateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cowprofit/v1/enhancement.proto",
}

// RegisterEnhancementServer registers srv on s.
func RegisterEnhancementServer(s grpc.ServiceRegistrar, srv EnhancementServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func planHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unary(srv, ctx, dec, interceptor, "Plan", EnhancementServer.Plan)
}

func estimateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return unary(srv, ctx, dec, interceptor, "Estimate", EnhancementServer.Estimate)
}

func unary(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
	method string,
	call func(EnhancementServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return call(srv.(EnhancementServer), ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/" + method,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return call(srv.(EnhancementServer), ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Handler adapts an Engine to EnhancementServer.
type Handler struct {
	engine Engine
}

var _ EnhancementServer = (*Handler)(nil)

func NewHandler(e Engine) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) Plan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, h.engine.Plan)
}

func (h *Handler) Estimate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return invoke(ctx, in, h.engine.Estimate)
}

func invoke[REQ any, RES any](ctx context.Context, in *structpb.Struct, action func(context.Context, REQ) (RES, error)) (*structpb.Struct, error) {
	var req REQ
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := action(service.WithTransport(ctx, Transport), req)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := toStruct(res)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// fromStruct decodes a Struct into a request through its JSON form.
func fromStruct(in *structpb.Struct, out any) error {
	raw, err := in.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, enhance.ErrDegenerateSystem):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, enhance.ErrInvalidConfig),
		errors.Is(err, drops.ErrInvalidSession),
		errors.Is(err, game.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// Client calls the Enhancement service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Plan(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Plan", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Estimate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Estimate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
