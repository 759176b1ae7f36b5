// Package rpc exposes the flavor service over gRPC. The service is
// registered through a hand-written [grpc.ServiceDesc] so that no protobuf
// code generation is required; its messages are plain Go structs carried by
// a JSON codec that stands in for the default proto codec.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "fotd.FlavorService"

// Handler is the interface that a flavor service implementation must satisfy.
type Handler interface {
	ListFlavors(ctx context.Context, req *ListFlavorsRequest) (*ListFlavorsResponse, error)
	GetFlavor(ctx context.Context, req *GetFlavorRequest) (*GetFlavorResponse, error)
	GetLocation(ctx context.Context, req *GetLocationRequest) (*GetLocationResponse, error)
	SearchLocations(ctx context.Context, req *SearchLocationsRequest) (*SearchLocationsResponse, error)
	GetCalendar(ctx context.Context, req *GetCalendarRequest) (*GetCalendarResponse, error)
	GetStatus(ctx context.Context, req *GetStatusRequest) (*GetStatusResponse, error)
}

// ServiceDesc is the grpc.ServiceDesc for the fotd.FlavorService service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListFlavors", Handler.ListFlavors),
		unary("GetFlavor", Handler.GetFlavor),
		unary("GetLocation", Handler.GetLocation),
		unary("SearchLocations", Handler.SearchLocations),
		unary("GetCalendar", Handler.GetCalendar),
		unary("GetStatus", Handler.GetStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fotd/flavor.proto",
}

// FullMethod returns the "/service/method" path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds the method descriptor for one unary call.
func unary[Req, Resp any](name string, call func(Handler, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Handler), ctx, req)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, r any) (any, error) {
				return call(srv.(Handler), ctx, r.(*Req))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

// Register registers a flavor service implementation on the given gRPC
// server.
func Register(s grpc.ServiceRegistrar, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}
