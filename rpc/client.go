package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client is a typed client for the flavor service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	resp := new(Resp)
	if err := cc.Invoke(ctx, FullMethod(method), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ListFlavors(ctx context.Context, req *ListFlavorsRequest, opts ...grpc.CallOption) (*ListFlavorsResponse, error) {
	return invoke[ListFlavorsResponse](ctx, c.cc, "ListFlavors", req, opts...)
}

func (c *Client) GetFlavor(ctx context.Context, req *GetFlavorRequest, opts ...grpc.CallOption) (*GetFlavorResponse, error) {
	return invoke[GetFlavorResponse](ctx, c.cc, "GetFlavor", req, opts...)
}

func (c *Client) GetLocation(ctx context.Context, req *GetLocationRequest, opts ...grpc.CallOption) (*GetLocationResponse, error) {
	return invoke[GetLocationResponse](ctx, c.cc, "GetLocation", req, opts...)
}

func (c *Client) SearchLocations(ctx context.Context, req *SearchLocationsRequest, opts ...grpc.CallOption) (*SearchLocationsResponse, error) {
	return invoke[SearchLocationsResponse](ctx, c.cc, "SearchLocations", req, opts...)
}

func (c *Client) GetCalendar(ctx context.Context, req *GetCalendarRequest, opts ...grpc.CallOption) (*GetCalendarResponse, error) {
	return invoke[GetCalendarResponse](ctx, c.cc, "GetCalendar", req, opts...)
}

func (c *Client) GetStatus(ctx context.Context, req *GetStatusRequest, opts ...grpc.CallOption) (*GetStatusResponse, error) {
	return invoke[GetStatusResponse](ctx, c.cc, "GetStatus", req, opts...)
}
