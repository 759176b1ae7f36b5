package rpc

import (
	"context"

	"github.com/IronManRust/culvers-ice-cream-ical/apperr"
	"github.com/IronManRust/culvers-ice-cream-ical/service"
	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewHandler adapts a Service to the gRPC Handler interface.
func NewHandler(svc *service.Service) Handler {
	return &handler{svc: svc}
}

type handler struct {
	svc *service.Service
}

func (h *handler) ListFlavors(ctx context.Context, _ *ListFlavorsRequest) (*ListFlavorsResponse, error) {
	asset, err := h.svc.FlavorCatalog(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListFlavorsResponse{Flavors: asset.Data, Expires: asset.Expires}, nil
}

func (h *handler) GetFlavor(ctx context.Context, req *GetFlavorRequest) (*GetFlavorResponse, error) {
	if req.Key == "" {
		return nil, toStatus(apperr.Validation("flavor key is required"))
	}
	asset, err := h.svc.Flavor(ctx, req.Key)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetFlavorResponse{Flavor: asset.Data, Expires: asset.Expires}, nil
}

func (h *handler) GetLocation(ctx context.Context, req *GetLocationRequest) (*GetLocationResponse, error) {
	asset, err := h.svc.Location(ctx, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetLocationResponse{Location: asset.Data, Expires: asset.Expires}, nil
}

func (h *handler) SearchLocations(ctx context.Context, req *SearchLocationsRequest) (*SearchLocationsResponse, error) {
	found, err := h.svc.SearchLocations(ctx, service.NormalizePostal(req.Postal, req.P))
	if err != nil {
		return nil, toStatus(err)
	}
	return &SearchLocationsResponse{Locations: found}, nil
}

func (h *handler) GetCalendar(ctx context.Context, req *GetCalendarRequest) (*GetCalendarResponse, error) {
	q := service.NormalizeCalendarQuery(service.RawCalendarQuery{
		LocationID: req.LocationID,
		L:          req.L,
		FlavorKey:  req.FlavorKey,
		F:          req.F,
	})
	if err := service.ValidateCalendarQuery(q); err != nil {
		return nil, toStatus(err)
	}
	asset := h.svc.Calendar(ctx, q)
	return &GetCalendarResponse{Items: asset.Data, Expires: asset.Expires}, nil
}

func (h *handler) GetStatus(ctx context.Context, _ *GetStatusRequest) (*GetStatusResponse, error) {
	return &GetStatusResponse{Status: h.svc.Status(ctx)}, nil
}

// toStatus maps an error kind to a gRPC status.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case apperr.IsValidation(err):
		code = codes.InvalidArgument
	case apperr.IsNotFound(err):
		code = codes.NotFound
	case apperr.IsUpstream(err):
		code = codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
