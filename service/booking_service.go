package service

import (
	"context"
	"fmt"

	"github.com/layer-3/turfbook/core"
)

// BookingService manages the caller's bookings
type BookingService struct {
	api API
}

func NewBookingService(api API) *BookingService {
	return &BookingService{api: api}
}

func (s *BookingService) List(ctx context.Context) ([]core.Booking, error) {
	var bookings []core.Booking
	if err := s.api.Get(ctx, "/bookings/", &bookings); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingService) Create(ctx context.Context, req core.BookingRequest) (core.Booking, error) {
	if err := req.Validate(); err != nil {
		return core.Booking{}, err
	}

	var b core.Booking
	if err := s.api.Post(ctx, "/bookings/", req, &b); err != nil {
		return core.Booking{}, fmt.Errorf("failed to book turf %d: %w", req.Turf, err)
	}
	return b, nil
}

func (s *BookingService) Cancel(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/bookings/%d/", id), nil); err != nil {
		return fmt.Errorf("failed to cancel booking %d: %w", id, err)
	}
	return nil
}
