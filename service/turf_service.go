package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/layer-3/turfbook/core"
)

// TurfService manages turfs
type TurfService struct {
	api API
}

func NewTurfService(api API) *TurfService {
	return &TurfService{api: api}
}

// List returns turfs. With Owner set only the caller's turfs are returned, inactive
// ones included; otherwise inactive turfs are hidden. Search matches name or location.
func (s *TurfService) List(ctx context.Context, f core.TurfFilter) ([]core.Turf, error) {
	path := "/turfs/"
	if f.Owner {
		path += "?owner=true"
	}

	var turfs []core.Turf
	if err := s.api.Get(ctx, path, &turfs); err != nil {
		return nil, fmt.Errorf("failed to list turfs: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := turfs[:0]
	for _, t := range turfs {
		if !f.Owner && !t.IsActive {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Location), search) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *TurfService) Get(ctx context.Context, id int64) (core.Turf, error) {
	var t core.Turf
	if err := s.api.Get(ctx, turfPath(id), &t); err != nil {
		return core.Turf{}, fmt.Errorf("failed to get turf %d: %w", id, err)
	}
	return t, nil
}

func (s *TurfService) Create(ctx context.Context, in core.TurfInput) (core.Turf, error) {
	if err := in.Validate(); err != nil {
		return core.Turf{}, err
	}

	var t core.Turf
	if err := s.api.Post(ctx, "/turfs/", in, &t); err != nil {
		return core.Turf{}, fmt.Errorf("failed to create turf: %w", err)
	}
	return t, nil
}

func (s *TurfService) Update(ctx context.Context, id int64, in core.TurfInput) (core.Turf, error) {
	if err := in.Validate(); err != nil {
		return core.Turf{}, err
	}

	var t core.Turf
	if err := s.api.Patch(ctx, turfPath(id), in, &t); err != nil {
		return core.Turf{}, fmt.Errorf("failed to update turf %d: %w", id, err)
	}
	return t, nil
}

func (s *TurfService) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, turfPath(id), nil); err != nil {
		return fmt.Errorf("failed to delete turf %d: %w", id, err)
	}
	return nil
}

func turfPath(id int64) string {
	return fmt.Sprintf("/turfs/%d/", id)
}
