package service

import (
	"context"
	"testing"

	"github.com/layer-3/turfbook/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turfInput(name, location string) core.TurfInput {
	return core.TurfInput{
		Name:              name,
		Location:          location,
		DayPricePerHour:   decimal.NewFromInt(1000),
		NightPricePerHour: decimal.NewFromInt(1400),
		DayStartTime:      "06:00",
		NightStartTime:    "18:00",
	}
}

func TestTurfService(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.as(t, "owner", true)

	arena, err := h.turfs.Create(ctx, turfInput("Arena", "Lalitpur"))
	require.NoError(t, err)
	dome, err := h.turfs.Create(ctx, turfInput("Dome", "Bhaktapur"))
	require.NoError(t, err)

	inactive := false
	in := turfInput("Dome", "Bhaktapur")
	in.IsActive = &inactive
	dome, err = h.turfs.Update(ctx, dome.ID, in)
	require.NoError(t, err)
	assert.False(t, dome.IsActive)

	public, err := h.turfs.List(ctx, core.TurfFilter{})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, arena.ID, public[0].ID)

	mine, err := h.turfs.List(ctx, core.TurfFilter{Owner: true})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	found, err := h.turfs.List(ctx, core.TurfFilter{Owner: true, Search: "bhak"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Dome", found[0].Name)

	got, err := h.turfs.Get(ctx, arena.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1400).Equal(got.NightPricePerHour))

	require.NoError(t, h.turfs.Delete(ctx, arena.ID))
	_, err = h.turfs.Get(ctx, arena.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTurfServiceValidatesLocally(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.as(t, "owner", true)

	_, err := h.turfs.Create(ctx, turfInput("", "Somewhere"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	bad := turfInput("Arena", "Lalitpur")
	bad.NightStartTime = "6pm"
	_, err = h.turfs.Create(ctx, bad)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	bad = turfInput("Arena", "Lalitpur")
	bad.DayPricePerHour = decimal.NewFromInt(-1)
	_, err = h.turfs.Update(ctx, 1, bad)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestTurfServiceRequiresOwner(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.as(t, "player", false)

	_, err := h.turfs.Create(ctx, turfInput("Arena", "Lalitpur"))
	assert.ErrorIs(t, err, core.ErrForbidden)
}
