package http

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/turfbook/core"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	user core.User
	hash []byte
}

// Backend is the in-memory state of the backend double
type Backend struct {
	mu       sync.RWMutex
	cost     int
	now      func() time.Time
	accounts map[int64]*account
	turfs    map[int64]*core.Turf
	bookings map[int64]*ownedBooking
	nextID   int64
}

type ownedBooking struct {
	booking core.Booking
	userID  int64
}

func newBackend(cost int, now func() time.Time) *Backend {
	return &Backend{
		cost:     cost,
		now:      now,
		accounts: make(map[int64]*account),
		turfs:    make(map[int64]*core.Turf),
		bookings: make(map[int64]*ownedBooking),
	}
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

// Register creates an account
func (b *Backend) Register(r core.Registration) (core.User, error) {
	if err := r.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), b.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range b.accounts {
		if strings.EqualFold(a.user.Email, r.Email) {
			return core.User{}, fmt.Errorf("%w: a user with that email already exists", core.ErrConflict)
		}
		if a.user.Username == r.Username {
			return core.User{}, fmt.Errorf("%w: a user with that username already exists", core.ErrConflict)
		}
	}

	u := core.User{
		ID:          b.id(),
		Username:    r.Username,
		Email:       r.Email,
		Phone:       r.Phone,
		IsTurfOwner: r.IsTurfOwner,
	}
	b.accounts[u.ID] = &account{user: u, hash: hash}
	return u, nil
}

// Authenticate checks a password for the account matching email or username
func (b *Backend) Authenticate(req core.LoginRequest) (core.User, error) {
	b.mu.RLock()
	var found *account
	for _, a := range b.accounts {
		if (req.Email != "" && strings.EqualFold(a.user.Email, req.Email)) ||
			(req.Username != "" && a.user.Username == req.Username) {
			found = a
			break
		}
	}
	b.mu.RUnlock()

	if found == nil {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(found.hash, []byte(req.Password)); err != nil {
		return core.User{}, core.ErrInvalidCredentials
	}
	return found.user, nil
}

// User returns the profile of id
func (b *Backend) User(id int64) (core.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	a, ok := b.accounts[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return a.user, nil
}

// Turfs lists every turf, or only those of owner when owner is non-zero
func (b *Backend) Turfs(owner int64) []core.Turf {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Turf, 0, len(b.turfs))
	for _, t := range b.turfs {
		if owner != 0 && t.Owner != owner {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Turf returns one turf
func (b *Backend) Turf(id int64) (core.Turf, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.turfs[id]
	if !ok {
		return core.Turf{}, core.ErrNotFound
	}
	return *t, nil
}

// CreateTurf adds a turf owned by user
func (b *Backend) CreateTurf(user core.User, in core.TurfInput) (core.Turf, error) {
	if !user.IsTurfOwner {
		return core.Turf{}, core.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return core.Turf{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t := &core.Turf{
		ID:                b.id(),
		Owner:             user.ID,
		Name:              in.Name,
		Location:          in.Location,
		Description:       in.Description,
		DayPricePerHour:   in.DayPricePerHour,
		NightPricePerHour: in.NightPricePerHour,
		DayStartTime:      in.DayStartTime,
		NightStartTime:    in.NightStartTime,
		IsActive:          true,
		Images:            []core.TurfImage{},
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	b.turfs[t.ID] = t
	return *t, nil
}

// TurfPatch holds the fields of a partial turf update
type TurfPatch struct {
	Name              *string          `json:"name"`
	Location          *string          `json:"location"`
	Description       *string          `json:"description"`
	DayPricePerHour   *decimal.Decimal `json:"day_price_per_hour"`
	NightPricePerHour *decimal.Decimal `json:"night_price_per_hour"`
	DayStartTime      *string          `json:"day_start_time"`
	NightStartTime    *string          `json:"night_start_time"`
	IsActive          *bool            `json:"is_active"`
}

// UpdateTurf applies patch to a turf owned by user
func (b *Backend) UpdateTurf(user core.User, id int64, patch TurfPatch) (core.Turf, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.ownedTurf(user, id)
	if err != nil {
		return core.Turf{}, err
	}

	next := *t
	set(&next.Name, patch.Name)
	set(&next.Location, patch.Location)
	set(&next.Description, patch.Description)
	set(&next.DayPricePerHour, patch.DayPricePerHour)
	set(&next.NightPricePerHour, patch.NightPricePerHour)
	set(&next.DayStartTime, patch.DayStartTime)
	set(&next.NightStartTime, patch.NightStartTime)
	set(&next.IsActive, patch.IsActive)

	in := core.TurfInput{
		Name:              next.Name,
		Location:          next.Location,
		DayPricePerHour:   next.DayPricePerHour,
		NightPricePerHour: next.NightPricePerHour,
		DayStartTime:      next.DayStartTime,
		NightStartTime:    next.NightStartTime,
	}
	if err := in.Validate(); err != nil {
		return core.Turf{}, err
	}

	*t = next
	return next, nil
}

// DeleteTurf removes a turf owned by user together with its bookings
func (b *Backend) DeleteTurf(user core.User, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.ownedTurf(user, id); err != nil {
		return err
	}
	delete(b.turfs, id)
	for bid, ob := range b.bookings {
		if ob.booking.Turf.ID == id {
			delete(b.bookings, bid)
		}
	}
	return nil
}

func (b *Backend) ownedTurf(user core.User, id int64) (*core.Turf, error) {
	if !user.IsTurfOwner {
		return nil, core.ErrForbidden
	}
	t, ok := b.turfs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if t.Owner != user.ID {
		return nil, core.ErrForbidden
	}
	return t, nil
}

// Bookings lists the bookings made by userID, newest first
func (b *Backend) Bookings(userID int64) []core.Booking {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Booking, 0)
	for _, ob := range b.bookings {
		if ob.userID == userID {
			out = append(out, ob.booking)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// ErrSlotTaken is returned when a booking overlaps an existing one
var ErrSlotTaken = fmt.Errorf("%w: this slot is already booked", core.ErrConflict)

// CreateBooking reserves a slot on an active turf and prices it
func (b *Backend) CreateBooking(userID int64, req core.BookingRequest) (core.Booking, error) {
	if err := req.Validate(); err != nil {
		return core.Booking{}, err
	}
	start, _ := core.ParseClock(req.StartTime)
	end, _ := core.ParseClock(req.EndTime)

	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.turfs[req.Turf]
	if !ok || !t.IsActive {
		return core.Booking{}, fmt.Errorf("%w: turf %d is not available", core.ErrInvalidInput, req.Turf)
	}

	for _, ob := range b.bookings {
		other := ob.booking
		if other.Turf.ID != t.ID || other.Date != req.Date {
			continue
		}
		otherStart, _ := core.ParseClock(other.StartTime)
		otherEnd, _ := core.ParseClock(other.EndTime)
		if start.Before(otherEnd) && otherStart.Before(end) {
			return core.Booking{}, ErrSlotTaken
		}
	}

	bk := core.Booking{
		ID:         b.id(),
		Turf:       core.BookingTurf{ID: t.ID, Name: t.Name, Location: t.Location},
		Date:       req.Date,
		StartTime:  start.Format(core.TimeLayout),
		EndTime:    end.Format(core.TimeLayout),
		TotalPrice: Price(*t, req),
		CreatedAt:  b.now().UTC(),
	}
	b.bookings[bk.ID] = &ownedBooking{booking: bk, userID: userID}
	return bk, nil
}

// CancelBooking deletes a booking made by userID
func (b *Backend) CancelBooking(userID, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ob, ok := b.bookings[id]
	if !ok || ob.userID != userID {
		return core.ErrNotFound
	}
	delete(b.bookings, id)
	return nil
}

// Price is the booked hours times the hourly rate in effect at the start time.
// The night rate applies when the booking starts at or after the night start time.
func Price(t core.Turf, req core.BookingRequest) decimal.Decimal {
	rate := t.DayPricePerHour
	if t.NightStartTime != "" {
		night, err := core.ParseClock(t.NightStartTime)
		start, err2 := core.ParseClock(req.StartTime)
		if err == nil && err2 == nil && !start.Before(night) {
			rate = t.NightPricePerHour
		}
	}
	return req.Hours().Mul(rate).Round(2)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
