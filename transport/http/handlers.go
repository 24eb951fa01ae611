package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/turfbook/core"
)

// Register handles POST /user/register/
func (s *Server) Register(c *gin.Context) {
	var req core.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	user, err := s.backend.Register(req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles POST /user/login/
func (s *Server) Login(c *gin.Context) {
	var req core.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" || (req.Email == "" && req.Username == "") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	user, err := s.backend.Authenticate(req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
		return
	}

	access, refresh, err := s.sessions.Issue(user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, core.Credentials{Access: access, Refresh: refresh})
}

// Refresh handles POST /user/token/refresh/
func (s *Server) Refresh(c *gin.Context) {
	s.refreshCalls.Add(1)

	var req struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	access, refresh, err := s.sessions.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, core.ErrInvalidToken) || errors.Is(err, core.ErrTokenExpired) || errors.Is(err, ErrTokenRevoked) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired", "code": "token_not_valid"})
			return
		}
		s.fail(c, err)
		return
	}

	resp := gin.H{"access": access}
	if refresh != "" {
		resp["refresh"] = refresh
	}
	c.JSON(http.StatusOK, resp)
}

// Profile handles GET /user/profile/
func (s *Server) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// ListTurfs handles GET /turfs/. ?owner=true narrows the list to the caller's turfs.
func (s *Server) ListTurfs(c *gin.Context) {
	var owner int64
	if c.Query("owner") == "true" {
		owner = currentUser(c).ID
	}
	c.JSON(http.StatusOK, s.backend.Turfs(owner))
}

// GetTurf handles GET /turfs/:id/
func (s *Server) GetTurf(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	turf, err := s.backend.Turf(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, turf)
}

// CreateTurf handles POST /turfs/
func (s *Server) CreateTurf(c *gin.Context) {
	var in core.TurfInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	turf, err := s.backend.CreateTurf(currentUser(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, turf)
}

// UpdateTurf handles PATCH /turfs/:id/
func (s *Server) UpdateTurf(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var patch TurfPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	turf, err := s.backend.UpdateTurf(currentUser(c), id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, turf)
}

// DeleteTurf handles DELETE /turfs/:id/
func (s *Server) DeleteTurf(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.backend.DeleteTurf(currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBookings handles GET /bookings/
func (s *Server) ListBookings(c *gin.Context) {
	c.JSON(http.StatusOK, s.backend.Bookings(currentUser(c).ID))
}

// CreateBooking handles POST /bookings/
func (s *Server) CreateBooking(c *gin.Context) {
	var req core.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
		return
	}

	booking, err := s.backend.CreateBooking(currentUser(c).ID, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// CancelBooking handles DELETE /bookings/:id/
func (s *Server) CancelBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.backend.CancelBooking(currentUser(c).ID, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}

// fail maps domain errors to DRF-style replies
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrPasswordMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, core.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
	case errors.Is(err, core.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	default:
		s.logger.Error("Request failed", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}
