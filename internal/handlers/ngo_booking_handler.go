package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/recyconnect/recyconnect-backend/internal/middleware"
	"github.com/recyconnect/recyconnect-backend/internal/models"
	"github.com/recyconnect/recyconnect-backend/internal/services"
)

// NgoBookingHandler handles the NGO side of the booking lifecycle
type NgoBookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewNgoBookingHandler creates a new NGO booking handler
func NewNgoBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *NgoBookingHandler {
	return &NgoBookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// Requests handles GET /api/ngo/bookings/requests
func (h *NgoBookingHandler) Requests(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	bookings, err := h.bookingService.ListRequestsForNgo(userCtx.UserID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// Accept handles POST /api/ngo/bookings/:id/accept
func (h *NgoBookingHandler) Accept(c *gin.Context) {
	userCtx, bookingID, ok := h.requestIdentity(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.Accept(userCtx.UserID, bookingID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ResendOTP handles POST /api/ngo/bookings/:id/resend-otp
func (h *NgoBookingHandler) ResendOTP(c *gin.Context) {
	userCtx, bookingID, ok := h.requestIdentity(c)
	if !ok {
		return
	}

	if err := h.bookingService.ResendOTP(userCtx.UserID, bookingID); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.Status(http.StatusOK)
}

// Complete handles POST /api/ngo/bookings/:id/complete
func (h *NgoBookingHandler) Complete(c *gin.Context) {
	userCtx, bookingID, ok := h.requestIdentity(c)
	if !ok {
		return
	}

	var req models.CompleteBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.bookingService.CompleteWithOTP(userCtx.UserID, bookingID, req.OTP)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Reject handles POST /api/ngo/bookings/:id/reject
func (h *NgoBookingHandler) Reject(c *gin.Context) {
	userCtx, bookingID, ok := h.requestIdentity(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.Reject(userCtx.UserID, bookingID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *NgoBookingHandler) requestIdentity(c *gin.Context) (*middleware.UserContext, uuid.UUID, bool) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, uuid.Nil, false
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return nil, uuid.Nil, false
	}

	return userCtx, bookingID, true
}
