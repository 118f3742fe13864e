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

// NgoHandler handles the public NGO directory and NGO profile endpoints
type NgoHandler struct {
	ngoService    *services.NgoService
	reviewService *services.ReviewService
	logger        *logrus.Logger
}

// NewNgoHandler creates a new NGO handler
func NewNgoHandler(ngoService *services.NgoService, reviewService *services.ReviewService, logger *logrus.Logger) *NgoHandler {
	return &NgoHandler{
		ngoService:    ngoService,
		reviewService: reviewService,
		logger:        logger,
	}
}

// List handles GET /api/ngos
func (h *NgoHandler) List(c *gin.Context) {
	items, err := h.ngoService.List(c.Query("wasteType"), c.Query("q"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// Reviews handles GET /api/ngos/:id/reviews
func (h *NgoHandler) Reviews(c *gin.Context) {
	ngoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid NGO ID"})
		return
	}

	if _, err := h.ngoService.Get(ngoID); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	reviews, err := h.reviewService.ListForNgo(ngoID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// Profile handles GET /api/ngo/profile
func (h *NgoHandler) Profile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	ngo, err := h.ngoService.Profile(userCtx.UserID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ngo)
}

// UpdateProfile handles PUT /api/ngo/profile
func (h *NgoHandler) UpdateProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.UpdateNgoProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ngo, err := h.ngoService.UpdateProfile(userCtx.UserID, &req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ngo)
}
