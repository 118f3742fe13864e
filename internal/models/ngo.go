package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// NgoStatus represents the approval status of an NGO profile
type NgoStatus string

const (
	NgoStatusPendingApproval NgoStatus = "PENDING_APPROVAL"
	NgoStatusActive          NgoStatus = "ACTIVE"
)

// Ngo represents a waste-pickup service provider profile, linked 1:1 to a
// platform user account. Commission EcoPoints are credited to the linked
// user account.
type Ngo struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	UserID             uuid.UUID      `json:"userId" db:"user_id"`
	Address            string         `json:"address" db:"address"`
	ContactNumber      string         `json:"contactNumber" db:"contact_number"`
	AcceptedWasteTypes pq.StringArray `json:"acceptedWasteTypes" db:"accepted_waste_types"`
	Status             NgoStatus      `json:"status" db:"status"`
	CreatedAt          time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time      `json:"updatedAt" db:"updated_at"`
}

// RegisterNgoRequest represents an NGO application: it creates the user
// account and the provider profile together. The profile starts in
// PENDING_APPROVAL.
type RegisterNgoRequest struct {
	Name               string   `json:"name" binding:"required"`
	Email              string   `json:"email" binding:"required,email"`
	Password           string   `json:"password" binding:"required,min=8"`
	Address            string   `json:"address" binding:"required"`
	ContactNumber      string   `json:"contactNumber" binding:"required"`
	AcceptedWasteTypes []string `json:"acceptedWasteTypes" binding:"required,min=1"`
}

// UpdateNgoProfileRequest represents an NGO profile update
type UpdateNgoProfileRequest struct {
	Address            string   `json:"address" binding:"required"`
	ContactNumber      string   `json:"contactNumber" binding:"required"`
	AcceptedWasteTypes []string `json:"acceptedWasteTypes" binding:"required,min=1"`
}

// NgoListItem is the public directory projection of an active NGO,
// including review and pickup rollups.
type NgoListItem struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	Name               string         `json:"name" db:"name"`
	Address            string         `json:"address" db:"address"`
	ContactNumber      string         `json:"contactNumber" db:"contact_number"`
	AcceptedWasteTypes pq.StringArray `json:"acceptedWasteTypes" db:"accepted_waste_types"`
	AverageRating      *float64       `json:"averageRating,omitempty" db:"average_rating"`
	CompletedPickups   int            `json:"completedPickups" db:"completed_pickups"`
}
