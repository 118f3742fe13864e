package models

import (
	"time"

	"github.com/google/uuid"
)

// Review represents a one-time rating attached to a completed booking
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID uuid.UUID `json:"bookingId" db:"booking_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	NgoID     uuid.UUID `json:"ngoId" db:"ngo_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ReviewDetail is a review joined with the reviewer's display name
type ReviewDetail struct {
	Review
	UserName string `db:"user_name"`
}

// ReviewResponse is the review projection returned by the API
type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"bookingId"`
	NgoID     uuid.UUID `json:"ngoId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse maps a joined review row to the API projection
func (d *ReviewDetail) ToResponse() *ReviewResponse {
	return &ReviewResponse{
		ID:        d.ID,
		BookingID: d.BookingID,
		NgoID:     d.NgoID,
		UserName:  d.UserName,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt,
	}
}

// SubmitReviewRequest represents the request to review a completed booking
type SubmitReviewRequest struct {
	BookingID uuid.UUID `json:"bookingId" binding:"required"`
	Rating    int       `json:"rating" binding:"required,min=1,max=5"`
	Comment   string    `json:"comment"`
}
