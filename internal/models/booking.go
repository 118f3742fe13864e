package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a pickup booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking represents a waste-pickup request from a user to an NGO.
// The OTP and its expiry are set together on acceptance and cleared
// together on any terminal transition; points_awarded is nonzero only
// once the booking is COMPLETED.
type Booking struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	UserID        uuid.UUID     `json:"userId" db:"user_id"`
	NgoID         uuid.UUID     `json:"ngoId" db:"ngo_id"`
	WasteType     string        `json:"wasteType" db:"waste_type"`
	Notes         NullString    `json:"notes" db:"notes"`
	Status        BookingStatus `json:"status" db:"status"`
	BookingDate   time.Time     `json:"bookingDate" db:"booking_date"`
	PointsAwarded int           `json:"pointsAwarded" db:"points_awarded"`
	OTP           NullString    `json:"-" db:"otp"`
	OTPExpiry     NullTime      `json:"-" db:"otp_expiry"`
}

// IsTerminal reports whether no further transition is permitted
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

// BookingDetail is a booking joined with the display names needed for the
// API projection.
type BookingDetail struct {
	Booking
	UserName string `db:"user_name"`
	NgoName  string `db:"ngo_name"`
	Reviewed bool   `db:"reviewed"`
}

// BookingResponse is the booking projection returned by the API
type BookingResponse struct {
	ID            uuid.UUID `json:"id"`
	WasteType     string    `json:"wasteType"`
	Status        string    `json:"status"`
	BookingDate   time.Time `json:"bookingDate"`
	UserName      string    `json:"userName"`
	NgoName       string    `json:"ngoName"`
	NgoID         uuid.UUID `json:"ngoId"`
	UserID        uuid.UUID `json:"userId"`
	Notes         string    `json:"notes"`
	PointsAwarded int       `json:"pointsAwarded"`
	Reviewed      bool      `json:"reviewed"`
}

// ToResponse maps a joined booking row to the API projection
func (d *BookingDetail) ToResponse() *BookingResponse {
	return &BookingResponse{
		ID:            d.ID,
		WasteType:     d.WasteType,
		Status:        string(d.Status),
		BookingDate:   d.BookingDate,
		UserName:      d.UserName,
		NgoName:       d.NgoName,
		NgoID:         d.NgoID,
		UserID:        d.UserID,
		Notes:         d.Notes.String,
		PointsAwarded: d.PointsAwarded,
		Reviewed:      d.Reviewed,
	}
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	NgoID     uuid.UUID `json:"ngoId" binding:"required"`
	WasteType string    `json:"wasteType" binding:"required"`
	Notes     string    `json:"notes"`
}

// CompleteBookingRequest carries the OTP supplied at handoff
type CompleteBookingRequest struct {
	OTP string `json:"otp" binding:"required,len=6,numeric"`
}
