package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to
// HTTP status codes; anything else is treated as an internal error.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrNgoNotFound          = errors.New("ngo not found")
	ErrNgoProfileNotFound   = errors.New("ngo profile not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidPhone       = errors.New("invalid contact number")

	ErrNotAuthorized = errors.New("not authorized to perform this action")
	ErrInvalidState  = errors.New("booking is not in a valid state for this action")

	ErrOTPInvalid = errors.New("invalid completion code")
	ErrOTPExpired = errors.New("completion code has expired")

	ErrReviewExists = errors.New("booking has already been reviewed")
)
