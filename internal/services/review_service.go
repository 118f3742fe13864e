package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/recyconnect/recyconnect-backend/internal/database"
	"github.com/recyconnect/recyconnect-backend/internal/models"
)

// ReviewService handles NGO reviews. A booking can be reviewed exactly
// once, only by its owner, and only once it is COMPLETED.
type ReviewService struct {
	reviewRepo    *database.ReviewRepository
	bookingRepo   *database.BookingRepository
	userRepo      *database.UserRepository
	ngoRepo       *database.NgoRepository
	notifications *NotificationService
}

// NewReviewService creates a new review service
func NewReviewService(
	reviewRepo *database.ReviewRepository,
	bookingRepo *database.BookingRepository,
	userRepo *database.UserRepository,
	ngoRepo *database.NgoRepository,
	notifications *NotificationService,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		bookingRepo:   bookingRepo,
		userRepo:      userRepo,
		ngoRepo:       ngoRepo,
		notifications: notifications,
	}
}

// Submit records a review for a completed booking
func (s *ReviewService) Submit(userID uuid.UUID, req *models.SubmitReviewRequest) (*models.ReviewResponse, error) {
	booking, err := s.bookingRepo.GetByID(req.BookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status != models.BookingStatusCompleted {
		return nil, ErrInvalidState
	}
	if booking.UserID != userID {
		return nil, ErrNotAuthorized
	}

	exists, err := s.reviewRepo.ExistsByBookingID(booking.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrReviewExists
	}

	review := &models.Review{
		BookingID: booking.ID,
		UserID:    userID,
		NgoID:     booking.NgoID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if ngo, err := s.ngoRepo.GetByID(booking.NgoID); err == nil {
		s.notifications.Notify(ngo.UserID, fmt.Sprintf("%s rated your %s pickup %d stars.", user.Name, booking.WasteType, req.Rating))
	}

	detail := &models.ReviewDetail{Review: *review, UserName: user.Name}
	return detail.ToResponse(), nil
}

// ListForNgo returns an NGO's reviews, newest first
func (s *ReviewService) ListForNgo(ngoID uuid.UUID) ([]models.ReviewResponse, error) {
	details, err := s.reviewRepo.ListDetailsByNgoID(ngoID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.ReviewResponse, 0, len(details))
	for i := range details {
		responses = append(responses, *details[i].ToResponse())
	}
	return responses, nil
}
