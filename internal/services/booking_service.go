package services

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/recyconnect/recyconnect-backend/internal/database"
	"github.com/recyconnect/recyconnect-backend/internal/models"
	"github.com/recyconnect/recyconnect-backend/pkg/mailer"
)

// BookingService drives the pickup booking lifecycle:
// PENDING -> ACCEPTED -> COMPLETED, with REJECTED and CANCELLED as the
// other terminal states. Every state transition runs in a transaction
// holding a row lock on the booking, so concurrent transitions on the
// same booking serialize and the loser sees the new state.
type BookingService struct {
	db            database.DB
	bookingRepo   *database.BookingRepository
	userRepo      *database.UserRepository
	ngoRepo       *database.NgoRepository
	notifications *NotificationService
	mail          mailer.Gateway
	logger        *logrus.Logger
	otpExpiry     time.Duration
}

// NewBookingService creates a new booking service
func NewBookingService(
	db database.DB,
	bookingRepo *database.BookingRepository,
	userRepo *database.UserRepository,
	ngoRepo *database.NgoRepository,
	notifications *NotificationService,
	mail mailer.Gateway,
	logger *logrus.Logger,
	otpExpiry time.Duration,
) *BookingService {
	return &BookingService{
		db:            db,
		bookingRepo:   bookingRepo,
		userRepo:      userRepo,
		ngoRepo:       ngoRepo,
		notifications: notifications,
		mail:          mail,
		logger:        logger,
		otpExpiry:     otpExpiry,
	}
}

// Create places a new PENDING booking with the given NGO. Accounts with
// the NGO role cannot place bookings.
func (s *BookingService) Create(userID uuid.UUID, role models.Role, req *models.CreateBookingRequest) (*models.BookingResponse, error) {
	if role == models.RoleNGO {
		return nil, ErrNotAuthorized
	}

	ngo, err := s.ngoRepo.GetByID(req.NgoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNgoNotFound
		}
		return nil, err
	}

	booking := &models.Booking{
		UserID:    userID,
		NgoID:     ngo.ID,
		WasteType: req.WasteType,
		Status:    models.BookingStatusPending,
	}
	if req.Notes != "" {
		booking.Notes = models.NullString{NullString: sql.NullString{String: req.Notes, Valid: true}}
	}

	if err := s.bookingRepo.Create(booking); err != nil {
		return nil, err
	}

	s.notifications.Notify(ngo.UserID, fmt.Sprintf("New pickup request for %s.", req.WasteType))

	return s.detail(booking.ID)
}

// ListForUser returns all bookings placed by the user, newest first
func (s *BookingService) ListForUser(userID uuid.UUID) ([]models.BookingResponse, error) {
	details, err := s.bookingRepo.ListDetailsByUserID(userID)
	if err != nil {
		return nil, err
	}
	return toResponses(details), nil
}

// ListRequestsForNgo returns the open requests (PENDING and ACCEPTED) of
// the NGO linked to the given account.
func (s *BookingService) ListRequestsForNgo(ngoUserID uuid.UUID) ([]models.BookingResponse, error) {
	ngo, err := s.ngoForUser(ngoUserID)
	if err != nil {
		return nil, err
	}

	details, err := s.bookingRepo.ListActiveDetailsByNgoID(ngo.ID)
	if err != nil {
		return nil, err
	}
	return toResponses(details), nil
}

// Accept moves a PENDING booking to ACCEPTED, generates its pickup OTP
// and emails it to the booking owner.
func (s *BookingService) Accept(ngoUserID, bookingID uuid.UUID) (*models.BookingResponse, error) {
	ngo, err := s.ngoForUser(ngoUserID)
	if err != nil {
		return nil, err
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}
	expiry := time.Now().Add(s.otpExpiry)

	var booking *models.Booking
	err = s.inTx(func(tx database.Tx) error {
		booking, err = s.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if booking.NgoID != ngo.ID {
			return ErrNotAuthorized
		}
		if booking.Status != models.BookingStatusPending {
			return ErrInvalidState
		}

		return s.bookingRepo.Accept(tx, bookingID, otp, expiry)
	})
	if err != nil {
		return nil, err
	}

	s.sendOTPEmail(booking.UserID, otp)
	s.notifications.Notify(booking.UserID, fmt.Sprintf("Your %s pickup was accepted. Check your email for the handoff code.", booking.WasteType))

	return s.detail(bookingID)
}

// ResendOTP replaces the pickup OTP of an ACCEPTED booking and emails the
// new code to the booking owner. The previous code stops working.
func (s *BookingService) ResendOTP(ngoUserID, bookingID uuid.UUID) error {
	ngo, err := s.ngoForUser(ngoUserID)
	if err != nil {
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(s.otpExpiry)

	var booking *models.Booking
	err = s.inTx(func(tx database.Tx) error {
		booking, err = s.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if booking.NgoID != ngo.ID {
			return ErrNotAuthorized
		}
		if booking.Status != models.BookingStatusAccepted {
			return ErrInvalidState
		}

		return s.bookingRepo.UpdateOTP(tx, bookingID, otp, expiry)
	})
	if err != nil {
		return err
	}

	s.sendOTPEmail(booking.UserID, otp)
	return nil
}

// Reject moves a PENDING booking to REJECTED
func (s *BookingService) Reject(ngoUserID, bookingID uuid.UUID) (*models.BookingResponse, error) {
	ngo, err := s.ngoForUser(ngoUserID)
	if err != nil {
		return nil, err
	}

	var booking *models.Booking
	err = s.inTx(func(tx database.Tx) error {
		booking, err = s.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if booking.NgoID != ngo.ID {
			return ErrNotAuthorized
		}
		if booking.Status != models.BookingStatusPending {
			return ErrInvalidState
		}

		return s.bookingRepo.UpdateStatus(tx, bookingID, models.BookingStatusRejected)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(booking.UserID, fmt.Sprintf("Your %s pickup request was declined.", booking.WasteType))

	return s.detail(bookingID)
}

// Cancel lets the booking owner withdraw a PENDING booking
func (s *BookingService) Cancel(userID, bookingID uuid.UUID) error {
	var booking *models.Booking
	err := s.inTx(func(tx database.Tx) error {
		var err error
		booking, err = s.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if booking.UserID != userID {
			return ErrNotAuthorized
		}
		if booking.Status != models.BookingStatusPending {
			return ErrInvalidState
		}

		return s.bookingRepo.UpdateStatus(tx, bookingID, models.BookingStatusCancelled)
	})
	if err != nil {
		return err
	}

	if ngo, err := s.ngoRepo.GetByID(booking.NgoID); err == nil {
		s.notifications.Notify(ngo.UserID, fmt.Sprintf("A %s pickup request was cancelled by the user.", booking.WasteType))
	}
	return nil
}

// CompleteWithOTP verifies the handoff code and closes the booking:
// the owner is credited the waste type's EcoPoints, the NGO's account
// half of that, and the consumed OTP is cleared. All of it commits or
// none of it does.
func (s *BookingService) CompleteWithOTP(ngoUserID, bookingID uuid.UUID, otp string) (*models.BookingResponse, error) {
	ngo, err := s.ngoForUser(ngoUserID)
	if err != nil {
		return nil, err
	}

	var (
		booking *models.Booking
		points  int
	)
	err = s.inTx(func(tx database.Tx) error {
		booking, err = s.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if booking.NgoID != ngo.ID {
			return ErrNotAuthorized
		}
		if booking.Status != models.BookingStatusAccepted {
			return ErrInvalidState
		}
		if !booking.OTP.Valid || booking.OTP.String != otp {
			return ErrOTPInvalid
		}
		if !booking.OTPExpiry.Valid || !time.Now().Before(booking.OTPExpiry.Time) {
			return ErrOTPExpired
		}

		points = CalculatePoints(booking.WasteType)
		if err := s.userRepo.AddEcoPoints(tx, booking.UserID, points); err != nil {
			return err
		}
		if err := s.userRepo.AddEcoPoints(tx, ngo.UserID, NgoShare(points)); err != nil {
			return err
		}

		return s.bookingRepo.Complete(tx, bookingID, points)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"points":     points,
	}).Info("Booking completed")

	s.notifications.Notify(booking.UserID, fmt.Sprintf("Your %s pickup is complete. You earned %d EcoPoints!", booking.WasteType, points))

	return s.detail(bookingID)
}

func (s *BookingService) inTx(fn func(tx database.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.WithError(rbErr).Error("Failed to roll back transaction")
		}
		return err
	}

	return tx.Commit()
}

func (s *BookingService) lockBooking(tx database.Tx, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByIDForUpdate(tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) ngoForUser(userID uuid.UUID) (*models.Ngo, error) {
	ngo, err := s.ngoRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNgoProfileNotFound
		}
		return nil, err
	}
	return ngo, nil
}

func (s *BookingService) detail(id uuid.UUID) (*models.BookingResponse, error) {
	detail, err := s.bookingRepo.GetDetailByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return detail.ToResponse(), nil
}

func (s *BookingService) sendOTPEmail(userID uuid.UUID, otp string) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to look up user for OTP email")
		return
	}

	subject := "Your RecyConnect pickup code"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour pickup has been accepted. Give this code to the collector at handoff:\n\n%s\n\nThe code expires in %d hours.",
		user.Name, otp, int(s.otpExpiry.Hours()),
	)

	go func() {
		if err := s.mail.Send(user.Email, subject, body); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Error("Failed to send OTP email")
		}
	}()
}

func toResponses(details []models.BookingDetail) []models.BookingResponse {
	responses := make([]models.BookingResponse, 0, len(details))
	for i := range details {
		responses = append(responses, *details[i].ToResponse())
	}
	return responses
}

// generateOTP returns a 6 digit zero padded numeric code
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
