package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recyconnect/recyconnect-backend/internal/models"
)

// BookingRepository handles booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking
func (r *BookingRepository) Create(booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.BookingDate = time.Now()

	query := `
		INSERT INTO bookings (id, user_id, ngo_id, waste_type, notes, status, booking_date, points_awarded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		booking.ID, booking.UserID, booking.NgoID, booking.WasteType,
		booking.Notes, booking.Status, booking.BookingDate, booking.PointsAwarded,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	query := `
		SELECT id, user_id, ngo_id, waste_type, notes, status, booking_date, points_awarded, otp, otp_expiry
		FROM bookings
		WHERE id = $1
	`

	return r.scanBooking(r.db.QueryRow(query, id))
}

// GetByIDForUpdate retrieves a booking by ID with a row lock, inside a
// transaction. Concurrent state transitions on the same booking serialize
// on this lock.
func (r *BookingRepository) GetByIDForUpdate(q Queryer, id uuid.UUID) (*models.Booking, error) {
	query := `
		SELECT id, user_id, ngo_id, waste_type, notes, status, booking_date, points_awarded, otp, otp_expiry
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`

	return r.scanBooking(q.QueryRow(query, id))
}

// GetDetailByID retrieves a booking with its participant names and review flag
func (r *BookingRepository) GetDetailByID(id uuid.UUID) (*models.BookingDetail, error) {
	query := detailSelect + ` WHERE b.id = $1`

	return r.scanDetail(r.db.QueryRow(query, id))
}

// ListDetailsByUserID retrieves all bookings placed by a user, newest first
func (r *BookingRepository) ListDetailsByUserID(userID uuid.UUID) ([]models.BookingDetail, error) {
	query := detailSelect + ` WHERE b.user_id = $1 ORDER BY b.booking_date DESC`

	return r.listDetails(query, userID)
}

// ListActiveDetailsByNgoID retrieves an NGO's open requests, i.e. bookings
// that are still PENDING or ACCEPTED, oldest first.
func (r *BookingRepository) ListActiveDetailsByNgoID(ngoID uuid.UUID) ([]models.BookingDetail, error) {
	query := detailSelect + ` WHERE b.ngo_id = $1 AND b.status IN ('PENDING', 'ACCEPTED') ORDER BY b.booking_date ASC`

	return r.listDetails(query, ngoID)
}

// Accept moves a booking to ACCEPTED and stores its pickup OTP
func (r *BookingRepository) Accept(q Queryer, id uuid.UUID, otp string, expiry time.Time) error {
	query := `
		UPDATE bookings
		SET status = 'ACCEPTED', otp = $2, otp_expiry = $3
		WHERE id = $1
	`

	return r.exec(q, query, id, otp, expiry)
}

// UpdateOTP replaces the pickup OTP on an already accepted booking
func (r *BookingRepository) UpdateOTP(q Queryer, id uuid.UUID, otp string, expiry time.Time) error {
	query := `
		UPDATE bookings
		SET otp = $2, otp_expiry = $3
		WHERE id = $1
	`

	return r.exec(q, query, id, otp, expiry)
}

// UpdateStatus moves a booking to a terminal non-completed state and
// discards any pending OTP.
func (r *BookingRepository) UpdateStatus(q Queryer, id uuid.UUID, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $2, otp = NULL, otp_expiry = NULL
		WHERE id = $1
	`

	return r.exec(q, query, id, status)
}

// Complete moves a booking to COMPLETED, records the points awarded to the
// booking owner, and clears the consumed OTP.
func (r *BookingRepository) Complete(q Queryer, id uuid.UUID, points int) error {
	query := `
		UPDATE bookings
		SET status = 'COMPLETED', points_awarded = $2, otp = NULL, otp_expiry = NULL
		WHERE id = $1
	`

	return r.exec(q, query, id, points)
}

const detailSelect = `
	SELECT b.id, b.user_id, b.ngo_id, b.waste_type, b.notes, b.status, b.booking_date, b.points_awarded,
	       b.otp, b.otp_expiry,
	       u.name AS user_name, nu.name AS ngo_name,
	       EXISTS (SELECT 1 FROM reviews rv WHERE rv.booking_id = b.id) AS reviewed
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN ngos n ON n.id = b.ngo_id
	JOIN users nu ON nu.id = n.user_id
`

func (r *BookingRepository) listDetails(query string, arg interface{}) ([]models.BookingDetail, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []models.BookingDetail{}
	for rows.Next() {
		detail, err := r.scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}

	return details, rows.Err()
}

func (r *BookingRepository) exec(q Queryer, query string, args ...interface{}) error {
	result, err := q.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	err := row.Scan(
		&booking.ID, &booking.UserID, &booking.NgoID, &booking.WasteType,
		&booking.Notes, &booking.Status, &booking.BookingDate, &booking.PointsAwarded,
		&booking.OTP, &booking.OTPExpiry,
	)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) scanDetail(row scanner) (*models.BookingDetail, error) {
	detail := &models.BookingDetail{}
	err := row.Scan(
		&detail.ID, &detail.UserID, &detail.NgoID, &detail.WasteType,
		&detail.Notes, &detail.Status, &detail.BookingDate, &detail.PointsAwarded,
		&detail.OTP, &detail.OTPExpiry,
		&detail.UserName, &detail.NgoName, &detail.Reviewed,
	)
	if err != nil {
		return nil, err
	}
	return detail, nil
}
