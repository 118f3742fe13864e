package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recyconnect/recyconnect-backend/internal/models"
)

// ReviewRepository handles review database operations
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review
func (r *ReviewRepository) Create(review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = time.Now()

	query := `
		INSERT INTO reviews (id, booking_id, user_id, ngo_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(
		query,
		review.ID, review.BookingID, review.UserID, review.NgoID,
		review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ExistsByBookingID reports whether a booking has already been reviewed
func (r *ReviewRepository) ExistsByBookingID(bookingID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1)`

	var exists bool
	if err := r.db.QueryRow(query, bookingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListDetailsByNgoID retrieves an NGO's reviews with the reviewer's name,
// newest first.
func (r *ReviewRepository) ListDetailsByNgoID(ngoID uuid.UUID) ([]models.ReviewDetail, error) {
	query := `
		SELECT rv.id, rv.booking_id, rv.user_id, rv.ngo_id, rv.rating, rv.comment, rv.created_at,
		       u.name AS user_name
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.ngo_id = $1
		ORDER BY rv.created_at DESC
	`

	rows, err := r.db.Query(query, ngoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []models.ReviewDetail{}
	for rows.Next() {
		var detail models.ReviewDetail
		err := rows.Scan(
			&detail.ID, &detail.BookingID, &detail.UserID, &detail.NgoID,
			&detail.Rating, &detail.Comment, &detail.CreatedAt,
			&detail.UserName,
		)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	return details, rows.Err()
}
