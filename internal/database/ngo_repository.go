package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recyconnect/recyconnect-backend/internal/models"
)

// scanner abstracts *sql.Row and *sql.Rows for single-row scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

// NgoRepository handles NGO profile database operations
type NgoRepository struct {
	db DB
}

// NewNgoRepository creates a new NgoRepository
func NewNgoRepository(db DB) *NgoRepository {
	return &NgoRepository{db: db}
}

// CreateTx inserts a new NGO profile inside an existing transaction
func (r *NgoRepository) CreateTx(q Queryer, ngo *models.Ngo) error {
	if ngo.ID == uuid.Nil {
		ngo.ID = uuid.New()
	}
	now := time.Now()
	ngo.CreatedAt = now
	ngo.UpdatedAt = now

	query := `
		INSERT INTO ngos (id, user_id, address, contact_number, accepted_waste_types, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(
		query,
		ngo.ID, ngo.UserID, ngo.Address, ngo.ContactNumber,
		ngo.AcceptedWasteTypes, ngo.Status, ngo.CreatedAt, ngo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ngo profile: %w", err)
	}

	return nil
}

// GetByID retrieves an NGO profile by ID
func (r *NgoRepository) GetByID(id uuid.UUID) (*models.Ngo, error) {
	query := `
		SELECT id, user_id, address, contact_number, accepted_waste_types, status, created_at, updated_at
		FROM ngos
		WHERE id = $1
	`

	return r.scanNgo(r.db.QueryRow(query, id))
}

// GetByUserID retrieves the NGO profile linked to a user account
func (r *NgoRepository) GetByUserID(userID uuid.UUID) (*models.Ngo, error) {
	query := `
		SELECT id, user_id, address, contact_number, accepted_waste_types, status, created_at, updated_at
		FROM ngos
		WHERE user_id = $1
	`

	return r.scanNgo(r.db.QueryRow(query, userID))
}

// Update updates the mutable NGO profile fields
func (r *NgoRepository) Update(ngo *models.Ngo) error {
	query := `
		UPDATE ngos
		SET address = $2, contact_number = $3, accepted_waste_types = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, ngo.ID, ngo.Address, ngo.ContactNumber, ngo.AcceptedWasteTypes)
	if err != nil {
		return fmt.Errorf("failed to update ngo profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ngo not found")
	}

	return nil
}

// ListActive retrieves ACTIVE NGOs for the public directory, optionally
// filtered by an accepted waste type and a free-text name/address search,
// with review and completed-pickup rollups.
func (r *NgoRepository) ListActive(wasteType, search string) ([]models.NgoListItem, error) {
	query := `
		SELECT n.id, u.name, n.address, n.contact_number, n.accepted_waste_types,
		       (SELECT AVG(rv.rating) FROM reviews rv WHERE rv.ngo_id = n.id) AS average_rating,
		       (SELECT COUNT(*) FROM bookings b WHERE b.ngo_id = n.id AND b.status = 'COMPLETED') AS completed_pickups
		FROM ngos n
		JOIN users u ON u.id = n.user_id
		WHERE n.status = 'ACTIVE'
		  AND ($1 = '' OR EXISTS (
		        SELECT 1 FROM unnest(n.accepted_waste_types) wt WHERE LOWER(wt) = LOWER($1)))
		  AND ($2 = '' OR LOWER(u.name) LIKE '%' || LOWER($2) || '%'
		               OR LOWER(n.address) LIKE '%' || LOWER($2) || '%')
		ORDER BY u.name
	`

	rows, err := r.db.Query(query, wasteType, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.NgoListItem{}
	for rows.Next() {
		var item models.NgoListItem
		var rating sql.NullFloat64

		err := rows.Scan(
			&item.ID, &item.Name, &item.Address, &item.ContactNumber,
			&item.AcceptedWasteTypes, &rating, &item.CompletedPickups,
		)
		if err != nil {
			return nil, err
		}

		if rating.Valid {
			item.AverageRating = &rating.Float64
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *NgoRepository) scanNgo(row scanner) (*models.Ngo, error) {
	ngo := &models.Ngo{}
	err := row.Scan(
		&ngo.ID, &ngo.UserID, &ngo.Address, &ngo.ContactNumber,
		&ngo.AcceptedWasteTypes, &ngo.Status, &ngo.CreatedAt, &ngo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ngo, nil
}
