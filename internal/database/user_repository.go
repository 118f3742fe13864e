package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/recyconnect/recyconnect-backend/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *models.User) error {
	return r.insert(r.db, user)
}

// CreateTx inserts a new user inside an existing transaction
func (r *UserRepository) CreateTx(q Queryer, user *models.User) error {
	return r.insert(q, user)
}

func (r *UserRepository) insert(q Queryer, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, name, email, password_hash, role, eco_points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(
		query,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Role, user.EcoPoints, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, eco_points, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.db.QueryRow(query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, eco_points, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	return r.scanUser(r.db.QueryRow(query, email))
}

// AddEcoPoints increments a user's EcoPoints balance
func (r *UserRepository) AddEcoPoints(q Queryer, id uuid.UUID, delta int) error {
	query := `
		UPDATE users
		SET eco_points = eco_points + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to add eco points: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

func (r *UserRepository) scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.EcoPoints, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
