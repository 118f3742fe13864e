package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/recyconnect/recyconnect-backend/internal/database"
	"github.com/recyconnect/recyconnect-backend/internal/models"
	"github.com/recyconnect/recyconnect-backend/pkg/validator"
)

// NgoService handles the public NGO directory and NGO profile management
type NgoService struct {
	ngoRepo *database.NgoRepository
}

// NewNgoService creates a new NGO service
func NewNgoService(ngoRepo *database.NgoRepository) *NgoService {
	return &NgoService{ngoRepo: ngoRepo}
}

// List returns the ACTIVE NGOs matching the optional waste type and
// free-text filters, with rating and completed-pickup rollups.
func (s *NgoService) List(wasteType, search string) ([]models.NgoListItem, error) {
	return s.ngoRepo.ListActive(wasteType, search)
}

// Get retrieves an NGO profile by its ID
func (s *NgoService) Get(id uuid.UUID) (*models.Ngo, error) {
	ngo, err := s.ngoRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNgoNotFound
		}
		return nil, err
	}
	return ngo, nil
}

// Profile retrieves the NGO profile linked to a user account
func (s *NgoService) Profile(userID uuid.UUID) (*models.Ngo, error) {
	ngo, err := s.ngoRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNgoProfileNotFound
		}
		return nil, err
	}
	return ngo, nil
}

// UpdateProfile updates the mutable fields of the caller's NGO profile
func (s *NgoService) UpdateProfile(userID uuid.UUID, req *models.UpdateNgoProfileRequest) (*models.Ngo, error) {
	if !validator.IsValidPhone(req.ContactNumber) {
		return nil, ErrInvalidPhone
	}

	ngo, err := s.Profile(userID)
	if err != nil {
		return nil, err
	}

	ngo.Address = req.Address
	ngo.ContactNumber = validator.NormalizePhone(req.ContactNumber)
	ngo.AcceptedWasteTypes = req.AcceptedWasteTypes

	if err := s.ngoRepo.Update(ngo); err != nil {
		return nil, err
	}

	return ngo, nil
}
