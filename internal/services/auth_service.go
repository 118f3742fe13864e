package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/recyconnect/recyconnect-backend/internal/database"
	"github.com/recyconnect/recyconnect-backend/internal/models"
	"github.com/recyconnect/recyconnect-backend/pkg/jwt"
	"github.com/recyconnect/recyconnect-backend/pkg/validator"
)

// AuthService handles account registration and login
type AuthService struct {
	db         database.DB
	userRepo   *database.UserRepository
	ngoRepo    *database.NgoRepository
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	db database.DB,
	userRepo *database.UserRepository,
	ngoRepo *database.NgoRepository,
	jwtService *jwt.Service,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		ngoRepo:    ngoRepo,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a standard user account
func (s *AuthService) Register(req *models.RegisterRequest) (*models.AuthResponse, error) {
	if err := s.checkEmailFree(req.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")

	return s.issueTokens(user)
}

// RegisterNgo creates an NGO account: the user record and the provider
// profile commit together, and the profile starts in PENDING_APPROVAL.
func (s *AuthService) RegisterNgo(req *models.RegisterNgoRequest) (*models.AuthResponse, error) {
	if err := s.checkEmailFree(req.Email); err != nil {
		return nil, err
	}
	if !validator.IsValidPhone(req.ContactNumber) {
		return nil, ErrInvalidPhone
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleNGO,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.CreateTx(tx, user); err != nil {
		tx.Rollback()
		return nil, err
	}

	ngo := &models.Ngo{
		UserID:             user.ID,
		Address:            req.Address,
		ContactNumber:      validator.NormalizePhone(req.ContactNumber),
		AcceptedWasteTypes: req.AcceptedWasteTypes,
		Status:             models.NgoStatusPendingApproval,
	}

	if err := s.ngoRepo.CreateTx(tx, ngo); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"ngo_id":  ngo.ID,
	}).Info("NGO registered")

	return s.issueTokens(user)
}

// Login authenticates a user by email and password
func (s *AuthService) Login(req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// GetUser retrieves a user by ID. Backs the current-user endpoint, which
// returns the live EcoPoints balance.
func (s *AuthService) GetUser(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) checkEmailFree(email string) error {
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
