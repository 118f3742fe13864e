package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/recyconnect/recyconnect-backend/internal/database"
	"github.com/recyconnect/recyconnect-backend/internal/models"
	"github.com/recyconnect/recyconnect-backend/pkg/push"
)

const latestNotificationLimit = 10

// NotificationService persists in-app notifications and pushes them to
// the user's real-time channel. Delivery is best effort on both legs:
// a notification failure never fails the booking action that caused it.
type NotificationService struct {
	repo      *database.NotificationRepository
	publisher push.Publisher
	logger    *logrus.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo *database.NotificationRepository, publisher push.Publisher, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Notify stores a notification for the user and pushes it to their
// channel in the background.
func (s *NotificationService) Notify(userID uuid.UUID, message string) {
	notification := &models.Notification{
		UserID:  userID,
		Message: message,
	}

	if err := s.repo.Create(notification); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to store notification")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.publisher.Publish(ctx, userID.String(), notification); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to push notification")
		}
	}()
}

// Latest returns the user's most recent notifications
func (s *NotificationService) Latest(userID uuid.UUID) ([]models.Notification, error) {
	return s.repo.ListLatestByUserID(userID, latestNotificationLimit)
}

// UnreadCount returns the number of unread notifications for the user
func (s *NotificationService) UnreadCount(userID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByUserID(userID)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(id, userID); err != nil {
		return ErrNotificationNotFound
	}
	return nil
}
