package services

import (
	"context"
	"time"

	"firebase.google.com/go/messaging"
	"github.com/icebreakerhq/icebreaker/db"
	"github.com/icebreakerhq/icebreaker/models"
	"go.uber.org/zap"
)

// NotificationService fans short lines of text out to a member's
// in-app feed and their registered devices.
type NotificationService interface {
	NotifyUser(userID uint, message string)
	RegisterDevice(userID uint, req *models.RegisterDeviceTokenRequest) error
	UnregisterDevice(token string) error
	ListNotifications(userID uint) ([]models.Notification, error)
	MarkAllRead(userID uint) error
}

type notificationService struct {
	notificationRepo db.NotificationRepository
	fcmClient        *messaging.Client
	log              *zap.Logger
}

// NewNotificationService instantiates a notificationService. fcmClient
// may be nil, in which case pushes are skipped and only the feed row
// is written.
func NewNotificationService(notificationRepo db.NotificationRepository, fcmClient *messaging.Client, log *zap.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		fcmClient:        fcmClient,
		log:              log,
	}
}

// NotifyUser writes the feed row and pushes to every device. Failures
// are logged, never surfaced to the caller.
func (s *notificationService) NotifyUser(userID uint, message string) {
	notification := &models.Notification{
		UserID:  userID,
		Message: message,
	}
	if err := s.notificationRepo.CreateNotification(notification); err != nil {
		s.log.Error("saving notification failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	s.push(userID, message)
}

func (s *notificationService) push(userID uint, body string) {
	if s.fcmClient == nil {
		return
	}

	tokens, err := s.notificationRepo.ListDeviceTokens(userID)
	if err != nil {
		s.log.Error("listing device tokens failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	for _, token := range tokens {
		msg := &messaging.Message{
			Notification: &messaging.Notification{
				Title: "Icebreaker",
				Body:  body,
			},
			Token: token,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := s.fcmClient.Send(ctx, msg)
		cancel()
		if err != nil {
			// A rejected token is stale, drop it so we stop retrying.
			s.log.Warn("push failed, dropping device token", zap.Uint("user_id", userID), zap.Error(err))
			if delErr := s.notificationRepo.DeleteDeviceToken(token); delErr != nil {
				s.log.Error("deleting device token failed", zap.Error(delErr))
			}
		}
	}
}

func (s *notificationService) RegisterDevice(userID uint, req *models.RegisterDeviceTokenRequest) error {
	return s.notificationRepo.RegisterDeviceToken(userID, req.Token)
}

func (s *notificationService) UnregisterDevice(token string) error {
	return s.notificationRepo.DeleteDeviceToken(token)
}

func (s *notificationService) ListNotifications(userID uint) ([]models.Notification, error) {
	return s.notificationRepo.ListNotifications(userID)
}

func (s *notificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkNotificationsRead(userID)
}
