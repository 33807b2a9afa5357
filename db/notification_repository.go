package db

import (
	"log"

	"github.com/icebreakerhq/icebreaker/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	ListNotifications(userID uint) ([]models.Notification, error)
	MarkNotificationsRead(userID uint) error
	RegisterDeviceToken(userID uint, token string) error
	ListDeviceTokens(userID uint) ([]string, error)
	DeleteDeviceToken(token string) error
}

type notificationRepo struct {
	DB *gorm.DB
}

func NewNotificationRepo(db *GormDB) NotificationRepository {
	return &notificationRepo{db.DB}
}

func (n *notificationRepo) CreateNotification(notification *models.Notification) error {
	if err := n.DB.Create(notification).Error; err != nil {
		log.Printf("Error creating notification: %v", err)
		return err
	}
	return nil
}

func (n *notificationRepo) ListNotifications(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := n.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm find notifications error")
	}
	return notifications, nil
}

func (n *notificationRepo) MarkNotificationsRead(userID uint) error {
	return n.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true).Error
}

// RegisterDeviceToken stores the token once per device no matter how
// often the client re-registers it.
func (n *notificationRepo) RegisterDeviceToken(userID uint, token string) error {
	deviceToken := models.DeviceToken{UserID: userID, Token: token}
	err := n.DB.FirstOrCreate(&deviceToken, models.DeviceToken{Token: token}).Error
	if err != nil {
		return errors.Wrap(err, "gorm first or create device token error")
	}
	if deviceToken.UserID != userID {
		return n.DB.Model(&deviceToken).Update("user_id", userID).Error
	}
	return nil
}

func (n *notificationRepo) ListDeviceTokens(userID uint) ([]string, error) {
	var tokens []string
	err := n.DB.Model(&models.DeviceToken{}).Where("user_id = ?", userID).Pluck("token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (n *notificationRepo) DeleteDeviceToken(token string) error {
	return n.DB.Where("token = ?", token).Delete(&models.DeviceToken{}).Error
}
