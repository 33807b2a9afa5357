package models

// Notification represents notifications sent to users
type Notification struct {
	Model
	UserID  uint   `json:"user_id" gorm:"not null;index"`
	Message string `json:"message"`
	IsRead  bool   `json:"is_read"`
}

// DeviceToken is an FCM registration token for one of a member's
// devices. Tokens the push gateway rejects get pruned.
type DeviceToken struct {
	Model
	UserID uint   `json:"user_id" gorm:"not null;index"`
	Token  string `json:"token" gorm:"unique;not null"`
}

type RegisterDeviceTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
