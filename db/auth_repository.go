package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/icebreakerhq/icebreaker/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	IsEmailExist(email string) error
	IsHandleExist(handle string) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByHandle(handle string) (*models.User, error)
	FindUserByID(id uint) (*models.User, error)
	GetUserProfile(id uint) (*models.User, error)
	EditUserProfile(userID uint, details *models.EditProfileRequest) error
	UpdateUserLocation(userID uint, latitude, longitude float64) error
	UpdateUserOnlineStatus(user *models.User) error
	SetUserOffline(user *models.User) error
	GetOnlineUserCount() (int64, error)
	ListDiscoverCandidates(userID uint, limit int) ([]models.User, error)
	ListInterests() ([]models.Interest, error)
	UpsertUserImage(userID uint, avatarURL, thumbnailURL string) error
	AddToBlackList(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
	UpdatePassword(password string, email string) error
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}

	result := a.DB.Create(user)
	if result.Error != nil {
		log.Printf("CreateUser error: %v", result.Error)
		return nil, result.Error
	}

	return user, nil
}

func (a *authRepo) IsEmailExist(email string) error {
	var count int64
	err := a.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return errors.New("email already in use")
	}
	return nil
}

func (a *authRepo) IsHandleExist(handle string) error {
	var count int64
	err := a.DB.Model(&models.User{}).Where("handle = ?", handle).Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return errors.New("handle already in use")
	}
	return nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := a.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	return &user, nil
}

func (a *authRepo) FindUserByHandle(handle string) (*models.User, error) {
	var user models.User
	err := a.DB.Where("handle = ?", handle).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("error finding user by handle: %w", err)
	}
	return &user, nil
}

func (a *authRepo) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	err := a.DB.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) GetUserProfile(id uint) (*models.User, error) {
	var user models.User
	err := a.DB.Preload("Interests").Preload("Photos").Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) EditUserProfile(userID uint, details *models.EditProfileRequest) error {
	var user models.User
	if err := a.DB.First(&user, userID).Error; err != nil {
		return err
	}

	if details.Fullname != "" {
		user.Fullname = details.Fullname
	}
	if details.Bio != "" {
		user.Bio = details.Bio
	}
	if details.Gender != "" {
		user.Gender = details.Gender
	}
	if details.Birthdate != "" {
		parsed, err := time.Parse("2006-01-02", details.Birthdate)
		if err != nil {
			return fmt.Errorf("invalid birthdate: %v", err)
		}
		user.Birthdate = parsed
	}

	if err := a.DB.Save(&user).Error; err != nil {
		return err
	}

	if details.Interests != nil {
		var interests []models.Interest
		if err := a.DB.Where("name IN ?", details.Interests).Find(&interests).Error; err != nil {
			return err
		}
		if err := a.DB.Model(&user).Association("Interests").Replace(interests); err != nil {
			return err
		}
	}

	return nil
}

func (a *authRepo) UpdateUserLocation(userID uint, latitude, longitude float64) error {
	result := a.DB.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"latitude":  latitude,
		"longitude": longitude,
	})
	return result.Error
}

func (a *authRepo) UpdateUserOnlineStatus(user *models.User) error {
	result := a.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"online":    user.Online,
		"last_seen": time.Now(),
	})
	if result.Error != nil {
		log.Printf("Error updating user status: %v", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no rows affected")
	}
	return nil
}

func (a *authRepo) SetUserOffline(user *models.User) error {
	result := a.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"online":    false,
		"last_seen": time.Now(),
	})
	if result.Error != nil {
		log.Printf("Error setting user status to offline: %v", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no rows affected")
	}
	return nil
}

func (a *authRepo) GetOnlineUserCount() (int64, error) {
	var count int64
	result := a.DB.Model(&models.User{}).Where("online = ?", true).Count(&count)
	if result.Error != nil {
		log.Printf("Error fetching online user count: %v", result.Error)
		return 0, result.Error
	}
	return count, nil
}

// ListDiscoverCandidates returns members the user has no live
// interaction with, themselves excluded.
func (a *authRepo) ListDiscoverCandidates(userID uint, limit int) ([]models.User, error) {
	interacted := a.DB.Model(&models.Interaction{}).
		Select("CASE WHEN user_a_id = ? THEN user_b_id ELSE user_a_id END", userID).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID)

	var users []models.User
	err := a.DB.Preload("Photos").Preload("Interests").
		Where("id != ?", userID).
		Where("id NOT IN (?)", interacted).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		log.Printf("Error fetching discover candidates: %v", err)
		return nil, err
	}
	return users, nil
}

func (a *authRepo) ListInterests() ([]models.Interest, error) {
	var interests []models.Interest
	if err := a.DB.Order("name ASC").Find(&interests).Error; err != nil {
		return nil, err
	}
	return interests, nil
}

func (a *authRepo) UpsertUserImage(userID uint, avatarURL, thumbnailURL string) error {
	var user models.User
	result := a.DB.Where("id = ?", userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return errors.New("user not found")
		}
		log.Printf("Error retrieving user record: %v", result.Error)
		return result.Error
	}

	user.AvatarURL = avatarURL
	user.ThumbNailURL = thumbnailURL
	if err := a.DB.Save(&user).Error; err != nil {
		log.Printf("Error updating user image urls: %v", err)
		return err
	}

	return nil
}

func (a *authRepo) AddToBlackList(blacklist *models.Blacklist) error {
	result := a.DB.Create(blacklist)
	return result.Error
}

func normalizeToken(token string) string {
	return strings.TrimSpace(token)
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	normalizedToken := normalizeToken(token)

	var count int64
	a.DB.Model(&models.Blacklist{}).Where("token = ?", normalizedToken).Count(&count)
	return count > 0
}

func (a *authRepo) UpdatePassword(password string, email string) error {
	err := a.DB.Model(&models.User{}).Where("email = ?", email).Updates(models.User{HashedPassword: password}).Error
	if err != nil {
		return err
	}
	return nil
}

