package db

import (
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type MediaRepository interface {
	SavePhoto(photo *models.ProfilePhoto) error
	ListPhotos(userID uint) ([]models.ProfilePhoto, error)
	DeletePhoto(userID uint, photoID uint) error
}

type mediaRepo struct {
	DB *gorm.DB
}

func NewMediaRepo(db *GormDB) MediaRepository {
	return &mediaRepo{db.DB}
}

func (m *mediaRepo) SavePhoto(photo *models.ProfilePhoto) error {
	if err := m.DB.Create(photo).Error; err != nil {
		return err
	}
	return nil
}

func (m *mediaRepo) ListPhotos(userID uint) ([]models.ProfilePhoto, error) {
	var photos []models.ProfilePhoto
	err := m.DB.Where("user_id = ?", userID).Order("position ASC, created_at ASC").Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (m *mediaRepo) DeletePhoto(userID uint, photoID uint) error {
	result := m.DB.Where("id = ? AND user_id = ?", photoID, userID).Delete(&models.ProfilePhoto{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("photo not found")
	}
	return nil
}
