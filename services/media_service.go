package services

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	apiError "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

const (
	maxProfilePhotos = 6
	cardSize         = 1080
	thumbWidth       = 200
)

// MediaService owns a member's photo grid. Every upload is cropped to
// the square card the clients render plus a small thumbnail.
type MediaService interface {
	UploadProfilePhoto(userID uint, file multipart.File, fileHeader *multipart.FileHeader) (*models.ProfilePhoto, error)
	ListProfilePhotos(userID uint) ([]models.ProfilePhoto, error)
	DeleteProfilePhoto(userID uint, photoID uint) error
}

type mediaService struct {
	Config    *config.Config
	mediaRepo db.MediaRepository
	authRepo  db.AuthRepository
	log       *zap.Logger
}

func NewMediaService(mediaRepo db.MediaRepository, authRepo db.AuthRepository, conf *config.Config, log *zap.Logger) MediaService {
	return &mediaService{
		Config:    conf,
		mediaRepo: mediaRepo,
		authRepo:  authRepo,
		log:       log,
	}
}

func (m *mediaService) UploadProfilePhoto(userID uint, file multipart.File, fileHeader *multipart.FileHeader) (*models.ProfilePhoto, error) {
	if err := db.ValidateFile(fileHeader); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}

	existing, err := m.mediaRepo.ListPhotos(userID)
	if err != nil {
		m.log.Error("listing photos failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if len(existing) >= maxProfilePhotos {
		return nil, apiError.New(fmt.Sprintf("you can upload at most %d photos", maxProfilePhotos), http.StatusBadRequest)
	}

	img, err := imaging.Decode(file)
	if err != nil {
		return nil, apiError.New("could not read image", http.StatusBadRequest)
	}
	file.Close()

	card := imaging.Fill(img, cardSize, cardSize, imaging.Center, imaging.Lanczos)
	thumb := resize.Resize(thumbWidth, 0, img, resize.Lanczos3)

	var cardBuf, thumbBuf bytes.Buffer
	if err := imaging.Encode(&cardBuf, card, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		m.log.Error("encoding card failed", zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if err := imaging.Encode(&thumbBuf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		m.log.Error("encoding thumbnail failed", zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	client, err := db.CreateS3Client()
	if err != nil {
		m.log.Error("creating s3 client failed", zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	bucketName := os.Getenv("AWS_BUCKET")
	photoID := uuid.New().String()

	photoURL, err := db.UploadToS3(client, &cardBuf, bucketName, fmt.Sprintf("profiles/%d/%s.jpg", userID, photoID))
	if err != nil {
		m.log.Error("uploading photo failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	thumbURL, err := db.UploadToS3(client, &thumbBuf, bucketName, fmt.Sprintf("profiles/%d/%s_thumb.jpg", userID, photoID))
	if err != nil {
		m.log.Error("uploading thumbnail failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	photo := &models.ProfilePhoto{
		UserID:       userID,
		URL:          photoURL,
		ThumbNailURL: thumbURL,
		Position:     len(existing),
	}
	if err := m.mediaRepo.SavePhoto(photo); err != nil {
		m.log.Error("saving photo failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	// The first photo doubles as the avatar.
	if len(existing) == 0 {
		if err := m.authRepo.UpsertUserImage(userID, photoURL, thumbURL); err != nil {
			m.log.Error("updating avatar failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}

	return photo, nil
}

func (m *mediaService) ListProfilePhotos(userID uint) ([]models.ProfilePhoto, error) {
	return m.mediaRepo.ListPhotos(userID)
}

// DeleteProfilePhoto removes the photo and moves the avatar to the
// next photo in the grid when the current one is deleted.
func (m *mediaService) DeleteProfilePhoto(userID uint, photoID uint) error {
	user, err := m.authRepo.FindUserByID(userID)
	if err != nil {
		return err
	}

	photos, err := m.mediaRepo.ListPhotos(userID)
	if err != nil {
		return err
	}
	var deletedURL string
	for _, p := range photos {
		if p.ID == photoID {
			deletedURL = p.URL
			break
		}
	}

	if err := m.mediaRepo.DeletePhoto(userID, photoID); err != nil {
		return apiError.New("photo not found", http.StatusNotFound)
	}

	if user.AvatarURL != deletedURL {
		return nil
	}
	remaining, err := m.mediaRepo.ListPhotos(userID)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return m.authRepo.UpsertUserImage(userID, remaining[0].URL, remaining[0].ThumbNailURL)
	}
	return m.authRepo.UpsertUserImage(userID, "", "")
}
