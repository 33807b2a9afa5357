package db

import (
	"fmt"
	"log"

	"github.com/icebreakerhq/icebreaker/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// InteractionRepository owns the single live record each user pair
// holds.
type InteractionRepository interface {
	GetInteraction(userA, userB uint) (*models.Interaction, error)
	UpsertInteraction(actorID, counterpartID uint, kind models.InteractionKind, message string) (*models.Interaction, error)
	ListReceived(userID uint) ([]models.Interaction, error)
	ListConnections(userID uint) ([]models.Interaction, error)
}

type interactionRepo struct {
	DB *gorm.DB
}

func NewInteractionRepo(db *GormDB) InteractionRepository {
	return &interactionRepo{db.DB}
}

// GetInteraction returns the pair's live record, or nil when the two
// never interacted.
func (r *interactionRepo) GetInteraction(userA, userB uint) (*models.Interaction, error) {
	lo, hi := models.NormalizePair(userA, userB)

	var interaction models.Interaction
	err := r.DB.Where("user_a_id = ? AND user_b_id = ?", lo, hi).First(&interaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "gorm find interaction error")
	}
	return &interaction, nil
}

// UpsertInteraction replaces whatever record the pair currently holds
// with the actor's new kind. The caller has already checked the pair
// is not locked against this actor.
func (r *interactionRepo) UpsertInteraction(actorID, counterpartID uint, kind models.InteractionKind, message string) (*models.Interaction, error) {
	lo, hi := models.NormalizePair(actorID, counterpartID)

	tx := r.DB.Begin()

	var existing models.Interaction
	err := tx.Where("user_a_id = ? AND user_b_id = ?", lo, hi).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, fmt.Errorf("failed to look up interaction: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		interaction := models.Interaction{
			UserAID: lo,
			UserBID: hi,
			ActorID: actorID,
			Kind:    kind,
			Message: message,
		}
		if err := tx.Create(&interaction).Error; err != nil {
			log.Println("Failed to create interaction, rolling back")
			tx.Rollback()
			return nil, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}
		return &interaction, nil
	}

	updates := map[string]interface{}{
		"actor_id": actorID,
		"kind":     kind,
		"message":  message,
	}
	if err := tx.Model(&existing).Updates(updates).Error; err != nil {
		log.Println("Failed to update interaction, rolling back")
		tx.Rollback()
		return nil, fmt.Errorf("failed to update interaction: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	existing.ActorID = actorID
	existing.Kind = kind
	existing.Message = message
	return &existing, nil
}

// ListReceived returns waves and intros still waiting on the user.
func (r *interactionRepo) ListReceived(userID uint) ([]models.Interaction, error) {
	var interactions []models.Interaction
	err := r.DB.
		Where("(user_a_id = ? OR user_b_id = ?)", userID, userID).
		Where("actor_id != ?", userID).
		Where("kind IN ?", []models.InteractionKind{models.KindWave, models.KindIntro}).
		Order("updated_at DESC").
		Find(&interactions).Error
	if err != nil {
		log.Printf("Error fetching received interactions: %v", err)
		return nil, err
	}
	return interactions, nil
}

// ListConnections returns the pairs the user has an open conversation
// with.
func (r *interactionRepo) ListConnections(userID uint) ([]models.Interaction, error) {
	var interactions []models.Interaction
	err := r.DB.
		Where("(user_a_id = ? OR user_b_id = ?)", userID, userID).
		Where("kind = ?", models.KindConversation).
		Order("updated_at DESC").
		Find(&interactions).Error
	if err != nil {
		log.Printf("Error fetching connections: %v", err)
		return nil, err
	}
	return interactions, nil
}
