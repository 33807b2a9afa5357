package db

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ChatRepository interface {
	FirstOrCreateConversation(userA, userB uint) (*models.Conversation, error)
	GetConversation(id uuid.UUID) (*models.Conversation, error)
	GetConversationByPair(userA, userB uint) (*models.Conversation, error)
	ListConversations(userID uint) ([]models.Conversation, error)
	CreateMessage(message *models.Message) error
	GetMessage(id uuid.UUID) (*models.Message, error)
	ListMessages(conversationID uuid.UUID, limit int) ([]models.Message, error)
	ListRecentMessages(conversationID uuid.UUID, limit int) ([]models.Message, error)
	UpdateMessageStatus(messageID uuid.UUID, status models.DeliveryStatus) error
	MarkDelivered(conversationID uuid.UUID, recipientID uint) (int64, error)
	MarkConversationRead(conversationID uuid.UUID, readerID uint) ([]uuid.UUID, error)
	CountUnread(conversationID uuid.UUID, viewerID uint) (int64, error)
}

type chatRepo struct {
	DB *gorm.DB
}

func NewChatRepo(db *GormDB) ChatRepository {
	return &chatRepo{db.DB}
}

// FirstOrCreateConversation opens the pair's conversation if it does
// not exist yet. Pairs hold at most one conversation.
func (r *chatRepo) FirstOrCreateConversation(userA, userB uint) (*models.Conversation, error) {
	lo, hi := models.NormalizePair(userA, userB)

	conversation := models.Conversation{UserAID: lo, UserBID: hi}
	err := r.DB.FirstOrCreate(&conversation, models.Conversation{UserAID: lo, UserBID: hi}).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm first or create conversation error")
	}
	return &conversation, nil
}

func (r *chatRepo) GetConversation(id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.DB.Where("id = ?", id).First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("conversation not found")
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *chatRepo) GetConversationByPair(userA, userB uint) (*models.Conversation, error) {
	lo, hi := models.NormalizePair(userA, userB)

	var conversation models.Conversation
	err := r.DB.Where("user_a_id = ? AND user_b_id = ?", lo, hi).First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *chatRepo) ListConversations(userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.DB.
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&conversations).Error
	if err != nil {
		log.Printf("Error fetching conversations: %v", err)
		return nil, err
	}
	return conversations, nil
}

// CreateMessage persists the message and bumps the conversation
// preview inside one transaction.
func (r *chatRepo) CreateMessage(message *models.Message) error {
	tx := r.DB.Begin()

	if err := tx.Create(message).Error; err != nil {
		log.Println("Failed to create message, rolling back")
		tx.Rollback()
		return err
	}

	updates := map[string]interface{}{
		"last_message":    message.Body,
		"last_message_at": time.Now(),
	}
	if err := tx.Model(&models.Conversation{}).Where("id = ?", message.ConversationID).Updates(updates).Error; err != nil {
		log.Println("Failed to update conversation preview, rolling back")
		tx.Rollback()
		return fmt.Errorf("failed to update conversation preview: %w", err)
	}

	return tx.Commit().Error
}

func (r *chatRepo) GetMessage(id uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := r.DB.Where("id = ?", id).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("message not found")
		}
		return nil, err
	}
	return &message, nil
}

// ListMessages returns the conversation's messages oldest first. A
// limit of zero returns everything.
func (r *chatRepo) ListMessages(conversationID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message
	query := r.DB.Where("conversation_id = ?", conversationID).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&messages).Error
	if err != nil {
		log.Printf("Error fetching messages: %v", err)
		return nil, err
	}
	return messages, nil
}

// ListRecentMessages returns the newest messages of the conversation,
// reordered oldest first so callers read them as a transcript.
func (r *chatRepo) ListRecentMessages(conversationID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		log.Printf("Error fetching messages: %v", err)
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatRepo) UpdateMessageStatus(messageID uuid.UUID, status models.DeliveryStatus) error {
	result := r.DB.Model(&models.Message{}).Where("id = ?", messageID).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no rows affected")
	}
	return nil
}

// MarkDelivered advances everything still in flight toward the
// recipient and reports how many rows moved.
func (r *chatRepo) MarkDelivered(conversationID uuid.UUID, recipientID uint) (int64, error) {
	result := r.DB.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("sender_id != ?", recipientID).
		Where("status IN ?", []models.DeliveryStatus{models.StatusSending, models.StatusSent}).
		Update("status", models.StatusDelivered)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkConversationRead moves every counterpart message that still
// counts as unread to read, returning the ids that changed so read
// receipts can go out.
func (r *chatRepo) MarkConversationRead(conversationID uuid.UUID, readerID uint) ([]uuid.UUID, error) {
	tx := r.DB.Begin()

	var ids []uuid.UUID
	err := tx.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("sender_id != ?", readerID).
		Where("status NOT IN ?", []models.DeliveryStatus{models.StatusRead, models.StatusFailed}).
		Pluck("id", &ids).Error
	if err != nil {
		log.Println("Failed to collect unread message ids, rolling back")
		tx.Rollback()
		return nil, fmt.Errorf("failed to collect unread message ids: %w", err)
	}

	if len(ids) == 0 {
		tx.Rollback()
		return nil, nil
	}

	if err := tx.Model(&models.Message{}).Where("id IN ?", ids).Update("status", models.StatusRead).Error; err != nil {
		log.Println("Failed to mark messages read, rolling back")
		tx.Rollback()
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountUnread derives the viewer's unread total from the messages
// themselves. Own messages and failed ones never count.
func (r *chatRepo) CountUnread(conversationID uuid.UUID, viewerID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("sender_id != ?", viewerID).
		Where("status NOT IN ?", []models.DeliveryStatus{models.StatusRead, models.StatusFailed}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
