package services

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	apiError "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"go.uber.org/zap"
)

// Broadcaster is the live surface the chat flow pushes through.
// *realtime.Hub satisfies it.
type Broadcaster interface {
	IsOnline(userID uint) bool
	DeliverMessage(recipientID uint, message *models.Message) bool
	NotifyDelivery(userID uint, conversationID uuid.UUID, messageIDs []uuid.UUID, status models.DeliveryStatus)
	HandleTyping(conversationID uuid.UUID, userID, counterpartID uint)
	StopTyping(conversationID uuid.UUID, userID uint)
}

// ChatService owns conversations and the delivery lifecycle of the
// messages inside them.
type ChatService interface {
	ListConversations(viewerID uint) ([]models.ConversationResponse, error)
	GetConversationWith(viewerID uint, counterpartHandle string) (*models.ConversationResponse, *apiError.Error)
	SendMessage(senderID uint, conversationID uuid.UUID, body string) (*models.Message, *apiError.Error)
	ListMessages(viewerID uint, conversationID uuid.UUID, limit int) ([]models.Message, *apiError.Error)
	MarkRead(readerID uint, conversationID uuid.UUID) (int, *apiError.Error)
	HandleTyping(userID uint, conversationID uuid.UUID, typing bool) *apiError.Error
}

type chatService struct {
	Config          *config.Config
	chatRepo        db.ChatRepository
	interactionRepo db.InteractionRepository
	authRepo        db.AuthRepository
	broadcaster     Broadcaster
	notifier        NotificationService
	log             *zap.Logger
}

func NewChatService(chatRepo db.ChatRepository, interactionRepo db.InteractionRepository, authRepo db.AuthRepository, broadcaster Broadcaster, notifier NotificationService, conf *config.Config, log *zap.Logger) ChatService {
	return &chatService{
		Config:          conf,
		chatRepo:        chatRepo,
		interactionRepo: interactionRepo,
		authRepo:        authRepo,
		broadcaster:     broadcaster,
		notifier:        notifier,
		log:             log,
	}
}

// ListConversations returns the viewer's inbox, newest activity first.
// The unread count on each row is computed here, never stored.
func (s *chatService) ListConversations(viewerID uint) ([]models.ConversationResponse, error) {
	conversations, err := s.chatRepo.ListConversations(viewerID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		resp, err := s.conversationResponse(viewerID, &conversations[i])
		if err != nil {
			s.log.Warn("skipping conversation", zap.String("conversation_id", conversations[i].ID.String()), zap.Error(err))
			continue
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (s *chatService) GetConversationWith(viewerID uint, counterpartHandle string) (*models.ConversationResponse, *apiError.Error) {
	counterpart, err := s.authRepo.FindUserByHandle(counterpartHandle)
	if err != nil {
		return nil, apiError.New("user not found", http.StatusNotFound)
	}

	conversation, err := s.chatRepo.GetConversationByPair(viewerID, counterpart.ID)
	if err != nil {
		s.log.Error("looking up conversation failed", zap.Uint("viewer_id", viewerID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if conversation == nil {
		return nil, apiError.New("you have no conversation with this person yet", http.StatusNotFound)
	}

	resp, err := s.conversationResponse(viewerID, conversation)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return resp, nil
}

// SendMessage persists the message as sent, then promotes it to
// delivered right away when the recipient is connected. Offline
// recipients get a push instead.
func (s *chatService) SendMessage(senderID uint, conversationID uuid.UUID, body string) (*models.Message, *apiError.Error) {
	if body == "" {
		return nil, apiError.New("message cannot be empty", http.StatusBadRequest)
	}

	conversation, apiErr := s.participantConversation(senderID, conversationID)
	if apiErr != nil {
		return nil, apiErr
	}
	recipientID := conversation.CounterpartOf(senderID)

	interaction, err := s.interactionRepo.GetInteraction(senderID, recipientID)
	if err != nil {
		s.log.Error("looking up interaction failed", zap.Uint("sender_id", senderID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if interaction != nil && interaction.Locked() {
		return nil, apiError.New("you can no longer message this person", http.StatusForbidden)
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		Status:         models.StatusSent,
	}
	if err := s.chatRepo.CreateMessage(message); err != nil {
		s.log.Error("saving message failed", zap.Uint("sender_id", senderID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	if s.broadcaster.DeliverMessage(recipientID, message) {
		if message.Status.CanTransition(models.StatusDelivered) {
			if err := s.chatRepo.UpdateMessageStatus(message.ID, models.StatusDelivered); err != nil {
				s.log.Error("promoting message to delivered failed", zap.String("message_id", message.ID.String()), zap.Error(err))
			} else {
				message.Status = models.StatusDelivered
				s.broadcaster.NotifyDelivery(senderID, conversationID, []uuid.UUID{message.ID}, models.StatusDelivered)
			}
		}
	} else if sender, err := s.authRepo.FindUserByID(senderID); err == nil {
		s.notifier.NotifyUser(recipientID, fmt.Sprintf("%s sent you a message", sender.Fullname))
	}

	return message, nil
}

// ListMessages returns the conversation history oldest first. Fetching
// counts as receiving, so anything still sent flips to delivered and
// the counterpart is told.
func (s *chatService) ListMessages(viewerID uint, conversationID uuid.UUID, limit int) ([]models.Message, *apiError.Error) {
	conversation, apiErr := s.participantConversation(viewerID, conversationID)
	if apiErr != nil {
		return nil, apiErr
	}

	changed, err := s.chatRepo.MarkDelivered(conversationID, viewerID)
	if err != nil {
		s.log.Error("marking messages delivered failed", zap.String("conversation_id", conversationID.String()), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if changed > 0 {
		s.broadcaster.NotifyDelivery(conversation.CounterpartOf(viewerID), conversationID, nil, models.StatusDelivered)
	}

	messages, err := s.chatRepo.ListMessages(conversationID, limit)
	if err != nil {
		s.log.Error("listing messages failed", zap.String("conversation_id", conversationID.String()), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	return messages, nil
}

// MarkRead flips every counterpart message still in flight to read and
// pushes the receipt back to its sender. Returns how many changed.
func (s *chatService) MarkRead(readerID uint, conversationID uuid.UUID) (int, *apiError.Error) {
	conversation, apiErr := s.participantConversation(readerID, conversationID)
	if apiErr != nil {
		return 0, apiErr
	}

	changed, err := s.chatRepo.MarkConversationRead(conversationID, readerID)
	if err != nil {
		s.log.Error("marking conversation read failed", zap.String("conversation_id", conversationID.String()), zap.Error(err))
		return 0, apiError.ErrInternalServerError
	}
	if len(changed) > 0 {
		s.broadcaster.NotifyDelivery(conversation.CounterpartOf(readerID), conversationID, changed, models.StatusRead)
	}
	return len(changed), nil
}

func (s *chatService) HandleTyping(userID uint, conversationID uuid.UUID, typing bool) *apiError.Error {
	conversation, apiErr := s.participantConversation(userID, conversationID)
	if apiErr != nil {
		return apiErr
	}

	if typing {
		s.broadcaster.HandleTyping(conversationID, userID, conversation.CounterpartOf(userID))
	} else {
		s.broadcaster.StopTyping(conversationID, userID)
	}
	return nil
}

func (s *chatService) participantConversation(userID uint, conversationID uuid.UUID) (*models.Conversation, *apiError.Error) {
	conversation, err := s.chatRepo.GetConversation(conversationID)
	if err != nil {
		return nil, apiError.New("conversation not found", http.StatusNotFound)
	}
	if !conversation.HasParticipant(userID) {
		return nil, apiError.New("you are not part of this conversation", http.StatusForbidden)
	}
	return conversation, nil
}

func (s *chatService) conversationResponse(viewerID uint, conversation *models.Conversation) (*models.ConversationResponse, error) {
	counterpart, err := s.authRepo.FindUserByID(conversation.CounterpartOf(viewerID))
	if err != nil {
		return nil, err
	}

	unread, err := s.chatRepo.CountUnread(conversation.ID, viewerID)
	if err != nil {
		return nil, err
	}

	return &models.ConversationResponse{
		ID:            conversation.ID,
		Counterpart:   models.NewUserResponse(counterpart),
		LastMessage:   conversation.LastMessage,
		LastMessageAt: conversation.LastMessageAt,
		Unread:        unread,
	}, nil
}
