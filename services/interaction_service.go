package services

import (
	"fmt"
	"net/http"

	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	apiError "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"go.uber.org/zap"
)

// InteractionService owns the single live record between any two
// members: waves, intros, passes, blocks and the accept step that
// turns a wave or intro into a conversation.
type InteractionService interface {
	SendInteraction(actorID uint, counterpartHandle string, kind models.InteractionKind, message string) (*models.ConnectionResponse, *apiError.Error)
	AcceptInteraction(actorID uint, counterpartHandle string) (*models.ConnectionResponse, *apiError.Error)
	GetConnectionStatus(viewerID uint, counterpartHandle string) (*models.ConnectionResponse, *apiError.Error)
	ListReceivedInteractions(viewerID uint) ([]models.ConnectionResponse, error)
	ListMatches(viewerID uint) ([]models.ConnectionResponse, error)
}

type interactionService struct {
	Config          *config.Config
	interactionRepo db.InteractionRepository
	authRepo        db.AuthRepository
	chatRepo        db.ChatRepository
	notifier        NotificationService
	log             *zap.Logger
}

func NewInteractionService(interactionRepo db.InteractionRepository, authRepo db.AuthRepository, chatRepo db.ChatRepository, notifier NotificationService, conf *config.Config, log *zap.Logger) InteractionService {
	return &interactionService{
		Config:          conf,
		interactionRepo: interactionRepo,
		authRepo:        authRepo,
		chatRepo:        chatRepo,
		notifier:        notifier,
		log:             log,
	}
}

func (s *interactionService) SendInteraction(actorID uint, counterpartHandle string, kind models.InteractionKind, message string) (*models.ConnectionResponse, *apiError.Error) {
	if !kind.Valid() || kind == models.KindConversation {
		return nil, apiError.New("unknown interaction", http.StatusBadRequest)
	}

	counterpart, apiErr := s.findCounterpart(actorID, counterpartHandle)
	if apiErr != nil {
		return nil, apiErr
	}

	existing, err := s.interactionRepo.GetInteraction(actorID, counterpart.ID)
	if err != nil {
		s.log.Error("looking up interaction failed", zap.Uint("actor_id", actorID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if existing != nil && !existing.CanOverwrite(actorID) {
		return nil, apiError.New("you cannot interact with this person right now", http.StatusForbidden)
	}

	// A pass or block never carries a note.
	if kind == models.KindPass || kind == models.KindBlock {
		message = ""
	}

	saved, err := s.interactionRepo.UpsertInteraction(actorID, counterpart.ID, kind, message)
	if err != nil {
		s.log.Error("saving interaction failed", zap.Uint("actor_id", actorID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	if kind == models.KindWave || kind == models.KindIntro {
		s.notifyInteraction(actorID, counterpart.ID, kind)
	}

	return s.connectionResponse(actorID, counterpart, saved), nil
}

// AcceptInteraction turns a wave or intro waiting on the actor into an
// open conversation. Accepting your own wave is not a thing.
func (s *interactionService) AcceptInteraction(actorID uint, counterpartHandle string) (*models.ConnectionResponse, *apiError.Error) {
	counterpart, apiErr := s.findCounterpart(actorID, counterpartHandle)
	if apiErr != nil {
		return nil, apiErr
	}

	existing, err := s.interactionRepo.GetInteraction(actorID, counterpart.ID)
	if err != nil {
		s.log.Error("looking up interaction failed", zap.Uint("actor_id", actorID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if existing == nil || (existing.Kind != models.KindWave && existing.Kind != models.KindIntro) {
		return nil, apiError.New("there is nothing to accept from this person", http.StatusBadRequest)
	}
	if existing.ActorID == actorID {
		return nil, apiError.New("you cannot accept your own invitation", http.StatusBadRequest)
	}

	saved, err := s.interactionRepo.UpsertInteraction(actorID, counterpart.ID, models.KindConversation, "")
	if err != nil {
		s.log.Error("saving interaction failed", zap.Uint("actor_id", actorID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	if _, err := s.chatRepo.FirstOrCreateConversation(actorID, counterpart.ID); err != nil {
		s.log.Error("opening conversation failed", zap.Uint("actor_id", actorID), zap.Uint("counterpart_id", counterpart.ID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	if actor, err := s.authRepo.FindUserByID(actorID); err == nil {
		s.notifier.NotifyUser(counterpart.ID, fmt.Sprintf("%s accepted your invitation, say hi!", actor.Fullname))
	}

	return s.connectionResponse(actorID, counterpart, saved), nil
}

func (s *interactionService) GetConnectionStatus(viewerID uint, counterpartHandle string) (*models.ConnectionResponse, *apiError.Error) {
	counterpart, apiErr := s.findCounterpart(viewerID, counterpartHandle)
	if apiErr != nil {
		return nil, apiErr
	}

	interaction, err := s.interactionRepo.GetInteraction(viewerID, counterpart.ID)
	if err != nil {
		s.log.Error("looking up interaction failed", zap.Uint("viewer_id", viewerID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}

	return s.connectionResponse(viewerID, counterpart, interaction), nil
}

func (s *interactionService) ListReceivedInteractions(viewerID uint) ([]models.ConnectionResponse, error) {
	interactions, err := s.interactionRepo.ListReceived(viewerID)
	if err != nil {
		return nil, err
	}
	return s.expandCounterparts(viewerID, interactions), nil
}

func (s *interactionService) ListMatches(viewerID uint) ([]models.ConnectionResponse, error) {
	interactions, err := s.interactionRepo.ListConnections(viewerID)
	if err != nil {
		return nil, err
	}
	return s.expandCounterparts(viewerID, interactions), nil
}

func (s *interactionService) findCounterpart(actorID uint, handle string) (*models.User, *apiError.Error) {
	counterpart, err := s.authRepo.FindUserByHandle(handle)
	if err != nil {
		return nil, apiError.New("user not found", http.StatusNotFound)
	}
	if counterpart.ID == actorID {
		return nil, apiError.New("you cannot interact with yourself", http.StatusBadRequest)
	}
	return counterpart, nil
}

func (s *interactionService) connectionResponse(viewerID uint, counterpart *models.User, interaction *models.Interaction) *models.ConnectionResponse {
	status := models.ResolveConnection(viewerID, interaction)
	resp := &models.ConnectionResponse{
		Counterpart: models.NewUserResponse(counterpart),
		Status:      status,
		CanInteract: status.CanInteract(),
	}
	if interaction != nil {
		resp.Message = interaction.Message
	}
	return resp
}

// expandCounterparts swaps each raw pair record for the face the
// viewer should see. Rows whose counterpart is gone are skipped.
func (s *interactionService) expandCounterparts(viewerID uint, interactions []models.Interaction) []models.ConnectionResponse {
	responses := make([]models.ConnectionResponse, 0, len(interactions))
	for i := range interactions {
		counterpartID := interactions[i].Counterpart(viewerID)
		counterpart, err := s.authRepo.FindUserByID(counterpartID)
		if err != nil {
			s.log.Warn("skipping interaction, counterpart not found", zap.Uint("counterpart_id", counterpartID), zap.Error(err))
			continue
		}
		responses = append(responses, *s.connectionResponse(viewerID, counterpart, &interactions[i]))
	}
	return responses
}

func (s *interactionService) notifyInteraction(actorID, counterpartID uint, kind models.InteractionKind) {
	actor, err := s.authRepo.FindUserByID(actorID)
	if err != nil {
		return
	}
	switch kind {
	case models.KindWave:
		s.notifier.NotifyUser(counterpartID, fmt.Sprintf("%s waved at you", actor.Fullname))
	case models.KindIntro:
		s.notifier.NotifyUser(counterpartID, fmt.Sprintf("%s sent you an intro", actor.Fullname))
	}
}
