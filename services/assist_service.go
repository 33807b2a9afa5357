package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	apiError "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	assistTimeout      = 20 * time.Second
	compatCacheTTL     = 24 * time.Hour
	maxOpeners         = 3
	assistMaxTokens    = 300
	assistReplyContext = 12
)

// AssistService asks the language model for conversation help: opener
// suggestions, a short compatibility blurb for a pair of profiles, and
// reply ideas for a running conversation.
type AssistService interface {
	SuggestOpeners(viewerID uint, counterpartHandle string) ([]string, *apiError.Error)
	Compatibility(viewerID uint, counterpartHandle string) (string, *apiError.Error)
	SuggestReplies(viewerID uint, conversationID uuid.UUID) ([]string, *apiError.Error)
}

type assistService struct {
	Config          *config.Config
	authRepo        db.AuthRepository
	interactionRepo db.InteractionRepository
	chatRepo        db.ChatRepository
	redisClient     *redis.Client
	httpClient      *http.Client
	log             *zap.Logger
}

func NewAssistService(authRepo db.AuthRepository, interactionRepo db.InteractionRepository, chatRepo db.ChatRepository, redisClient *redis.Client, conf *config.Config, log *zap.Logger) AssistService {
	return &assistService{
		Config:          conf,
		authRepo:        authRepo,
		interactionRepo: interactionRepo,
		chatRepo:        chatRepo,
		redisClient:     redisClient,
		httpClient:      &http.Client{Timeout: assistTimeout},
		log:             log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *assistService) SuggestOpeners(viewerID uint, counterpartHandle string) ([]string, *apiError.Error) {
	viewer, counterpart, apiErr := a.loadPair(viewerID, counterpartHandle)
	if apiErr != nil {
		return nil, apiErr
	}

	prompt := fmt.Sprintf(
		"Suggest %d short, playful opening messages %s could send %s. One per line, no numbering.\n\n%s\n\n%s",
		maxOpeners, viewer.Fullname, counterpart.Fullname, describeProfile(viewer), describeProfile(counterpart),
	)

	text, apiErr := a.complete(prompt, 0.9)
	if apiErr != nil {
		return nil, apiErr
	}

	openers := splitOpeners(text)
	if len(openers) == 0 {
		return nil, apiError.ErrUpstreamFailed
	}
	return openers, nil
}

// Compatibility returns the blurb for the pair, serving yesterday's
// answer from redis when the profiles were already compared.
func (a *assistService) Compatibility(viewerID uint, counterpartHandle string) (string, *apiError.Error) {
	viewer, counterpart, apiErr := a.loadPair(viewerID, counterpartHandle)
	if apiErr != nil {
		return "", apiErr
	}

	lo, hi := models.NormalizePair(viewer.ID, counterpart.ID)
	cacheKey := fmt.Sprintf("compat:%d:%d", lo, hi)
	ctx := context.Background()

	if cached, err := a.redisClient.Get(ctx, cacheKey).Result(); err == nil {
		return cached, nil
	} else if err != redis.Nil {
		a.log.Warn("compat cache read failed", zap.String("key", cacheKey), zap.Error(err))
	}

	prompt := fmt.Sprintf(
		"In two sentences, describe what %s and %s might hit it off over. Be warm, concrete and a little playful.\n\n%s\n\n%s",
		viewer.Fullname, counterpart.Fullname, describeProfile(viewer), describeProfile(counterpart),
	)

	text, apiErr := a.complete(prompt, 0.7)
	if apiErr != nil {
		return "", apiErr
	}

	if err := a.redisClient.Set(ctx, cacheKey, text, compatCacheTTL).Err(); err != nil {
		a.log.Warn("compat cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return text, nil
}

// SuggestReplies drafts the viewer's next message from the recent tail
// of the conversation.
func (a *assistService) SuggestReplies(viewerID uint, conversationID uuid.UUID) ([]string, *apiError.Error) {
	conversation, err := a.chatRepo.GetConversation(conversationID)
	if err != nil {
		return nil, apiError.New("conversation not found", http.StatusNotFound)
	}
	if !conversation.HasParticipant(viewerID) {
		return nil, apiError.New("you are not part of this conversation", http.StatusForbidden)
	}
	counterpartID := conversation.CounterpartOf(viewerID)

	interaction, err := a.interactionRepo.GetInteraction(viewerID, counterpartID)
	if err != nil {
		a.log.Error("looking up interaction failed", zap.Uint("viewer_id", viewerID), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if interaction != nil && interaction.Locked() {
		return nil, apiError.New("you cannot interact with this person right now", http.StatusForbidden)
	}

	messages, err := a.chatRepo.ListRecentMessages(conversationID, assistReplyContext)
	if err != nil {
		a.log.Error("listing messages failed", zap.String("conversation_id", conversationID.String()), zap.Error(err))
		return nil, apiError.ErrInternalServerError
	}
	if len(messages) == 0 {
		return nil, apiError.New("there is nothing to reply to yet", http.StatusBadRequest)
	}

	viewer, err := a.authRepo.GetUserProfile(viewerID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	counterpart, err := a.authRepo.GetUserProfile(counterpartID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}

	var transcript strings.Builder
	for _, message := range messages {
		name := viewer.Fullname
		if message.SenderID == counterpartID {
			name = counterpart.Fullname
		}
		fmt.Fprintf(&transcript, "%s: %s\n", name, message.Body)
	}

	prompt := fmt.Sprintf(
		"This is a conversation between %s and %s. Suggest %d short replies %s could send next. One per line, no numbering.\n\n%s",
		viewer.Fullname, counterpart.Fullname, maxOpeners, viewer.Fullname, transcript.String(),
	)

	text, apiErr := a.complete(prompt, 0.9)
	if apiErr != nil {
		return nil, apiErr
	}

	replies := splitOpeners(text)
	if len(replies) == 0 {
		return nil, apiError.ErrUpstreamFailed
	}
	return replies, nil
}

func (a *assistService) loadPair(viewerID uint, counterpartHandle string) (*models.User, *models.User, *apiError.Error) {
	counterpart, err := a.authRepo.FindUserByHandle(counterpartHandle)
	if err != nil {
		return nil, nil, apiError.New("user not found", http.StatusNotFound)
	}
	if counterpart.ID == viewerID {
		return nil, nil, apiError.New("you cannot interact with yourself", http.StatusBadRequest)
	}

	interaction, err := a.interactionRepo.GetInteraction(viewerID, counterpart.ID)
	if err != nil {
		a.log.Error("looking up interaction failed", zap.Uint("viewer_id", viewerID), zap.Error(err))
		return nil, nil, apiError.ErrInternalServerError
	}
	if interaction != nil && interaction.Locked() {
		return nil, nil, apiError.New("you cannot interact with this person right now", http.StatusForbidden)
	}

	viewer, err := a.authRepo.GetUserProfile(viewerID)
	if err != nil {
		return nil, nil, apiError.ErrInternalServerError
	}
	full, err := a.authRepo.GetUserProfile(counterpart.ID)
	if err != nil {
		return nil, nil, apiError.ErrInternalServerError
	}
	return viewer, full, nil
}

func (a *assistService) complete(prompt string, temperature float64) (string, *apiError.Error) {
	reqBody := chatCompletionRequest{
		Model: a.Config.AssistModel,
		Messages: []chatMessage{
			{Role: "system", Content: "You help people on a dating app break the ice. Keep answers short and never mention you are an assistant."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   assistMaxTokens,
		Temperature: temperature,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", apiError.ErrInternalServerError
	}

	req, err := http.NewRequest(http.MethodPost, a.Config.AssistBaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", apiError.ErrInternalServerError
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.Config.AssistApiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.log.Warn("assist request failed", zap.Error(err))
		return "", apiError.ErrUpstreamFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", apiError.ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		a.log.Warn("assist request rejected", zap.Int("status", resp.StatusCode))
		return "", apiError.ErrUpstreamFailed
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		a.log.Warn("decoding assist response failed", zap.Error(err))
		return "", apiError.ErrUpstreamFailed
	}
	if len(completion.Choices) == 0 {
		return "", apiError.ErrUpstreamFailed
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func describeProfile(u *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %d, %s.", u.Fullname, u.Age(), u.Gender)
	if u.Bio != "" {
		fmt.Fprintf(&b, " Bio: %s.", u.Bio)
	}
	if len(u.Interests) > 0 {
		names := make([]string, 0, len(u.Interests))
		for _, interest := range u.Interests {
			names = append(names, interest.Name)
		}
		fmt.Fprintf(&b, " Into %s.", strings.Join(names, ", "))
	}
	return b.String()
}

// splitOpeners tolerates the model numbering or bulleting lines even
// when asked not to.
func splitOpeners(text string) []string {
	lines := strings.Split(text, "\n")
	openers := make([]string, 0, maxOpeners)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		openers = append(openers, line)
		if len(openers) == maxOpeners {
			break
		}
	}
	return openers
}
