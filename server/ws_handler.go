package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/realtime"
	"github.com/icebreakerhq/icebreaker/server/response"
	"go.uber.org/zap"
)

func (s *Server) handleWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		s.Hub.ServeWS(c.Writer, c.Request, userID, s.routeEvent)
	}
}

// routeEvent dispatches one inbound socket frame. Whatever the REST
// flow would have rejected comes back as an error event instead of a
// status code.
func (s *Server) routeEvent(userID uint, ev realtime.Event) {
	switch ev.Type {
	case realtime.EventSendMessage:
		var payload realtime.SendMessagePayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			s.Hub.SendError(userID, "that message could not be read")
			return
		}
		message, apiErr := s.ChatService.SendMessage(userID, payload.ConversationID, payload.Body)
		if apiErr != nil {
			s.Hub.SendError(userID, apiErr.Message)
			return
		}
		// Echo the stored message back so the sender's optimistic
		// bubble picks up the real id and status.
		s.Hub.DeliverMessage(userID, message)

	case realtime.EventTypingSignal:
		var payload realtime.TypingSignalPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return
		}
		if apiErr := s.ChatService.HandleTyping(userID, payload.ConversationID, payload.Typing); apiErr != nil {
			s.Hub.SendError(userID, apiErr.Message)
		}

	case realtime.EventMarkRead:
		var payload realtime.MarkReadPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return
		}
		if _, apiErr := s.ChatService.MarkRead(userID, payload.ConversationID); apiErr != nil {
			s.Hub.SendError(userID, apiErr.Message)
		}

	default:
		s.Logger.Debug("unknown socket event", zap.String("type", ev.Type), zap.Uint("user_id", userID))
	}
}
