package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/server/response"
)

func (s *Server) handleSuggestOpeners() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		openers, apiErr := s.AssistService.SuggestOpeners(userID, c.Param("handle"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "openers suggested", http.StatusOK, gin.H{"openers": openers}, nil)
	}
}

func (s *Server) handleCompatibility() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		blurb, apiErr := s.AssistService.Compatibility(userID, c.Param("handle"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "compatibility retrieved", http.StatusOK, gin.H{"compatibility": blurb}, nil)
	}
}

func (s *Server) handleSuggestReplies() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conversationID, err := uuid.Parse(c.Param("conversationID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid conversation id", http.StatusBadRequest))
			return
		}

		replies, apiErr := s.AssistService.SuggestReplies(userID, conversationID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "replies suggested", http.StatusOK, gin.H{"replies": replies}, nil)
	}
}
