package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/icebreakerhq/icebreaker/server/response"
)

func (s *Server) handleWave() gin.HandlerFunc {
	return s.sendInteraction(models.KindWave)
}

func (s *Server) handleIntro() gin.HandlerFunc {
	return s.sendInteraction(models.KindIntro)
}

func (s *Server) handlePass() gin.HandlerFunc {
	return s.sendInteraction(models.KindPass)
}

func (s *Server) handleBlock() gin.HandlerFunc {
	return s.sendInteraction(models.KindBlock)
}

func (s *Server) sendInteraction(kind models.InteractionKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		// The note is optional, most waves come without a body.
		var req models.InteractionRequest
		if c.Request.ContentLength > 0 {
			if err := decode(c, &req); err != nil {
				response.JSON(c, "", http.StatusBadRequest, nil, err)
				return
			}
		}

		connection, apiErr := s.InteractionService.SendInteraction(userID, c.Param("handle"), kind, req.Message)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, string(kind)+" recorded", http.StatusOK, connection, nil)
	}
}

func (s *Server) handleAccept() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		connection, apiErr := s.InteractionService.AcceptInteraction(userID, c.Param("handle"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "invitation accepted", http.StatusOK, connection, nil)
	}
}

func (s *Server) handleGetConnectionStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		connection, apiErr := s.InteractionService.GetConnectionStatus(userID, c.Param("handle"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "connection status retrieved", http.StatusOK, connection, nil)
	}
}

func (s *Server) handleListReceived() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		received, err := s.InteractionService.ListReceivedInteractions(userID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "received interactions retrieved", http.StatusOK, received, nil)
	}
}

func (s *Server) handleListMatches() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		matches, err := s.InteractionService.ListMatches(userID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "matches retrieved", http.StatusOK, matches, nil)
	}
}
