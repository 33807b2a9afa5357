package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	errs "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/server/response"
)

func (s *Server) handleDiscover() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		limit, _ := strconv.Atoi(c.Query("limit"))
		radius, _ := strconv.ParseFloat(c.Query("radius"), 64)

		candidates, err := s.DiscoverService.ListCandidates(userID, limit, radius)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "candidates retrieved", http.StatusOK, candidates, nil)
	}
}
