package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	errs "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/icebreakerhq/icebreaker/server/response"
)

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		user, err := s.AuthService.GetUserProfile(userID)
		if err != nil {
			response.JSON(c, "", http.StatusNotFound, nil, errs.New("user not found", http.StatusNotFound))
			return
		}
		response.JSON(c, "profile retrieved", http.StatusOK, user, nil)
	}
}

func (s *Server) handleGetMemberProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		candidate, err := s.DiscoverService.GetCandidate(userID, c.Param("handle"))
		if err != nil {
			response.JSON(c, "", http.StatusNotFound, nil, errs.New("user not found", http.StatusNotFound))
			return
		}
		response.JSON(c, "profile retrieved", http.StatusOK, candidate, nil)
	}
}

func (s *Server) handleEditUserProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var userDetails models.EditProfileRequest
		if err := decode(c, &userDetails); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if err := s.AuthService.EditUserProfile(userID, &userDetails); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		response.JSON(c, "profile updated", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUpdateLocation() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var req models.UpdateLocationRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if err := s.AuthService.UpdateUserLocation(userID, &req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		response.JSON(c, "location updated", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUploadProfilePhoto() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		fileHeader, err := c.FormFile("photo")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("photo file is required", http.StatusBadRequest))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		photo, err := s.MediaService.UploadProfilePhoto(userID, file, fileHeader)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		response.JSON(c, "photo uploaded", http.StatusCreated, photo, nil)
	}
}

func (s *Server) handleListProfilePhotos() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		photos, err := s.MediaService.ListProfilePhotos(userID)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "photos retrieved", http.StatusOK, photos, nil)
	}
}

func (s *Server) handleDeleteProfilePhoto() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		photoID, err := strconv.ParseUint(c.Param("photoID"), 10, 64)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("invalid photo id", http.StatusBadRequest))
			return
		}

		if err := s.MediaService.DeleteProfilePhoto(userID, uint(photoID)); err != nil {
			response.JSON(c, "", http.StatusNotFound, nil, err)
			return
		}
		response.JSON(c, "photo deleted", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleListInterests() gin.HandlerFunc {
	return func(c *gin.Context) {
		interests, err := s.AuthRepository.ListInterests()
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		response.JSON(c, "interests retrieved", http.StatusOK, interests, nil)
	}
}
