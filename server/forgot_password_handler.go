package server

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	errs "github.com/icebreakerhq/icebreaker/errors"
	"github.com/icebreakerhq/icebreaker/models"
	"github.com/icebreakerhq/icebreaker/server/response"
	"github.com/icebreakerhq/icebreaker/services/jwt"
	"github.com/icebreakerhq/icebreaker/services/utils"
	"go.uber.org/zap"
)

func (s *Server) HandleForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var email models.ForgotPassword
		if err := decode(c, &email); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		user, err := s.AuthRepository.FindUserByEmail(email.Email)
		if err != nil || user == nil {
			response.JSON(c, "", http.StatusNotFound, nil, fmt.Errorf("user not found"))
			return
		}

		resetToken, err := jwt.GeneratePasswordResetToken(user.Email, s.Config.JWTSecret)
		if err != nil {
			response.JSON(c, "failed to generate reset token", http.StatusInternalServerError, nil, err)
			return
		}

		baseURL := s.Config.BaseUrl
		if baseURL == "" {
			baseURL = os.Getenv("BASE_URL")
		}
		if baseURL == "" {
			baseURL = "http://localhost:3002"
		}
		resetLink := fmt.Sprintf("%s/reset-password/%s", baseURL, resetToken)

		if _, err := s.Mail.SendResetPassword(user.Email, resetLink); err != nil {
			response.JSON(c, "connection to mail service interrupted", http.StatusInternalServerError, nil, err)
			return
		}

		response.JSON(c, "reset password link sent successfully", http.StatusOK, nil, nil)
	}
}

func (s *Server) ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var resetPassword models.ResetPassword
		if err := decode(c, &resetPassword); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if resetPassword.Password != resetPassword.ConfirmPassword {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New("passwords do not match", http.StatusBadRequest))
			return
		}
		if err := models.ValidatePassword(resetPassword.Password); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errs.New(err.Error(), http.StatusBadRequest))
			return
		}

		claims, err := jwt.VerifyResetToken(c.Param("token"), s.Config.JWTSecret)
		if err != nil {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("invalid or expired reset link", http.StatusUnauthorized))
			return
		}

		hashedPassword, err := utils.HashPassword(resetPassword.Password)
		if err != nil {
			s.Logger.Error("hashing password failed", zap.Error(err))
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		if err := s.AuthRepository.UpdatePassword(hashedPassword, claims.Email); err != nil {
			s.Logger.Error("updating password failed", zap.Error(err))
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		response.JSON(c, "password reset successfully", http.StatusOK, nil, nil)
	}
}
