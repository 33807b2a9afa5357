package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error carries a message safe to show to the client and the HTTP
// status it maps to.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrNotFound            = New("record not found", http.StatusNotFound)
	ErrUnauthorized        = New("sign in to continue", http.StatusUnauthorized)
	ErrInvalidPassword     = New("email or password incorrect", http.StatusUnauthorized)
	InActiveUserError      = New("this account is not active", http.StatusUnauthorized)
	ErrUpstreamFailed      = New("we could not reach the network, try again shortly", http.StatusBadGateway)
	ErrQuotaExceeded       = New("you have hit today's limit, come back tomorrow", http.StatusTooManyRequests)
)

func (e *Error) Error() string {
	return fmt.Sprintf("message: %v, status: %v", e.Message, e.Status)
}

func New(message string, status int) *Error {
	return &Error{Message: message, Status: status}
}

// GetUniqueContraintError maps a postgres unique violation to the
// field the client will recognise.
func GetUniqueContraintError(err error) *Error {
	if strings.Contains(err.Error(), "email") {
		return New("user with this email already exists", http.StatusConflict)
	}
	if strings.Contains(err.Error(), "handle") {
		return New("this handle is already taken", http.StatusConflict)
	}
	return New("duplicate record", http.StatusConflict)
}

// ErrorHandler responds to requests rejected by the rate limiter.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"errors": fmt.Sprintf("too many requests, try again in %s", time.Until(info.ResetTime).Round(time.Second)),
	})
}
