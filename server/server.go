package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	"github.com/icebreakerhq/icebreaker/mailingservices"
	"github.com/icebreakerhq/icebreaker/realtime"
	"github.com/icebreakerhq/icebreaker/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	Config                  *config.Config
	Mail                    mailingservices.MailService
	Logger                  *zap.Logger
	Hub                     *realtime.Hub
	AuthRepository          db.AuthRepository
	AuthService             services.AuthService
	InteractionRepository   db.InteractionRepository
	InteractionService      services.InteractionService
	ChatRepository          db.ChatRepository
	ChatService             services.ChatService
	MediaRepository         db.MediaRepository
	MediaService            services.MediaService
	NotificationRepository  db.NotificationRepository
	NotificationService     services.NotificationService
	DiscoverService         services.DiscoverService
	AssistService           services.AssistService
	RedisClient             *redis.Client
	DB                      db.GormDB
}

// Start runs the HTTP server until an interrupt, then drains open
// requests and the websocket hub before returning.
func (s *Server) Start() {
	r := s.setupRouter()

	port := s.Config.Port
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		s.Logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			s.Logger.Error("server shutdown failed", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	s.Logger.Info("starting HTTP server", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		s.Logger.Fatal("listen failed", zap.Error(err))
	}

	<-idleConnsClosed

	if s.Hub != nil {
		s.Hub.Stop()
	}
	s.Logger.Info("HTTP server stopped")
}

func decode(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return err
	}
	return nil
}
