package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 16 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	resetStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Minute, Limit: 3})
	limitReset := limitRateForPasswordReset(resetStore)

	var assistStore ratelimit.Store
	if s.RedisClient != nil {
		assistStore = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: s.RedisClient,
			Rate:        time.Hour,
			Limit:       30,
		})
	} else {
		assistStore = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Hour, Limit: 30})
	}
	limitAssist := limitRateForAssist(assistStore)

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", s.handleLogin())
	apirouter.GET("/google/login", s.HandleGoogleLogin())
	apirouter.GET("/auth/google/callback", s.HandleGoogleCallback())
	apirouter.POST("/password/forgot", limitReset, s.HandleForgotPassword())
	apirouter.POST("/password/reset/:token", s.ResetPassword())
	apirouter.GET("/interests", s.handleListInterests())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/logout", s.handleLogout())
	authorized.GET("/me", s.handleShowProfile())
	authorized.PUT("/me/updateUserProfile", s.handleEditUserProfile())
	authorized.PUT("/me/location", s.handleUpdateLocation())
	authorized.GET("/me/photos", s.handleListProfilePhotos())
	authorized.POST("/me/photos", s.handleUploadProfilePhoto())
	authorized.DELETE("/me/photos/:photoID", s.handleDeleteProfilePhoto())
	authorized.GET("/users/online", s.handleGetOnlineUsers())
	authorized.GET("/users/:handle", s.handleGetMemberProfile())
	authorized.GET("/discover", s.handleDiscover())

	authorized.POST("/interactions/:handle/wave", s.handleWave())
	authorized.POST("/interactions/:handle/intro", s.handleIntro())
	authorized.POST("/interactions/:handle/pass", s.handlePass())
	authorized.POST("/interactions/:handle/block", s.handleBlock())
	authorized.POST("/interactions/:handle/accept", s.handleAccept())
	authorized.GET("/interactions/:handle/status", s.handleGetConnectionStatus())
	authorized.GET("/interactions/received", s.handleListReceived())
	authorized.GET("/matches", s.handleListMatches())

	authorized.GET("/conversations", s.handleListConversations())
	authorized.GET("/conversations/with/:handle", s.handleGetConversationWith())
	authorized.GET("/conversations/:conversationID/messages", s.handleListMessages())
	authorized.POST("/conversations/:conversationID/messages", s.handleSendMessage())
	authorized.POST("/conversations/:conversationID/read", s.handleMarkConversationRead())
	authorized.POST("/conversations/:conversationID/typing", s.handleTyping())

	authorized.GET("/assist/:handle/openers", limitAssist, s.handleSuggestOpeners())
	authorized.GET("/assist/:handle/compatibility", limitAssist, s.handleCompatibility())
	authorized.GET("/conversations/:conversationID/replies", limitAssist, s.handleSuggestReplies())

	authorized.GET("/notifications", s.handleListNotifications())
	authorized.POST("/notifications/read", s.handleMarkNotificationsRead())
	authorized.POST("/notifications/device", s.handleRegisterDeviceToken())
	authorized.DELETE("/notifications/device", s.handleUnregisterDeviceToken())

	authorized.GET("/ws", s.handleWS())
}
