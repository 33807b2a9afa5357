package main

import (
	"context"
	"log"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/icebreakerhq/icebreaker/config"
	"github.com/icebreakerhq/icebreaker/db"
	"github.com/icebreakerhq/icebreaker/mailingservices"
	"github.com/icebreakerhq/icebreaker/realtime"
	"github.com/icebreakerhq/icebreaker/server"
	"github.com/icebreakerhq/icebreaker/services"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// initFirebase returns nil when no credentials are present, pushes are
// skipped in that case.
func initFirebase(conf *config.Config, logger *zap.Logger) *messaging.Client {
	credentials := conf.GoogleApplicationCredentials
	if credentials == "" {
		credentials = "./google-services.json"
	}

	opt := option.WithCredentialsFile(credentials)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		logger.Warn("firebase unavailable, push notifications disabled", zap.Error(err))
		return nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		logger.Warn("firebase messaging unavailable, push notifications disabled", zap.Error(err))
		return nil
	}
	logger.Info("firebase messaging initialized")
	return client
}

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var logger *zap.Logger
	if conf.Env == "prod" || conf.Env == "release" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	messagingClient := initFirebase(conf, logger)

	mailgunClient := &mailingservices.Mailgun{}
	mailgunClient.Init()

	gormDB := db.GetDB(conf)
	redisClient := db.GetRedis(conf)

	authRepo := db.NewAuthRepo(gormDB)
	interactionRepo := db.NewInteractionRepo(gormDB)
	chatRepo := db.NewChatRepo(gormDB)
	mediaRepo := db.NewMediaRepo(gormDB)
	notificationRepo := db.NewNotificationRepo(gormDB)

	hub := realtime.NewHub(logger)

	notificationService := services.NewNotificationService(notificationRepo, messagingClient, logger)
	authService := services.NewAuthService(authRepo, conf, logger)
	interactionService := services.NewInteractionService(interactionRepo, authRepo, chatRepo, notificationService, conf, logger)
	chatService := services.NewChatService(chatRepo, interactionRepo, authRepo, hub, notificationService, conf, logger)
	mediaService := services.NewMediaService(mediaRepo, authRepo, conf, logger)
	discoverService := services.NewDiscoverService(authRepo, conf, logger)
	assistService := services.NewAssistService(authRepo, interactionRepo, chatRepo, redisClient, conf, logger)

	// Presence changes seen by the hub land in the users table too.
	hub.OnPresence = authService.SetPresence

	s := &server.Server{
		Mail:                   mailgunClient,
		Config:                 conf,
		Logger:                 logger,
		Hub:                    hub,
		AuthRepository:         authRepo,
		AuthService:            authService,
		InteractionRepository:  interactionRepo,
		InteractionService:     interactionService,
		ChatRepository:         chatRepo,
		ChatService:            chatService,
		MediaRepository:        mediaRepo,
		MediaService:           mediaService,
		NotificationRepository: notificationRepo,
		NotificationService:    notificationService,
		DiscoverService:        discoverService,
		AssistService:          assistService,
		RedisClient:            redisClient,
		DB:                     db.GormDB{},
	}

	s.Start()
}
