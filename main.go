package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"community-chat-service/internal/config"
	"community-chat-service/internal/db"
	"community-chat-service/internal/handlers"
	"community-chat-service/internal/logging"
	"community-chat-service/internal/middleware"
	"community-chat-service/internal/moderation"
	"community-chat-service/internal/observability"
	"community-chat-service/internal/presence"
	"community-chat-service/internal/rabbitmq"
	"community-chat-service/internal/relay"
	"community-chat-service/internal/repositories"
	"community-chat-service/internal/telemetry"
	"community-chat-service/internal/ws"
)

const serviceName = "community-chat-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(cfg.Log.Level, cfg.Log.Pretty)

	ctx := context.Background()
	shutdownTracing, err := observability.InitTracing(ctx, serviceName, cfg.Otel.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown error")
		}
	}()

	database, err := db.Connect(cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange); err != nil {
		log.Warn().Err(err).Msg("ws event publishing disabled")
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer auditPublisher.Close()
	log.Info().
		Str("mode", rabbitmq.PublisherMode(auditPublisher)).
		Str("reason", rabbitmq.PublisherNoopReason(auditPublisher)).
		Msg("audit publisher ready")
	audit := telemetry.NewAuditEmitter(auditPublisher, cfg.AMQP.AuditRoutingKey, serviceName, gin.Mode())

	messageRepo := repositories.NewMessageRepo(database)
	moderationRepo := repositories.NewModerationRepo(database)

	registry := presence.NewRegistry()
	hub := ws.NewHub()
	gate := moderation.NewGate(moderationRepo)
	chatRelay := relay.NewRelay(registry, messageRepo, moderationRepo, gate, hub, audit)

	historyHandler := handlers.NewHistoryHandler(messageRepo)
	moderationHandler := handlers.NewModerationHandler(chatRelay)
	session := ws.NewSessionHandler(hub, chatRelay)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/chat/messages", historyHandler.GetRecentHistory)

	moderator := router.Group("/", middleware.IdentityMiddleware(), middleware.RequireModerator())
	moderator.POST("/chat/participants/:participant_id/ban", moderationHandler.SetBanned)
	moderator.POST("/chat/participants/:participant_id/timeout", moderationHandler.SetTimeout)
	moderator.DELETE("/chat/messages/:message_id", moderationHandler.DeleteMessage)
	moderator.DELETE("/chat/messages", moderationHandler.ClearHistory)

	router.GET("/ws/chat", session.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.Debug.Routes)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("starting server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
