package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	authpb "gathering-service/pb/auth"
	profilepb "gathering-service/pb/profile"

	"gathering-service/internal/db"
	grpcclient "gathering-service/internal/grpc"
	"gathering-service/internal/handlers"
	"gathering-service/internal/middleware"
	"gathering-service/internal/observability"
	"gathering-service/internal/rabbitmq"
	"gathering-service/internal/repositories"
	"gathering-service/internal/telemetry"
	"gathering-service/internal/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracer, err := observability.InitTracer(ctx, "gathering-service", getEnv("OTLP_ENDPOINT", ""))
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	authAddr := getEnv("AUTH_GRPC_ADDR", "localhost:8084")
	profileAddr := getEnv("PROFILE_GRPC_ADDR", "localhost:8085")

	authConn, err := grpc.Dial(authAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	if err != nil {
		log.Fatalf("failed to connect to auth grpc: %v", err)
	}
	defer authConn.Close()

	profileConn, err := grpc.Dial(profileAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	if err != nil {
		log.Fatalf("failed to connect to profile grpc: %v", err)
	}
	defer profileConn.Close()

	authClient := grpcclient.NewAuthClient(authpb.NewAuthServiceClient(authConn))
	profileClient := grpcclient.NewProfileClient(profilepb.NewProfileServiceClient(profileConn))

	eventRepo := repositories.NewEventRepo(database)
	participationRepo := repositories.NewParticipationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "gathering.events"))
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.gathering", "gathering-service", getEnv("ENVIRONMENT", "dev"))

	hub := ws.NewHub()

	eventHandler := handlers.NewEventHandler(eventRepo, participationRepo, profileClient, hub, publisher)
	messageHandler := handlers.NewMessageHandler(messageRepo, eventRepo, profileClient)
	liveHandler := ws.NewHandler(hub, messageRepo, eventRepo, authClient, publisher)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("gathering-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authClient)

	router.POST("/events", authMiddleware, eventHandler.CreateEvent)
	router.GET("/events/managed", authMiddleware, eventHandler.ListManagedEvents)
	router.GET("/events/:event_id", authMiddleware, eventHandler.GetEvent)
	router.POST("/events/:event_id/join", authMiddleware, eventHandler.JoinEvent)
	router.POST("/events/:event_id/leave", authMiddleware, eventHandler.LeaveEvent)
	router.POST("/events/:event_id/accept-request", authMiddleware, eventHandler.AcceptRequest)
	router.POST("/events/:event_id/reject-request", authMiddleware, eventHandler.RejectRequest)

	router.GET("/messages/one-to-one/:recipient_id", authMiddleware, messageHandler.GetOneToOneMessages)
	router.GET("/messages/group/:event_id", authMiddleware, messageHandler.GetGroupMessages)
	router.POST("/messages/read", authMiddleware, messageHandler.MarkMessagesRead)
	router.GET("/messages/chats", authMiddleware, messageHandler.ListChats)

	router.GET("/ws", liveHandler.Handle)

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, gin.Mode() != gin.ReleaseMode)

	srv := &http.Server{
		Addr:    ":" + getEnv("PORT", "8083"),
		Handler: router,
	}

	go func() {
		log.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	hub.Shutdown()
	if err := publisher.Close(); err != nil {
		log.Printf("publisher close: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("tracer shutdown: %v", err)
	}
	if err := database.Close(); err != nil {
		log.Printf("db close: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
