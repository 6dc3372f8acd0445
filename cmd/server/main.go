package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"municipal-planning-collab/internal/access"
	"municipal-planning-collab/internal/activity"
	"municipal-planning-collab/internal/comment"
	"municipal-planning-collab/internal/config"
	"municipal-planning-collab/internal/db"
	"municipal-planning-collab/internal/engine"
	"municipal-planning-collab/internal/middleware"
	"municipal-planning-collab/internal/notification"
	"municipal-planning-collab/internal/plan"
	"municipal-planning-collab/internal/push"
	"municipal-planning-collab/internal/session"
	"municipal-planning-collab/internal/user"
	"municipal-planning-collab/internal/worker"
	"municipal-planning-collab/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	db.SeedData()

	// Initialize Redis cache
	cache := redis.NewCache(config.AppConfig.RedisAddress)

	// Worker pool for best-effort background writes
	pool := worker.NewWorkerPool(4)
	defer pool.Shutdown()

	// One engine per process, injected everywhere it's needed
	collabEngine := engine.New(time.Duration(config.AppConfig.PresenceIdleSeconds) * time.Second)

	// Push gateway client listens on engine events
	pushClient := push.NewClient(config.AppConfig.PushGatewayAddress, config.AppConfig.PushGatewaySecret)
	pushClient.Register(collabEngine, pool)

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	planRepo := plan.NewRepository(db.AppDb)
	commentRepo := comment.NewRepository(db.AppDb)
	notificationRepo := notification.NewRepository(db.AppDb)
	activityRepo := activity.NewRepository(db.AppDb)
	accessRepo := access.NewRepository(db.AppDb)

	// Initialize services
	guard := access.NewGuard(accessRepo)
	userService := user.NewService(userRepo)
	planService := plan.NewService(planRepo, guard, userService, cache)
	notificationService := notification.NewService(notificationRepo, cache)
	activityService := activity.NewService(activityRepo)
	commentService := comment.NewService(commentRepo, guard, userService, notificationService, activityService, collabEngine)
	sessionService := session.NewService(collabEngine, guard, userService, activityService, pool)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	planHandler := plan.NewHandler(planService)
	commentHandler := comment.NewHandler(commentService)
	notificationHandler := notification.NewHandler(notificationService)
	activityHandler := activity.NewHandler(activityService)
	sessionHandler := session.NewHandler(sessionService)

	authMiddleware := &middleware.Auth{
		UserService:    userService,
		InternalSecret: config.AppConfig.InternalSecret,
	}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-User-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// Account routes (JWT, served to browsers through the gateway)
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.POST("/refresh", userHandler.RefreshToken)
	router.DELETE("/logout", authMiddleware.JWTAuth(), userHandler.Logout)
	router.GET("/profile", authMiddleware.JWTAuth(), userHandler.GetProfile)
	router.GET("/users", authMiddleware.JWTAuth(), userHandler.SearchUsers)

	// Plan routes
	plans := router.Group("/plans", authMiddleware.Identity())
	plans.POST("", planHandler.Create)
	plans.GET("", planHandler.List)
	plans.GET("/:id", planHandler.Show)
	plans.PATCH("/:id/status", planHandler.ChangeStatus)
	plans.POST("/:id/goals", planHandler.CreateGoal)
	plans.GET("/:id/goals", planHandler.ListGoals)
	plans.GET("/:id/collaborators", planHandler.ListCollaborators)
	plans.POST("/:id/collaborators", planHandler.AddCollaborator)
	plans.DELETE("/:id/collaborators/:userId", planHandler.RemoveCollaborator)

	// Collaboration routes (identity injected by the upstream gateway)
	collab := router.Group("/collaboration", authMiddleware.Identity())
	collab.POST("/sessions", sessionHandler.Action)
	collab.GET("/sessions", sessionHandler.Participants)
	collab.DELETE("/sessions", sessionHandler.End)
	collab.GET("/comments", commentHandler.List)
	collab.POST("/comments", commentHandler.Create)
	collab.PATCH("/comments/:id", commentHandler.Update)
	collab.DELETE("/comments/:id", commentHandler.Delete)
	collab.GET("/activity", activityHandler.Feed)
	collab.POST("/activity", activityHandler.Create)
	collab.PUT("/activity", activityHandler.Analytics)
	collab.GET("/notifications", notificationHandler.List)
	collab.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	collab.PATCH("/notifications/:id", notificationHandler.MarkRead)
	collab.DELETE("/notifications/:id", notificationHandler.Delete)

	// Internal routes (service-to-service, shared-secret auth)
	internalGroup := router.Group("/internal", authMiddleware.InternalAuthMiddleware())
	internalGroup.POST("/notifications", notificationHandler.CreateInternal)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
