package main

import (
	"log"

	"github.com/auditflow/task-audit-api/internal/config"
	"github.com/auditflow/task-audit-api/internal/constants"
	"github.com/auditflow/task-audit-api/internal/database"
	"github.com/auditflow/task-audit-api/internal/handlers"
	"github.com/auditflow/task-audit-api/internal/middleware"
	"github.com/auditflow/task-audit-api/internal/repository"
	"github.com/auditflow/task-audit-api/internal/services"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize repositories
	db := database.GetDB()
	taskRepo := repository.NewTaskRepository(db)
	instanceRepo := repository.NewTaskInstanceRepository(db)
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewNotificationSettingsRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, instanceRepo, userRepo, settingsRepo)
	instanceService := services.NewInstanceService(taskRepo, instanceRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	instanceHandler := handlers.NewInstanceHandler(instanceService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task Audit API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public except /me and /change-password)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.POST("/change-password", middleware.RequireAuth(), authHandler.ChangePassword)
		}

		// User administration routes (admin only)
		users := api.Group("/users")
		users.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.PATCH("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/escalated", taskHandler.ListEscalatedTasks)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), middleware.RequireAdmin(), taskHandler.DeleteTask)
			tasks.POST("/:id/generate-next-instance", middleware.RequireTaskAccess(), taskHandler.GenerateNextInstance)
			tasks.POST("/:id/escalate", middleware.RequireTaskAccess(), taskHandler.EscalateTask)
			tasks.DELETE("/:id/escalate", middleware.RequireTaskAccess(), middleware.RequireAdmin(), taskHandler.DeescalateTask)
			tasks.GET("/:id/notifications", middleware.RequireTaskAccess(), taskHandler.PreviewNotifications)
			tasks.PUT("/:id/notification-settings", middleware.RequireTaskAccess(), taskHandler.UpdateNotificationSettings)
			tasks.GET("/:id/instances", middleware.RequireTaskAccess(), instanceHandler.ListInstances)
		}

		// Instance workflow routes (protected)
		instances := api.Group("/instances")
		instances.Use(middleware.RequireAuth())
		{
			instances.GET("/:instanceId", instanceHandler.GetInstance)
			instances.POST("/:instanceId/submit", instanceHandler.Submit)
			instances.POST("/:instanceId/checker1-decision", instanceHandler.Checker1Decide)
			instances.POST("/:instanceId/checker2-decision", instanceHandler.Checker2Decide)
			instances.POST("/:instanceId/rework", instanceHandler.Rework)
			instances.POST("/:instanceId/comments", instanceHandler.AddComment)
			instances.POST("/:instanceId/attachments", instanceHandler.AddAttachment)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
