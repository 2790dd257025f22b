package main

import (
	"context"
	"log"
	"os"

	_ "reviewboard/api/swagger" // swagger docs
	"reviewboard/internal/database"
	"reviewboard/internal/handler"
	"reviewboard/internal/middleware"
	"reviewboard/internal/repository"
	"reviewboard/internal/service"
	"reviewboard/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Company Review API
// @version         1.0
// @description     API for company reviews with role-based access control and moderation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// REVIEW_MODERATION=strict holds new reviews in pending until approved
	moderated := os.Getenv("REVIEW_MODERATION") == "strict"

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authzService := service.NewAuthzService(roleRepo)
	roleService := service.NewRoleService(roleRepo, auditRepo, txManager)
	userService := service.NewUserService(userRepo, roleRepo)
	companyService := service.NewCompanyService(companyRepo, auditRepo, txManager, authzService)
	reviewService := service.NewReviewService(reviewRepo, replyRepo, companyRepo, auditRepo, txManager, authzService, moderated)
	moderationService := service.NewModerationService(reviewRepo, auditRepo, txManager, authzService, wsHub)
	voteService := service.NewVoteService(reviewRepo, voteRepo, auditRepo, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo, authzService)
	statisticsService := service.NewStatisticsService(db)

	// Built-in roles and the permission catalogue must exist before any
	// authorization check runs
	if err := roleService.SeedBuiltinRoles(context.Background()); err != nil {
		log.Fatalf("Seeding built-in roles failed: %v", err)
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, authzService)
	roleHandler := handler.NewRoleHandler(roleService, authzService)
	authzHandler := handler.NewAuthzHandler(authzService)
	companyHandler := handler.NewCompanyHandler(companyService)
	reviewHandler := handler.NewReviewHandler(reviewService, voteService)
	moderationHandler := handler.NewModerationHandler(moderationService, authzService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, authzService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	authzHandler.RegisterRoutes(router.Group(""))
	companyHandler.RegisterRoutes(router.Group(""))
	reviewHandler.RegisterRoutes(router.Group(""))
	moderationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
