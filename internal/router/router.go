// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/launchkit/launchkit-backend/internal/config"
	"github.com/launchkit/launchkit-backend/internal/handlers"
	"github.com/launchkit/launchkit-backend/internal/middleware"
	"github.com/launchkit/launchkit-backend/internal/services"
	"github.com/launchkit/launchkit-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	credentialService, err := services.NewCredentialService(db, cfg)
	if err != nil {
		return nil, err
	}
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	authService := services.NewAuthService(db, cfg)
	projectService := services.NewProjectService(db)
	productService := services.NewProductService(db)
	generationService := services.NewGenerationService(db, cfg, credentialService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	credentialHandler := handlers.NewCredentialHandler(credentialService)
	productHandler := handlers.NewProductHandler(productService)
	generationHandler := handlers.NewGenerationHandler(generationService, storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS([]string{cfg.Frontend.BaseURL}))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Everything below requires authentication
		authed := v1.Group("")
		authed.Use(middleware.AuthRequired())
		{
			// Project routes
			projects := authed.Group("/projects")
			{
				projects.POST("", projectHandler.CreateProject)
				projects.GET("", projectHandler.GetProjects)
				projects.GET("/:id", projectHandler.GetProject)
			}

			// Provider credential routes
			credentials := authed.Group("/credentials")
			{
				credentials.POST("", credentialHandler.CreateCredential)
				credentials.GET("", credentialHandler.GetCredentials)
				credentials.DELETE("/:id", credentialHandler.DeleteCredential)
			}

			// Product routes
			products := authed.Group("/products")
			{
				products.GET("", productHandler.GetProducts)
				products.GET("/:id", productHandler.GetProduct)
				products.GET("/:id/files", generationHandler.GetFiles)
				products.GET("/:id/download", generationHandler.Download)
			}

			// Generation routes
			authed.POST("/generate", middleware.GenerateRateLimit(), generationHandler.Generate)
			authed.GET("/generations", generationHandler.GetHistory)
		}
	}

	return r, nil
}
