package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/duda4418/dishwise-backend/internal/http/handlers"
	"github.com/duda4418/dishwise-backend/internal/http/middleware"
)

type RouterConfig struct {
	HealthHandler    *handlers.HealthHandler
	AuthHandler      *handlers.AuthHandler
	AssistantHandler *handlers.AssistantHandler
	CatalogueHandler *handlers.CatalogueHandler
	ImportHandler    *handlers.ImportHandler
	MetricsHandler   *handlers.MetricsHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(otelgin.Middleware("dishwise-backend"))

	// ===============
	// || Public    ||
	// ===============
	if cfg.HealthHandler != nil {
		router.GET("/healthcheck", cfg.HealthHandler.Check)
	}

	api := router.Group("/api")
	if cfg.AuthHandler != nil {
		api.POST("/admin/login", cfg.AuthHandler.Login)
	}
	if cfg.AssistantHandler != nil {
		assistant := api.Group("/assistant")
		assistant.POST("/messages", cfg.AssistantHandler.SendMessage)
		assistant.GET("/sessions", cfg.AssistantHandler.ListSessions)
		assistant.GET("/sessions/:id/history", cfg.AssistantHandler.GetHistory)
		assistant.POST("/sessions/:id/feedback", cfg.AssistantHandler.SubmitFeedback)
		assistant.POST("/forms/:id/submit", cfg.AssistantHandler.SubmitForm)
		assistant.POST("/forms/:id/dismiss", cfg.AssistantHandler.DismissForm)
	}
	if cfg.CatalogueHandler != nil {
		catalogue := api.Group("/catalogue")
		catalogue.GET("/categories", cfg.CatalogueHandler.ListCategories)
		catalogue.GET("/categories/:id/causes", cfg.CatalogueHandler.ListCauses)
		catalogue.GET("/causes/:id/solutions", cfg.CatalogueHandler.ListSolutions)
	}

	// ===============
	// || Protected ||
	// ===============
	if cfg.AuthMiddleware != nil {
		admin := api.Group("/admin")
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
		if cfg.CatalogueHandler != nil {
			admin.POST("/catalogue/categories", cfg.CatalogueHandler.CreateCategory)
			admin.PUT("/catalogue/categories/:id", cfg.CatalogueHandler.UpdateCategory)
			admin.DELETE("/catalogue/categories/:id", cfg.CatalogueHandler.DeleteCategory)
			admin.POST("/catalogue/categories/:id/causes", cfg.CatalogueHandler.CreateCause)
			admin.PUT("/catalogue/causes/:id", cfg.CatalogueHandler.UpdateCause)
			admin.DELETE("/catalogue/causes/:id", cfg.CatalogueHandler.DeleteCause)
			admin.POST("/catalogue/causes/:id/solutions", cfg.CatalogueHandler.CreateSolution)
			admin.PUT("/catalogue/solutions/:id", cfg.CatalogueHandler.UpdateSolution)
			admin.DELETE("/catalogue/solutions/:id", cfg.CatalogueHandler.DeleteSolution)
		}
		if cfg.ImportHandler != nil {
			admin.POST("/troubleshooting/import", cfg.ImportHandler.ImportCatalogue)
		}
		if cfg.MetricsHandler != nil {
			admin.GET("/metrics/usage", cfg.MetricsHandler.Usage)
		}
	}

	return router
}
