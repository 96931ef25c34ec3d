package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/clima-widget/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetHTMLTemplate(loadTemplates())
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/", handler.Page)
	router.POST("/", handler.SubmitForm)

	api := router.Group("/api/v1")
	{
		api.POST("/weather", handler.Lookup)
		api.GET("/widget", handler.WidgetState)
		api.POST("/widget/submit", handler.WidgetSubmit)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
