package app

import (
	"net/http"

	_ "AgentAction/docs"
	"AgentAction/internal/auth"
	"AgentAction/internal/config"
	"AgentAction/internal/handlers"
	"AgentAction/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Setup registers all routes on the given engine. Everything except the
// health and version probes sits behind basic auth, including the docs.
func Setup(r *gin.Engine, cfg config.Config, logger *zap.Logger, authenticator auth.Authenticator, actions *service.ActionService) {
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))

	protected := r.Group("", auth.RequireBasicAuth(authenticator, cfg.Auth.Realm, logger.Named("auth")))

	protected.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	protected.GET("/swagger-doc.json", swaggerDocHandler())
	protected.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	protected.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(1),
		ginSwagger.PersistAuthorization(true),
	))

	actionHandler := handlers.NewActionHandler(actions)
	registerActionRoutes(protected, actionHandler)
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerActionRoutes(api *gin.RouterGroup, h *handlers.ActionHandler) {
	api.POST("/process", h.Process)
	api.GET("/invocations", h.ListInvocations)
}
