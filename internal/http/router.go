package http

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neon-nexus/internal/service"
	"neon-nexus/internal/webui"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	userH *UserHandler,
	chatH *ChatHandler,
	convH *ConversationHandler,
	jwtSvc *service.JWTService,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	users := r.Group("/users", jsonContentTypeMiddleware())
	users.POST("", userH.CreateUser)

	auth := r.Group("/auth", jsonContentTypeMiddleware())
	auth.POST("/login", userH.Login)
	auth.POST("/oauth", userH.OAuthLogin)
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)
	auth.GET("/me", JWTAuthMiddleware(jwtSvc), userH.Me)

	api := r.Group("/api", jsonContentTypeMiddleware())
	api.POST("/chat", OptionalJWTAuthMiddleware(jwtSvc), chatH.Exchange)

	convs := api.Group("/conversations", JWTAuthMiddleware(jwtSvc))
	convs.GET("", convH.List)
	convs.POST("", convH.Create)
	convs.GET("/:id", convH.Detail)

	registerWebUI(r, logger)

	return r
}

// registerWebUI sirve la UI embebida: index en "/" y assets bajo "/static".
func registerWebUI(r *gin.Engine, logger *zap.Logger) {
	sub, err := fs.Sub(webui.Static, "static")
	if err != nil {
		logger.Warn("webui assets unavailable", zap.Error(err))
		return
	}

	r.StaticFS("/static", http.FS(sub))
	r.GET("/", func(c *gin.Context) {
		page, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
