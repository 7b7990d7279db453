package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/services"
)

const maxImageSize = 10 << 20

type Server struct {
	editor *services.AdminEditor
	logger *zap.Logger
}

// NewRouter exposes the editor as a JSON API under /api/v1.
func NewRouter(editor *services.AdminEditor, logger *zap.Logger, corsOrigins []string) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{editor: editor, logger: logger.Named("api")}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())
	r.Use(cors.New(corsConfig(corsOrigins)))
	r.MaxMultipartMemory = maxImageSize

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })

	api := r.Group("/api/v1")
	{
		api.GET("/questions", s.ListQuestions())
		api.POST("/questions", s.CreateQuestion())
		api.PUT("/questions/:id", s.UpdateQuestion())
		api.DELETE("/questions/:id", s.DeleteQuestion())
		api.POST("/questions/:id/check", s.CheckAnswer())
		api.POST("/images", s.UploadImage())
		api.POST("/logout", s.Logout())
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
