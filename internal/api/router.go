package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/exaanswer/internal/api/answer"
	"github.com/liliang-cn/exaanswer/internal/api/middleware"
	"github.com/liliang-cn/exaanswer/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(answerService *service.AnswerService, logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	answerHandler := answer.NewHandler(answerService, logger)
	answerHandler.RegisterRoutes(r.Group("/api"))

	return r
}
