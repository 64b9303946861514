package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(userData *handlers.UserDataHandler, ws *handlers.WorkshopHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/user-data/:userId", userData.Get)
	api.POST("/user-data", userData.Upsert)

	w := api.Group("/workshop")
	w.GET("", ws.Snapshot)
	w.PUT("/inputs", ws.UpdateInputs)
	w.PUT("/bonus", ws.UpdateBonus)
	w.PUT("/api-key", ws.SetAPIKey)
	w.POST("/prices/refresh", ws.RefreshPrices)
	w.POST("/craft", ws.StartCraft)
	w.POST("/craft/cancel", ws.CancelCraft)
	w.GET("/history", ws.History)
	w.POST("/history/latest/result", ws.RecordLatestResult)
	w.POST("/history/:id/result", ws.RecordResult)
	w.DELETE("/history/:id", ws.DeleteHistory)
	w.DELETE("/history", ws.ClearHistory)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
