package handlers

import (
	"net/http"

	"billed-backend/middleware"
	"billed-backend/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig holds the handlers mounted by NewRouter
type RouterConfig struct {
	Bills              *BillHandler
	Sessions           *SessionHandler
	NewBill            *NewBillFormHandler
	Log                *zap.Logger
	RateLimitPerMinute float64
}

// NewRouter builds the gin engine serving the bills API
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if err := validators.RegisterGinRules(); err != nil {
		return nil, err
	}

	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	uploads := middleware.RateLimit(cfg.RateLimitPerMinute)

	api := r.Group("/api")
	{
		// Session endpoints
		api.POST("/sessions", cfg.Sessions.StartSession)
		api.DELETE("/sessions", cfg.Sessions.EndSession)

		// Bill store endpoints
		api.POST("/bills", uploads, cfg.Bills.CreateBill)
		api.PUT("/bills", cfg.Bills.UpdateBill)
		api.PUT("/bills/:id", cfg.Bills.UpdateBill)
		api.GET("/bills", cfg.Bills.ListBills)
		api.GET("/bills/:id", cfg.Bills.GetBill)

		// New bill form
		api.POST("/newbill", uploads, cfg.NewBill.Submit)
	}

	r.GET("/files/*path", cfg.Bills.GetFile)

	return r, nil
}
