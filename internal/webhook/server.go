// Package webhook exposes the HTTP intake for externally triggered trades.
package webhook

import (
	"context"
	"log"
	"net/http"
	"time"

	"TradePilot/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 30 * time.Second

// Executor runs a webhook trade through the pipeline and reports the outcome.
type Executor interface {
	ExecuteWebhook(ctx context.Context, symbol string, side model.Side, price float64) error
}

// Server handles webhook trade requests, health checks and the metrics
// endpoint.
type Server struct {
	executor      Executor
	defaultSymbol string
}

func NewServer(executor Executor, defaultSymbol string) *Server {
	return &Server{executor: executor, defaultSymbol: defaultSymbol}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/webhook", s.handleWebhook)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("[INFO] webhook server listening on %s", addr)
	return s.Router().Run(addr)
}

type webhookRequest struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Price  float64 `json:"price"`
}

func (s *Server) handleWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = s.defaultSymbol
	}
	side := model.Side(req.Side)
	if side == "" {
		side = model.SideBuy
	}
	if side != model.SideBuy && side != model.SideSell {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "side must be Buy or Sell"})
		return
	}
	if req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "price must be positive"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	log.Printf("[INFO] webhook trade request: %s %s @ %.2f", side, symbol, req.Price)
	if err := s.executor.ExecuteWebhook(ctx, symbol, side, req.Price); err != nil {
		log.Printf("[WARN] webhook trade rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"symbol": symbol,
		"side":   side,
		"price":  req.Price,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
