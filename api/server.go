package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/finfeed/fxcrypto/internal/crypto"
	"github.com/finfeed/fxcrypto/internal/rates"
	apierrors "github.com/finfeed/fxcrypto/pkg/errors"
)

// Defaults applied when a query parameter is absent.
const (
	defaultBase   = "USD"
	defaultTarget = "NGN"
	defaultAmount = "1.0"
	defaultCoins  = "bitcoin,ethereum,solana,binancecoin"
	defaultVs     = "usd,eur,ngn"
)

// Server represents the API server
type Server struct {
	router *gin.Engine
	logger *zap.Logger
	rates  rates.RateService
	crypto crypto.PriceService
}

// NewServer creates a new API server with injected service interfaces
func NewServer(logger *zap.Logger, ratesSvc rates.RateService, cryptoSvc crypto.PriceService) *Server {
	server := &Server{
		logger: logger,
		rates:  ratesSvc,
		crypto: cryptoSvc,
	}

	router := gin.New()

	// Add middleware
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	server.router = router
	server.registerRoutes()
	return server
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the internal Gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.GET("/", s.root)
	s.router.GET("/health", s.health)
	s.router.GET("/rates", s.getRates)
	s.router.GET("/fx", s.convert)
	s.router.GET("/crypto", s.getCryptoPrices)

	// Metrics endpoint
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to FX+Crypto API",
		"endpoints": gin.H{
			"health":         "/health",
			"rates_example":  "/rates?base=USD",
			"fx_example":     "/fx?base=USD&to=NGN&amount=100",
			"crypto_example": "/crypto?coins=bitcoin,ethereum&vs=usd,ngn",
		},
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "ts": time.Now().Unix()})
}

func (s *Server) getRates(c *gin.Context) {
	payload, err := s.rates.GetFiatRates(c.Request.Context(), c.DefaultQuery("base", defaultBase))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) convert(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.DefaultQuery("amount", defaultAmount), 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": "BadRequest", "message": "amount must be a number"},
		})
		return
	}

	conversion, err := s.rates.Convert(
		c.Request.Context(),
		c.DefaultQuery("base", defaultBase),
		c.DefaultQuery("to", defaultTarget),
		amount,
	)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversion)
}

func (s *Server) getCryptoPrices(c *gin.Context) {
	payload, err := s.crypto.GetSimplePrices(
		c.Request.Context(),
		splitCSV(c.DefaultQuery("coins", defaultCoins)),
		splitCSV(c.DefaultQuery("vs", defaultVs)),
	)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// abortWithError translates a service error into the client-facing status
// and body.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status := apierrors.HTTPStatus(err)
	kind := apierrors.KindOf(err)
	if kind == "" {
		kind = "Internal"
	}

	message := err.Error()
	var apiErr *apierrors.Error
	if apierrors.As(err, &apiErr) {
		message = apiErr.Message
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"kind": kind, "message": message}})
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
