package httpapi

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
)

// Server is the dashboard REST API. All /api routes are JWT-protected and
// strictly scoped to the authenticated user's rows.
type Server struct {
	store            *storage.Store
	quotes           quotes.Source
	secret           string
	dashboardBaseURL string
	now              func() time.Time
}

func NewServer(store *storage.Store, source quotes.Source, secret, dashboardBaseURL string) *Server {
	return &Server{
		store:            store,
		quotes:           source,
		secret:           secret,
		dashboardBaseURL: dashboardBaseURL,
		now:              time.Now,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/token", s.handleToken)
	router.GET("/generate_dashboard_link/:user_id", s.handleGenerateDashboardLink)

	api := router.Group("/api", s.authMiddleware())
	{
		api.GET("/user/me", s.handleMe)
		api.PUT("/user/update_key", s.handleUpdateKey)

		api.GET("/stocks", s.handleListStocks)
		api.POST("/stocks", s.handleAddStock)
		api.PUT("/stocks/:ticker", s.handleUpdateStock)
		api.DELETE("/stocks/:ticker", s.handleDeleteStock)

		api.GET("/alerts/price", s.handleListPriceAlerts)
		api.POST("/alerts/price", s.handleSavePriceAlert)
		api.PUT("/alerts/price/:ticker", s.handleUpdatePriceAlert)
		api.DELETE("/alerts/price/:ticker", s.handleDeletePriceAlert)

		api.GET("/alerts/panic", s.handleListPanicAlerts)
		api.POST("/alerts/panic", s.handleSavePanicAlert)
		api.PUT("/alerts/panic/:ticker", s.handleUpdatePanicAlert)
		api.DELETE("/alerts/panic/:ticker", s.handleDeletePanicAlert)

		api.GET("/alerts/history", s.handleAlertHistory)

		api.GET("/settings", s.handleGetSettings)
		api.PUT("/settings", s.handleUpdateSettings)

		api.GET("/history/:ticker", s.handlePriceHistory)

		api.GET("/portfolio", s.handleListPortfolio)
		api.POST("/portfolio", s.handleSavePosition)
		api.DELETE("/portfolio/:ticker", s.handleDeletePosition)
	}

	return router
}

// corsMiddleware opens the API to browser dashboards on any origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Run serves the API until the listener fails.
func (s *Server) Run(addr string) error {
	log.Infof("Dashboard API listening on %s", addr)
	return s.Router().Run(addr)
}

// handleGenerateDashboardLink provisions dashboard access on behalf of the
// bot. It is guarded by the shared secret, not by a user token.
func (s *Server) handleGenerateDashboardLink(c *gin.Context) {
	provided := c.GetHeader("X-Internal-Token")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(s.secret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	key := hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	created, err := s.store.CreateDashboardUser(userID, string(hash), "")
	if err != nil {
		log.Errorf("failed to create dashboard user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !created {
		if err := s.store.UpdateDashboardKeyHash(userID, string(hash)); err != nil {
			log.Errorf("failed to rotate key for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"link": fmt.Sprintf("%s/?user_id=%d", s.dashboardBaseURL, userID),
		"key":  key,
	})
}
