package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucashahnndev/radar-do-caos/internal/alert"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/lib/helpers"
)

func tickerParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
}

func (s *Server) handleMe(c *gin.Context) {
	userID := currentUserID(c)
	user, found, err := s.store.GetDashboardUser(userID)
	if err != nil {
		log.Errorf("failed to load dashboard user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateKeyRequest struct {
	NewKey string `json:"new_key" binding:"required,min=8"`
}

func (s *Server) handleUpdateKey(c *gin.Context) {
	var req updateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_key must have at least 8 characters"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewKey), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	userID := currentUserID(c)
	if err := s.store.UpdateDashboardKeyHash(userID, string(hash)); err != nil {
		log.Errorf("failed to update key for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) handleListStocks(c *gin.Context) {
	stocks, err := s.store.ListStocks(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, stocks)
}

type stockRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

func (s *Server) handleAddStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))

	quote, err := s.quotes.Latest(c.Request.Context(), ticker)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "quote not available for ticker"})
		return
	}

	stock := storage.WatchedStock{
		UserID:         currentUserID(c),
		Ticker:         ticker,
		ReferencePrice: quote.Price,
	}
	if err := s.store.UpsertStock(stock); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, stock)
}

type stockUpdateRequest struct {
	ReferencePrice float64 `json:"reference_price" binding:"required,gt=0"`
}

func (s *Server) handleUpdateStock(c *gin.Context) {
	var req stockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference_price must be greater than zero"})
		return
	}

	updated, err := s.store.UpdateStockReference(currentUserID(c), tickerParam(c), req.ReferencePrice)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "stock not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) handleDeleteStock(c *gin.Context) {
	removed, err := s.store.DeleteStock(currentUserID(c), tickerParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "stock not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleListPriceAlerts(c *gin.Context) {
	alerts, err := s.store.ListPriceAlerts(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

type priceAlertRequest struct {
	Ticker      string  `json:"ticker" binding:"required"`
	TargetPrice float64 `json:"target_price" binding:"required,gt=0"`
}

// handleSavePriceAlert creates or replaces a price alert. The direction is
// derived from the live quote and the notified flag is reset, re-arming the
// alert.
func (s *Server) handleSavePriceAlert(c *gin.Context) {
	var req priceAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker and positive target_price are required"})
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))

	direction, err := alert.ResolveDirection(c.Request.Context(), s.quotes, ticker, req.TargetPrice)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "quote not available for ticker"})
		return
	}

	saved := storage.PriceAlert{
		UserID:      currentUserID(c),
		Ticker:      ticker,
		TargetPrice: req.TargetPrice,
		Direction:   direction,
	}
	if err := s.store.ReplacePriceAlert(saved); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, saved)
}

type priceAlertUpdateRequest struct {
	TargetPrice float64 `json:"target_price" binding:"required,gt=0"`
}

func (s *Server) handleUpdatePriceAlert(c *gin.Context) {
	var req priceAlertUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "positive target_price is required"})
		return
	}
	ticker := tickerParam(c)

	direction, err := alert.ResolveDirection(c.Request.Context(), s.quotes, ticker, req.TargetPrice)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "quote not available for ticker"})
		return
	}

	updated, err := s.store.UpdatePriceAlert(currentUserID(c), ticker, req.TargetPrice, direction)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) handleDeletePriceAlert(c *gin.Context) {
	removed, err := s.store.DeletePriceAlert(currentUserID(c), tickerParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleListPanicAlerts(c *gin.Context) {
	alerts, err := s.store.ListPanicAlerts(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

type panicAlertRequest struct {
	Ticker           string  `json:"ticker" binding:"required"`
	DropThresholdPct float64 `json:"drop_threshold_pct" binding:"required,gt=0"`
}

func (s *Server) handleSavePanicAlert(c *gin.Context) {
	var req panicAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker and positive drop_threshold_pct are required"})
		return
	}

	saved := storage.PanicAlert{
		UserID:           currentUserID(c),
		Ticker:           strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Active:           true,
		DropThresholdPct: req.DropThresholdPct,
	}
	if err := s.store.UpsertPanicAlert(saved); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, saved)
}

type panicAlertUpdateRequest struct {
	Active           *bool   `json:"active" binding:"required"`
	DropThresholdPct float64 `json:"drop_threshold_pct" binding:"required,gt=0"`
}

func (s *Server) handleUpdatePanicAlert(c *gin.Context) {
	var req panicAlertUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active and positive drop_threshold_pct are required"})
		return
	}

	updated, err := s.store.UpdatePanicAlert(currentUserID(c), tickerParam(c), *req.Active, req.DropThresholdPct)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) handleDeletePanicAlert(c *gin.Context) {
	removed, err := s.store.DeletePanicAlert(currentUserID(c), tickerParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleAlertHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := s.store.ListHistory(currentUserID(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := s.store.EnsureSettings(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

type settingsRequest struct {
	AutoDigest     *bool  `json:"auto_digest" binding:"required"`
	DigestTime     string `json:"digest_time" binding:"required"`
	PanicCheckTime string `json:"panic_check_time" binding:"required"`
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auto_digest, digest_time and panic_check_time are required"})
		return
	}

	digestTime, err := helpers.ParseTimeOfDay(req.DigestTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "digest_time must be HH:MM"})
		return
	}
	panicTime, err := helpers.ParseTimeOfDay(req.PanicCheckTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "panic_check_time must be HH:MM"})
		return
	}

	userID := currentUserID(c)
	if _, err := s.store.EnsureSettings(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if err := s.store.UpdateSettings(userID, *req.AutoDigest, digestTime, panicTime); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	settings, err := s.store.EnsureSettings(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// handlePriceHistory returns up to seven daily closes for charting.
func (s *Server) handlePriceHistory(c *gin.Context) {
	ticker := tickerParam(c)
	points, err := s.quotes.History(c.Request.Context(), ticker, quotes.Day7)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "quote data not available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "points": points})
}

func (s *Server) handleListPortfolio(c *gin.Context) {
	positions, err := s.store.ListPositions(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, positions)
}

type positionRequest struct {
	Ticker   string  `json:"ticker" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	AvgPrice float64 `json:"avg_price" binding:"required,gt=0"`
}

func (s *Server) handleSavePosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker, positive quantity and avg_price are required"})
		return
	}

	pos := storage.PortfolioPosition{
		UserID:   currentUserID(c),
		Ticker:   strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Quantity: req.Quantity,
		AvgPrice: req.AvgPrice,
	}
	if err := s.store.UpsertPosition(pos); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, pos)
}

func (s *Server) handleDeletePosition(c *gin.Context) {
	removed, err := s.store.DeletePosition(currentUserID(c), tickerParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "position not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
