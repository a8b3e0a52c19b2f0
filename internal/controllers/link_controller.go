package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"gately-be/internal/models"
	"gately-be/internal/repository"
	"gately-be/internal/service"

	"github.com/gin-gonic/gin"
)

type LinkController struct {
	linkService service.LinkService
	baseURL     string
}

func NewLinkController(linkService service.LinkService, baseURL string) *LinkController {
	return &LinkController{
		linkService: linkService,
		baseURL:     baseURL,
	}
}

// authedUserID pulls the user ID the auth middleware stored in the context
func authedUserID(c *gin.Context) (string, bool) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		c.Abort()
		return "", false
	}
	return userIDStr.(string), true
}

// CreateLink handles POST /api/v1/links
func (lc *LinkController) CreateLink(c *gin.Context) {
	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	response, err := lc.linkService.CreateLink(&req, &userID, lc.baseURL)
	if err != nil {
		lc.writeCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// CreateAnonymousLink handles POST /api/v1/shorten - no auth, no earnings
func (lc *LinkController) CreateAnonymousLink(c *gin.Context) {
	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	response, err := lc.linkService.CreateLink(&req, nil, lc.baseURL)
	if err != nil {
		lc.writeCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (lc *LinkController) writeCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShortIDTaken):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrAllocationExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": err.Error(),
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	}
}

// GetUserLinks handles GET /api/v1/links - all links for the authenticated user
func (lc *LinkController) GetUserLinks(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	links, err := lc.linkService.GetUserLinks(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, links)
}

// GetLinkAnalytics handles GET /api/v1/links/:shortID/analytics
func (lc *LinkController) GetLinkAnalytics(c *gin.Context) {
	shortID := c.Param("shortID")

	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	// Lookback window in days (default 30)
	days := 30
	if daysStr := c.Query("days"); daysStr != "" {
		if parsedDays, err := strconv.Atoi(daysStr); err == nil && parsedDays > 0 {
			days = parsedDays
		}
	}

	analytics, err := lc.linkService.GetLinkAnalytics(shortID, userID, days)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Link not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// DeactivateLink handles DELETE /api/v1/links/:shortID - soft delete
func (lc *LinkController) DeactivateLink(c *gin.Context) {
	shortID := c.Param("shortID")

	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	if err := lc.linkService.DeactivateLink(shortID, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Link not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Link deactivated successfully",
	})
}
