package controllers

import (
	"fmt"
	"net/http"
	"time"

	"gately-be/internal/models"
	"gately-be/internal/service"

	"github.com/gin-gonic/gin"
)

const gateWaitSeconds = 10

// GateController serves the interstitial gate flow. Step 1 records the click
// and starts the countdown; the destination is only revealed on step 3.
type GateController struct {
	linkService  service.LinkService
	clickService service.ClickService
	frontendURL  string
}

func NewGateController(linkService service.LinkService, clickService service.ClickService, frontendURL string) *GateController {
	return &GateController{
		linkService:  linkService,
		clickService: clickService,
		frontendURL:  frontendURL,
	}
}

// EnterGate handles GET /:shortID - gate step 1. The click is recorded here
// and only here; later steps are free revisits of the same link.
func (gc *GateController) EnterGate(c *gin.Context) {
	shortID := c.Param("shortID")

	link, err := gc.linkService.GetGateLink(shortID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Link not found",
		})
		return
	}

	// A failed write must not block the visitor; the click is simply lost.
	_, err = gc.clickService.TrackVisit(link, service.VisitInfo{
		UserAgent:    c.Request.UserAgent(),
		ForwardedFor: c.GetHeader("X-Forwarded-For"),
		RemoteAddr:   c.Request.RemoteAddr,
		Referer:      c.Request.Referer(),
		Timestamp:    time.Now(),
	})
	_ = err // already logged by the service

	c.JSON(http.StatusOK, models.GateResponse{
		ShortID:     link.ShortID,
		Step:        1,
		WaitSeconds: gateWaitSeconds,
		Next:        fmt.Sprintf("%s/step2/%s", gc.frontendURL, link.ShortID),
	})
}

// GateStep2 handles GET /step2/:shortID
func (gc *GateController) GateStep2(c *gin.Context) {
	shortID := c.Param("shortID")

	link, err := gc.linkService.GetGateLink(shortID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Link not found",
		})
		return
	}

	c.JSON(http.StatusOK, models.GateResponse{
		ShortID:     link.ShortID,
		Step:        2,
		WaitSeconds: gateWaitSeconds,
		Next:        fmt.Sprintf("%s/step3/%s", gc.frontendURL, link.ShortID),
	})
}

// GateStep3 handles GET /step3/:shortID - reveals the destination
func (gc *GateController) GateStep3(c *gin.Context) {
	shortID := c.Param("shortID")

	link, err := gc.linkService.GetGateLink(shortID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Link not found",
		})
		return
	}

	c.JSON(http.StatusOK, models.GateResponse{
		ShortID:     link.ShortID,
		Step:        3,
		OriginalURL: link.OriginalURL,
	})
}
