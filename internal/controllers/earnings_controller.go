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

type EarningsController struct {
	payoutService service.PayoutService
}

func NewEarningsController(payoutService service.PayoutService) *EarningsController {
	return &EarningsController{
		payoutService: payoutService,
	}
}

// GetEarnings handles GET /api/v1/earnings - balances plus the daily series
func (ec *EarningsController) GetEarnings(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	days := 30
	if daysStr := c.Query("days"); daysStr != "" {
		if parsedDays, err := strconv.Atoi(daysStr); err == nil && parsedDays > 0 {
			days = parsedDays
		}
	}

	summary, err := ec.payoutService.GetEarningsSummary(userID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RequestWithdrawal handles POST /api/v1/withdrawals
func (ec *EarningsController) RequestWithdrawal(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	var req models.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	payout, err := ec.payoutService.RequestWithdrawal(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBelowMinimumPayout),
			errors.Is(err, service.ErrMissingPayoutInfo):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, service.ErrOpenPayoutExists):
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, repository.ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, payout)
}

// GetWithdrawals handles GET /api/v1/withdrawals
func (ec *EarningsController) GetWithdrawals(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	payouts, err := ec.payoutService.GetPayouts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, payouts)
}

// GetReferrals handles GET /api/v1/referrals
func (ec *EarningsController) GetReferrals(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	referrals, err := ec.payoutService.GetReferrals(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, referrals)
}
