package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/subwatch/subwatch/internal/app/api/middleware"
	"github.com/subwatch/subwatch/internal/app/service/mailer"
	subsvc "github.com/subwatch/subwatch/internal/app/service/subscription"
	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/response"
	"github.com/subwatch/subwatch/pkg/types"
)

// parseDate accepts date-only and RFC3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", s)
}

type createSubscriptionReq struct {
	ServiceName  string   `json:"service_name" binding:"required,min=1,max=100"`
	Description  string   `json:"description" binding:"max=500"`
	Cost         float64  `json:"cost" binding:"gte=0"`
	Currency     string   `json:"currency"`
	BillingCycle string   `json:"billing_cycle" binding:"required"`
	StartDate    string   `json:"start_date" binding:"required"`
	ReminderDays int      `json:"reminder_days" binding:"omitempty,min=1,max=30"`
	AutoRenew    *bool    `json:"auto_renew"`
	Tags         []string `json:"tags"`
}

// @Summary      Create subscription
// @Description  Creates a subscription; the next payment date is computed one billing cycle ahead of the start date.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.createSubscriptionReq true "Subscription data"
// @Success      201 {object} response.APIResponse[models.Subscription]
// @Router       /api/v1/subscriptions [post]
func ApiCreateSubscription(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSubscriptionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		cycle, err := types.ParseBillingCycle(req.BillingCycle)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		currency := types.CurrencyVND
		if req.Currency != "" {
			if currency, err = types.ParseCurrency(req.Currency); err != nil {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
		}
		startDate, err := parseDate(req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		autoRenew := true
		if req.AutoRenew != nil {
			autoRenew = *req.AutoRenew
		}

		sub, err := subs.Create(c.Request.Context(), subsvc.CreateInput{
			UserID:       mw.CurrentUser(c).ID,
			ServiceName:  req.ServiceName,
			Description:  req.Description,
			Cost:         req.Cost,
			Currency:     currency,
			Cycle:        cycle,
			StartDate:    startDate,
			ReminderDays: req.ReminderDays,
			AutoRenew:    autoRenew,
			Tags:         req.Tags,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusCreated, response.OKT(sub))
	}
}

type subscriptionListResp struct {
	Items      []*models.Subscription `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int64                  `json:"total_pages"`
}

// @Summary      List subscriptions
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page (1-based)"
// @Param        limit     query int    false "Page size (max 100)"
// @Param        is_active query bool   false "Filter by active flag"
// @Param        search    query string false "Match against service name and description"
// @Success      200 {object} response.APIResponse[handlers.subscriptionListResp]
// @Router       /api/v1/subscriptions [get]
func ApiListSubscriptions(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := subsvc.ListRequest{UserID: mw.CurrentUser(c).ID, Search: c.Query("search")}
		if v := c.Query("page"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				req.Page = n
			} else {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid page"))
				return
			}
		}
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				req.Limit = n
			} else {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid limit"))
				return
			}
		}
		if v := c.Query("is_active"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid is_active"))
				return
			}
			req.IsActive = &b
		}

		res, err := subs.List(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		limit := req.Limit
		if limit == 0 {
			limit = 10
		}
		page := req.Page
		if page == 0 {
			page = 1
		}
		c.JSON(http.StatusOK, response.OKT(subscriptionListResp{
			Items:      res.Items,
			Total:      res.Total,
			Page:       page,
			Limit:      limit,
			TotalPages: (res.Total + int64(limit) - 1) / int64(limit),
		}))
	}
}

// @Summary      Get subscription
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription id"
// @Success      200 {object} response.APIResponse[models.Subscription]
// @Router       /api/v1/subscriptions/{id} [get]
func ApiGetSubscription(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := subs.Get(c.Request.Context(), mw.CurrentUser(c).ID, c.Param("id"))
		if err != nil {
			writeSubscriptionErr(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

type updateSubscriptionReq struct {
	ServiceName  *string  `json:"service_name" binding:"omitempty,min=1,max=100"`
	Description  *string  `json:"description" binding:"omitempty,max=500"`
	Cost         *float64 `json:"cost" binding:"omitempty,gte=0"`
	Currency     *string  `json:"currency"`
	BillingCycle *string  `json:"billing_cycle"`
	StartDate    *string  `json:"start_date"`
	ReminderDays *int     `json:"reminder_days" binding:"omitempty,min=1,max=30"`
	AutoRenew    *bool    `json:"auto_renew"`
	IsActive     *bool    `json:"is_active"`
	Tags         []string `json:"tags"`
}

// @Summary      Update subscription
// @Description  Overwrites provided fields. Changing the start date or billing cycle recomputes the next payment date.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription id"
// @Param        request body handlers.updateSubscriptionReq true "Fields to update"
// @Success      200 {object} response.APIResponse[models.Subscription]
// @Router       /api/v1/subscriptions/{id} [put]
func ApiUpdateSubscription(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateSubscriptionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		in := subsvc.UpdateInput{
			ServiceName:  req.ServiceName,
			Description:  req.Description,
			Cost:         req.Cost,
			ReminderDays: req.ReminderDays,
			AutoRenew:    req.AutoRenew,
			IsActive:     req.IsActive,
			Tags:         req.Tags,
		}
		if req.Currency != nil {
			cur, err := types.ParseCurrency(*req.Currency)
			if err != nil {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			in.Currency = &cur
		}
		if req.BillingCycle != nil {
			cycle, err := types.ParseBillingCycle(*req.BillingCycle)
			if err != nil {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			in.Cycle = &cycle
		}
		if req.StartDate != nil {
			d, err := parseDate(*req.StartDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			in.StartDate = &d
		}

		sub, err := subs.Update(c.Request.Context(), mw.CurrentUser(c).ID, c.Param("id"), in)
		if err != nil {
			writeSubscriptionErr(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// @Summary      Delete subscription
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription id"
// @Success      200 {object} response.APIResponse[any]
// @Router       /api/v1/subscriptions/{id} [delete]
func ApiDeleteSubscription(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := subs.Delete(c.Request.Context(), mw.CurrentUser(c).ID, c.Param("id")); err != nil {
			writeSubscriptionErr(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Renew subscription
// @Description  Advances the next payment date by one billing cycle and appends a paid history entry.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription id"
// @Success      200 {object} response.APIResponse[models.Subscription]
// @Router       /api/v1/subscriptions/{id}/renew [post]
func ApiRenewSubscription(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := subs.Renew(c.Request.Context(), mw.CurrentUser(c).ID, c.Param("id"))
		if err != nil {
			if errors.Is(err, models.ErrSubscriptionInactive) {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "cannot renew an inactive subscription"))
				return
			}
			writeSubscriptionErr(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// @Summary      Dashboard statistics
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse[subscription.DashboardStats]
// @Router       /api/v1/subscriptions/stats/dashboard [get]
func ApiDashboardStats(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := subs.DashboardStats(c.Request.Context(), mw.CurrentUser(c).ID, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(stats))
	}
}

// @Summary      Send reminder for one subscription
// @Description  Sends a reminder mail immediately, regardless of the reminder window.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Subscription id"
// @Success      200 {object} response.APIResponse[map[string]string]
// @Router       /api/v1/subscriptions/{id}/send-reminder [post]
func ApiSendReminder(subs *subsvc.Service, mail *mailer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := mw.CurrentUser(c)
		sub, err := subs.Get(c.Request.Context(), u.ID, c.Param("id"))
		if err != nil {
			writeSubscriptionErr(c, err)
			return
		}
		msgID, err := mail.Send(c.Request.Context(), u, sub)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"message_id": msgID}))
	}
}

// @Summary      Test email configuration
// @Description  Sends a test mail to the calling user's address.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse[map[string]string]
// @Router       /api/v1/subscriptions/test-email [post]
func ApiTestEmail(mail *mailer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgID, err := mail.SendTest(c.Request.Context(), mw.CurrentUser(c).Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]string{"message_id": msgID}))
	}
}

func writeSubscriptionErr(c *gin.Context, err error) {
	if errors.Is(err, subsvc.ErrNotFound) {
		c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "subscription not found"))
		return
	}
	if errors.Is(err, subsvc.ErrVersionConflict) {
		c.JSON(http.StatusConflict, response.ErrorT[any](response.APIResponseCodeConflict, "subscription was modified concurrently, retry"))
		return
	}
	c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
}

func RegisterSubscriptionRoutes(r gin.IRouter, subs *subsvc.Service, mail *mailer.Service) {
	r.GET("/subscriptions", ApiListSubscriptions(subs))
	r.POST("/subscriptions", ApiCreateSubscription(subs))
	r.GET("/subscriptions/stats/dashboard", ApiDashboardStats(subs))
	r.POST("/subscriptions/test-email", ApiTestEmail(mail))
	r.GET("/subscriptions/:id", ApiGetSubscription(subs))
	r.PUT("/subscriptions/:id", ApiUpdateSubscription(subs))
	r.DELETE("/subscriptions/:id", ApiDeleteSubscription(subs))
	r.POST("/subscriptions/:id/renew", ApiRenewSubscription(subs))
	r.POST("/subscriptions/:id/send-reminder", ApiSendReminder(subs, mail))
}
