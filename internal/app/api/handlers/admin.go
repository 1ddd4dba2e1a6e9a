package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/subwatch/subwatch/internal/app/service/reminder"
	"github.com/subwatch/subwatch/pkg/response"
)

// @Summary      Trigger reminder run
// @Description  Runs the reminder batch for today and returns the run report. Returns 409 while a run is already in flight.
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse[reminder.Report]
// @Router       /api/v1/admin/reminders/run [post]
func ApiRunReminders(batch *reminder.Batch) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := batch.Run(c.Request.Context(), time.Now())
		if err != nil {
			if errors.Is(err, reminder.ErrRunInProgress) {
				c.JSON(http.StatusConflict, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(report))
	}
}

func RegisterAdminRoutes(r gin.IRouter, batch *reminder.Batch) {
	r.POST("/admin/reminders/run", ApiRunReminders(batch))
}
