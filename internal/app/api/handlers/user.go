package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/subwatch/subwatch/internal/app/api/middleware"
	subsvc "github.com/subwatch/subwatch/internal/app/service/subscription"
	usersvc "github.com/subwatch/subwatch/internal/app/service/user"
	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/response"
)

type profileResp struct {
	User   *models.User          `json:"user"`
	Counts *subsvc.UserCounts    `json:"subscription_counts"`
}

// @Summary      Get profile
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse[handlers.profileResp]
// @Router       /api/v1/users/profile [get]
func ApiGetProfile(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := mw.CurrentUser(c)
		counts, err := subs.CountsForUser(c.Request.Context(), u.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(profileResp{User: u, Counts: counts}))
	}
}

type updateProfileReq struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1,max=100"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// @Summary      Update profile
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.updateProfileReq true "Fields to update"
// @Success      200 {object} response.APIResponse[models.User]
// @Router       /api/v1/users/profile [put]
func ApiUpdateProfile(users *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateProfileReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		u, err := users.UpdateProfile(c.Request.Context(), mw.CurrentUser(c).ID, usersvc.UpdateProfileInput{
			FullName: req.FullName,
			Email:    req.Email,
		})
		if err != nil {
			if errors.Is(err, usersvc.ErrEmailTaken) {
				c.JSON(http.StatusConflict, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(u))
	}
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// @Summary      Change password
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.changePasswordReq true "Current and new password"
// @Success      200 {object} response.APIResponse[any]
// @Router       /api/v1/users/change-password [put]
func ApiChangePassword(users *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		err := users.ChangePassword(c.Request.Context(), mw.CurrentUser(c).ID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			if errors.Is(err, usersvc.ErrWrongPassword) {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

type deleteAccountReq struct {
	Password     string `json:"password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

// @Summary      Deactivate account
// @Description  Requires the account password and the literal confirmation string "DELETE". Deactivates the account and every subscription it owns.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.deleteAccountReq true "Password and confirmation"
// @Success      200 {object} response.APIResponse[any]
// @Router       /api/v1/users/account [delete]
func ApiDeleteAccount(users *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deleteAccountReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.Confirmation != "DELETE" {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, `confirmation must be "DELETE"`))
			return
		}
		err := users.DeactivateAccount(c.Request.Context(), mw.CurrentUser(c).ID, req.Password)
		if err != nil {
			if errors.Is(err, usersvc.ErrWrongPassword) {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

type exportResp struct {
	ExportedAt    time.Time              `json:"exported_at"`
	User          *models.User           `json:"user"`
	Subscriptions []*models.Subscription `json:"subscriptions"`
}

// @Summary      Export account data
// @Description  Returns the profile and every subscription, active or not, as a JSON document.
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse[handlers.exportResp]
// @Router       /api/v1/users/export [get]
func ApiExportData(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := mw.CurrentUser(c)
		items, err := subs.ExportForUser(c.Request.Context(), u.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="subwatch-export.json"`)
		c.JSON(http.StatusOK, response.OKT(exportResp{
			ExportedAt:    time.Now().UTC(),
			User:          u,
			Subscriptions: items,
		}))
	}
}

func RegisterUserRoutes(r gin.IRouter, users *usersvc.Service, subs *subsvc.Service) {
	r.GET("/users/profile", ApiGetProfile(subs))
	r.PUT("/users/profile", ApiUpdateProfile(users))
	r.PUT("/users/change-password", ApiChangePassword(users))
	r.DELETE("/users/account", ApiDeleteAccount(users))
	r.GET("/users/export", ApiExportData(subs))
}
