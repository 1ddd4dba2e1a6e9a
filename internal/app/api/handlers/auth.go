package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/subwatch/subwatch/internal/app/api/middleware"
	usersvc "github.com/subwatch/subwatch/internal/app/service/user"
	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/response"
)

type registerReq struct {
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type authResp struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// @Summary      Register
// @Description  Creates an account and returns a token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body handlers.registerReq true "Registration data"
// @Success      201 {object} response.APIResponse[handlers.authResp]
// @Router       /api/v1/auth/register [post]
func ApiRegister(users *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		u, err := users.Register(c.Request.Context(), usersvc.RegisterInput{
			FullName: req.FullName,
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			if errors.Is(err, usersvc.ErrUsernameTaken) || errors.Is(err, usersvc.ErrEmailTaken) {
				c.JSON(http.StatusConflict, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		token, err := users.IssueToken(u)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusCreated, response.OKT(authResp{Token: token, User: u}))
	}
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Login
// @Description  Verifies credentials and returns a token. Username or email accepted.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body handlers.loginReq true "Credentials"
// @Success      200 {object} response.APIResponse[handlers.authResp]
// @Router       /api/v1/auth/login [post]
func ApiLogin(users *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		u, token, err := users.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, usersvc.ErrInvalidCredentials), errors.Is(err, usersvc.ErrAccountInactive):
				c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
			default:
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(authResp{Token: token, User: u}))
	}
}

// @Summary      Current account
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse[models.User]
// @Router       /api/v1/auth/me [get]
func ApiMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(mw.CurrentUser(c)))
	}
}

func RegisterAuthRoutes(public gin.IRouter, authed gin.IRouter, users *usersvc.Service) {
	public.POST("/auth/register", ApiRegister(users))
	public.POST("/auth/login", ApiLogin(users))
	authed.GET("/auth/me", ApiMe())
}
