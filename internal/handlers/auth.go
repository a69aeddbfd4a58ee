package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"poetica/internal/middleware"
	"poetica/internal/services"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login starts a cookie session.
func (h *AuthHandler) Login(c *gin.Context) {
	var in services.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.accounts.Authenticate(c.Request.Context(), in)
	if err != nil {
		renderError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Token issues a bearer token for API clients.
func (h *AuthHandler) Token(c *gin.Context) {
	var in services.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	token, expiresAt, user, err := h.accounts.IssueToken(c.Request.Context(), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"tokenType":   "Bearer",
		"expiresAt":   expiresAt.Format(time.RFC3339),
		"user":        user,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"Logged out"})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var in services.ForgotPasswordInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.accounts.RequestPasswordReset(c.Request.Context(), in); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"If that email is registered, a reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var in services.ResetPasswordInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), in); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"Password has been reset"})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var in services.ChangePasswordInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), currentUser(c), in); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"Password changed"})
}
