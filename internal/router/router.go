package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"poetica/internal/config"
	"poetica/internal/db"
	"poetica/internal/handlers"
	"poetica/internal/middleware"
	"poetica/internal/models"
	"poetica/internal/services"
	"poetica/internal/validation"
)

// TokenManager issues and checks bearer tokens.
type TokenManager interface {
	services.TokenIssuer
	middleware.TokenValidator
}

// Deps is everything the HTTP layer needs from main.
type Deps struct {
	Store    db.Store
	Tokens   TokenManager
	Notify   services.Notifications
	Limiter  *middleware.RateLimiter
	Limits   config.RateLimitConfig
	ResetTTL time.Duration
	Sessions sessions.Store
	// SessionName is the cookie name. Empty means "poetica_session".
	SessionName string
	Health      map[string]handlers.Pinger
	// Metrics is served at /metrics when non-nil.
	Metrics http.Handler
}

// NewEngine builds the gin engine with the middleware chain and every route.
func NewEngine(d Deps) *gin.Engine {
	validation.RegisterWithGin()

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	name := d.SessionName
	if name == "" {
		name = "poetica_session"
	}
	r.Use(sessions.Sessions(name, d.Sessions))
	r.Use(middleware.LoadUser(d.Store, d.Tokens))

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	poems := services.NewPoemService(d.Store)
	moderation := services.NewModerationService(d.Store, d.Notify)
	ratings := services.NewRatingService(d.Store, d.Store)
	likes := services.NewLikeService(d.Store, d.Store)
	comments := services.NewCommentService(d.Store, d.Store)
	featured := services.NewFeaturedService(d.Store, d.Store, d.Store)
	accounts := services.NewAccountService(d.Store, d.Tokens, d.Notify, d.ResetTTL)
	announcements := services.NewAnnouncementService(d.Store)

	authHandler := handlers.NewAuthHandler(accounts)
	poemHandler := handlers.NewPoemHandler(poems, featured)
	engagementHandler := handlers.NewEngagementHandler(ratings, likes, comments)
	userHandler := handlers.NewUserHandler(accounts, featured, announcements)
	adminHandler := handlers.NewAdminHandler(moderation, featured, accounts, announcements)
	healthHandler := handlers.NewHealthHandler(d.Health)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.GET("/health", healthHandler.Health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	authLimit := d.Limiter.Limit("auth", d.Limits.AuthMax, d.Limits.AuthWindow)
	passwordLimit := d.Limiter.Limit("password-change", d.Limits.PasswordChangeMax, d.Limits.PasswordChangeWindow)

	api := r.Group("/api")

	// Auth
	api.POST("/auth/register", authLimit, authHandler.Register)
	api.POST("/auth/login", authLimit, authHandler.Login)
	api.POST("/auth/token", authLimit, authHandler.Token)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/forgot-password", authLimit, authHandler.ForgotPassword)
	api.POST("/auth/reset-password", authLimit, authHandler.ResetPassword)
	api.POST("/auth/change-password", passwordLimit, middleware.AuthRequired(), authHandler.ChangePassword)

	// Public reads
	api.GET("/poems", poemHandler.List)
	api.GET("/poems/featured", poemHandler.Featured)
	api.GET("/poems/:id", poemHandler.Get)
	api.GET("/poems/:id/ratings", engagementHandler.GetRatings)
	api.GET("/poems/:id/like", engagementHandler.LikeState)
	api.GET("/poems/:id/comments", engagementHandler.Comments)
	api.GET("/tags", poemHandler.Tags)
	api.GET("/authors", userHandler.Authors)
	api.GET("/authors/featured", userHandler.FeaturedAuthors)
	api.GET("/announcements", userHandler.Announcements)

	// Signed-in
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/poems", poemHandler.Create)
		authorized.PUT("/poems/:id", poemHandler.Update)
		authorized.DELETE("/poems/:id", poemHandler.Delete)

		authorized.POST("/poems/:id/ratings", engagementHandler.Rate)
		authorized.DELETE("/poems/:id/ratings", engagementHandler.Unrate)
		authorized.POST("/poems/:id/like", engagementHandler.Like)
		authorized.DELETE("/poems/:id/like", engagementHandler.Unlike)
		authorized.POST("/poems/:id/comments", engagementHandler.CreateComment)
		authorized.PUT("/comments/:id", engagementHandler.UpdateComment)
		authorized.DELETE("/comments/:id", engagementHandler.DeleteComment)

		authorized.GET("/users/me", userHandler.Me)
		authorized.PUT("/users/me", userHandler.UpdateMe)
		authorized.GET("/users/me/poems", poemHandler.Mine)
	}
	api.GET("/users/:id", userHandler.Profile)

	// Admin
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/stats", adminHandler.Stats)

		admin.GET("/poems", adminHandler.Queue)
		admin.GET("/poems/:id", adminHandler.GetPoem)
		admin.PUT("/poems/:id/approve", adminHandler.Approve)
		admin.PUT("/poems/:id/reject", adminHandler.Reject)
		admin.DELETE("/poems/:id", adminHandler.DeletePoem)

		admin.GET("/featured-poem", adminHandler.GetFeaturedPoem)
		admin.POST("/featured-poem", adminHandler.SetFeaturedPoem)
		admin.DELETE("/featured-poem", adminHandler.ClearFeaturedPoem)

		admin.GET("/users", adminHandler.Users)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.PUT("/users/:id/featured", adminHandler.SetAuthorFeatured)

		admin.GET("/announcements", adminHandler.Announcements)
		admin.POST("/announcements", adminHandler.CreateAnnouncement)
		admin.PUT("/announcements/:id", adminHandler.UpdateAnnouncement)
		admin.DELETE("/announcements/:id", adminHandler.DeleteAnnouncement)
	}
}
