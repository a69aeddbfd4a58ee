package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poetica/internal/services"
)

// UserHandler serves profiles, author directories and announcements.
type UserHandler struct {
	accounts      *services.AccountService
	featured      *services.FeaturedService
	announcements *services.AnnouncementService
}

func NewUserHandler(accounts *services.AccountService, featured *services.FeaturedService, announcements *services.AnnouncementService) *UserHandler {
	return &UserHandler{accounts: accounts, featured: featured, announcements: announcements}
}

// me is the signed-in user's own view, which includes the email.
type me struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Featured bool   `json:"featured"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
	Website  string `json:"website"`
}

func (h *UserHandler) Me(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, me{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role),
		Featured: u.Featured, Bio: u.Bio, Avatar: u.Avatar, Website: u.Website,
	})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var in services.ProfileInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.accounts.UpdateProfile(c.Request.Context(), currentUser(c), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, me{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role),
		Featured: u.Featured, Bio: u.Bio, Avatar: u.Avatar, Website: u.Website,
	})
}

func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.accounts.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Authors(c *gin.Context) {
	authors, page, err := h.accounts.Authors(c.Request.Context(), pageQuery(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": authors, "pagination": page})
}

func (h *UserHandler) FeaturedAuthors(c *gin.Context) {
	authors, page, err := h.featured.FeaturedAuthors(c.Request.Context(), pageQuery(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": authors, "pagination": page})
}

func (h *UserHandler) Announcements(c *gin.Context) {
	items, page, err := h.announcements.ListPublic(c.Request.Context(), pageQuery(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": items, "pagination": page})
}
