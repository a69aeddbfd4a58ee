package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poetica/internal/services"
)

// AdminHandler serves /api/admin. The role check lives on the route group.
type AdminHandler struct {
	moderation    *services.ModerationService
	featured      *services.FeaturedService
	accounts      *services.AccountService
	announcements *services.AnnouncementService
}

func NewAdminHandler(moderation *services.ModerationService, featured *services.FeaturedService, accounts *services.AccountService, announcements *services.AnnouncementService) *AdminHandler {
	return &AdminHandler{moderation: moderation, featured: featured, accounts: accounts, announcements: announcements}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.moderation.Stats(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Queue lists poems awaiting review, or in the status given by ?status=.
func (h *AdminHandler) Queue(c *gin.Context) {
	poems, page, err := h.moderation.Queue(c.Request.Context(), statusQuery(c), pageQuery(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, poemList{Poems: poems, Pagination: page})
}

func (h *AdminHandler) GetPoem(c *gin.Context) {
	poem, err := h.moderation.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, poem)
}

func (h *AdminHandler) Approve(c *gin.Context) {
	poem, err := h.moderation.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, poem)
}

// Reject accepts an empty body; the reason is optional.
func (h *AdminHandler) Reject(c *gin.Context) {
	var in services.RejectInput
	if !bindOptionalJSON(c, &in) {
		return
	}
	poem, err := h.moderation.Reject(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, poem)
}

func (h *AdminHandler) DeletePoem(c *gin.Context) {
	if err := h.moderation.Delete(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"Poem deleted"})
}

func (h *AdminHandler) GetFeaturedPoem(c *gin.Context) {
	current, err := h.featured.Current(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

func (h *AdminHandler) SetFeaturedPoem(c *gin.Context) {
	var in services.FeaturedPoemInput
	if !bindJSON(c, &in) {
		return
	}
	current, err := h.featured.Set(c.Request.Context(), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

func (h *AdminHandler) ClearFeaturedPoem(c *gin.Context) {
	if err := h.featured.Clear(c.Request.Context()); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"poem": nil, "featuredAt": nil})
}

func (h *AdminHandler) Users(c *gin.Context) {
	users, page, err := h.accounts.ListUsers(c.Request.Context(), pageQuery(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "pagination": page})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.accounts.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"User deleted"})
}

func (h *AdminHandler) SetAuthorFeatured(c *gin.Context) {
	var in services.FeaturedAuthorInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.featured.SetAuthorFeatured(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) Announcements(c *gin.Context) {
	items, page, err := h.announcements.ListAll(c.Request.Context(), pageQuery(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": items, "pagination": page})
}

func (h *AdminHandler) CreateAnnouncement(c *gin.Context) {
	var in services.AnnouncementInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.announcements.Create(c.Request.Context(), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *AdminHandler) UpdateAnnouncement(c *gin.Context) {
	var in services.AnnouncementInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.announcements.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AdminHandler) DeleteAnnouncement(c *gin.Context) {
	if err := h.announcements.Delete(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"Announcement deleted"})
}
