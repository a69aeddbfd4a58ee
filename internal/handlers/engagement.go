package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poetica/internal/services"
)

// EngagementHandler serves ratings, likes and comments on published poems.
type EngagementHandler struct {
	ratings  *services.RatingService
	likes    *services.LikeService
	comments *services.CommentService
}

func NewEngagementHandler(ratings *services.RatingService, likes *services.LikeService, comments *services.CommentService) *EngagementHandler {
	return &EngagementHandler{ratings: ratings, likes: likes, comments: comments}
}

func (h *EngagementHandler) GetRatings(c *gin.Context) {
	summary, err := h.ratings.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *EngagementHandler) Rate(c *gin.Context) {
	var in services.RatingInput
	if !bindJSON(c, &in) {
		return
	}
	summary, err := h.ratings.Rate(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *EngagementHandler) Unrate(c *gin.Context) {
	summary, err := h.ratings.Remove(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *EngagementHandler) LikeState(c *gin.Context) {
	state, err := h.likes.State(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *EngagementHandler) Like(c *gin.Context) {
	state, err := h.likes.Like(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *EngagementHandler) Unlike(c *gin.Context) {
	state, err := h.likes.Unlike(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *EngagementHandler) Comments(c *gin.Context) {
	comments, page, err := h.comments.List(c.Request.Context(), c.Param("id"), pageQuery(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "pagination": page})
}

func (h *EngagementHandler) CreateComment(c *gin.Context) {
	var in services.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *EngagementHandler) UpdateComment(c *gin.Context) {
	var in services.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *EngagementHandler) DeleteComment(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"Comment deleted"})
}
