package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poetica/internal/db"
	"poetica/internal/services"
)

type PoemHandler struct {
	poems    *services.PoemService
	featured *services.FeaturedService
}

func NewPoemHandler(poems *services.PoemService, featured *services.FeaturedService) *PoemHandler {
	return &PoemHandler{poems: poems, featured: featured}
}

type poemList struct {
	Poems      any                 `json:"poems"`
	Pagination services.Pagination `json:"pagination"`
}

// List serves GET /api/poems with q, tag, authorId and sort filters.
func (h *PoemHandler) List(c *gin.Context) {
	sort := db.PoemSort(c.DefaultQuery("sort", string(db.SortRecent)))
	switch sort {
	case db.SortRecent, db.SortRating, db.SortOldest:
	default:
		sort = db.SortRecent
	}

	poems, page, err := h.poems.ListPublished(c.Request.Context(), db.PoemFilter{
		AuthorID: c.Query("authorId"),
		Tag:      c.Query("tag"),
		Query:    c.Query("q"),
		Sort:     sort,
		Page:     pageQuery(c),
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, poemList{Poems: poems, Pagination: page})
}

func (h *PoemHandler) Create(c *gin.Context) {
	var in services.PoemInput
	if !bindJSON(c, &in) {
		return
	}
	poem, err := h.poems.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, poem)
}

func (h *PoemHandler) Get(c *gin.Context) {
	poem, err := h.poems.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, poem)
}

func (h *PoemHandler) Update(c *gin.Context) {
	var in services.PoemInput
	if !bindJSON(c, &in) {
		return
	}
	poem, err := h.poems.Update(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, poem)
}

func (h *PoemHandler) Delete(c *gin.Context) {
	if err := h.poems.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, message{"Poem deleted"})
}

func (h *PoemHandler) Mine(c *gin.Context) {
	poems, page, err := h.poems.ListMine(c.Request.Context(), currentUser(c), statusQuery(c), pageQuery(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, poemList{Poems: poems, Pagination: page})
}

// Featured serves the public featured poem, or {"poem": null}.
func (h *PoemHandler) Featured(c *gin.Context) {
	current, err := h.featured.Current(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"poem": current.Poem})
}

func (h *PoemHandler) Tags(c *gin.Context) {
	tags, err := h.poems.ListTags(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
