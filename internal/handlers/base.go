package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"poetica/internal/db"
	"poetica/internal/middleware"
	"poetica/internal/models"
	"poetica/internal/utils"
	"poetica/internal/validation"
)

// renderError writes the JSON error body for err.
func renderError(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

// bindJSON decodes and validates the body. On failure the response has
// already been written and false is returned.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		renderError(c, validation.FromError(err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for bodies that may be absent. An empty body,
// whatever its framing, leaves obj untouched.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		renderError(c, validation.FromError(err))
		return false
	}
	return true
}

func pageQuery(c *gin.Context) db.Page {
	return db.Page{
		Page:  utils.StringToInt(c.Query("page"), 1),
		Limit: utils.StringToInt(c.Query("limit"), db.DefaultPageSize),
	}.Normalize()
}

func statusQuery(c *gin.Context) models.PoemStatus {
	return models.PoemStatus(c.Query("status"))
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

type message struct {
	Message string `json:"message"`
}
