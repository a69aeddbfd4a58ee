package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetica/internal/apperr"
)

type poemPayload struct {
	Title string   `json:"title" binding:"required,min=1,max=200"`
	Tags  []string `json:"tags" binding:"max=2,dive,min=1,max=30"`
}

type ratingPayload struct {
	Rating int `json:"rating" binding:"required,min=1,max=10"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(poemPayload{Title: "Ocean", Tags: []string{"sea"}}))
	assert.NoError(t, Struct(ratingPayload{Rating: 10}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(poemPayload{Tags: []string{"a", "b", "c"}})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "Validation failed", appErr.Message)

	fields := map[string]string{}
	for _, d := range appErr.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "must contain at most 2 items", fields["tags"])
}

func TestStruct_RatingOutOfRange(t *testing.T) {
	err := Struct(ratingPayload{Rating: 11})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "rating", appErr.Details[0].Field)
	assert.Equal(t, "must be at most 10", appErr.Details[0].Message)
}

func TestFromError_NonValidationError(t *testing.T) {
	var v ratingPayload
	jsonErr := json.Unmarshal([]byte(`{"rating":`), &v)

	err := FromError(jsonErr)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invalid request body", appErr.Message)
	assert.Empty(t, appErr.Details)
}
