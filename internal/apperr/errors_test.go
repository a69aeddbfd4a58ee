package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_StatusAndKind(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		kind   error
	}{
		{"bad request", BadRequest("nope"), http.StatusBadRequest, ErrBadRequest},
		{"unauthorized", Unauthorized("login"), http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("no"), http.StatusForbidden, ErrForbidden},
		{"not found", NotFound("Poem not found"), http.StatusNotFound, ErrNotFound},
		{"rate limited", TooManyRequests("slow down"), http.StatusTooManyRequests, ErrTooManyRequests},
		{"validation", Validation(FieldError{Field: "title", Message: "is required"}), http.StatusBadRequest, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.kind)
		})
	}
}

func TestFrom_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", NotFound("Poem not found"))

	got := From(wrapped)

	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "Poem not found", got.Message)
}

func TestFrom_UnknownErrorBecomesInternal(t *testing.T) {
	cause := errors.New("connection reset")

	got := From(cause)

	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, "Internal server error", got.Message)
	assert.ErrorIs(t, got, cause)
	assert.ErrorIs(t, got, ErrInternal)
}

func TestValidation_ErrorString(t *testing.T) {
	err := Validation(FieldError{Field: "rating", Message: "must be at most 10"})

	assert.Equal(t, "Validation failed: rating must be at most 10", err.Error())
	assert.Len(t, err.Details, 1)
}

func TestBody_OmitsEmptyDetails(t *testing.T) {
	raw, err := json.Marshal(NotFound("Poem not found").Body())
	assert.NoError(t, err)
	assert.JSONEq(t, `{"error":"Poem not found"}`, string(raw))

	raw, err = json.Marshal(Validation(FieldError{Field: "rating", Message: "must be at most 10"}).Body())
	assert.NoError(t, err)
	assert.JSONEq(t, `{"error":"Validation failed","details":[{"field":"rating","message":"must be at most 10"}]}`, string(raw))
}
