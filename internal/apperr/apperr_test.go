package apperr_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog/internal/apperr"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("bad genre %q", "Musical"), http.StatusBadRequest},
		{"unauthorized", apperr.Unauthorized("invalid token"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("admin only"), http.StatusForbidden},
		{"not found", apperr.NotFound("movie %d not found", 7), http.StatusNotFound},
		{"conflict", apperr.Conflict("duplicate"), http.StatusConflict},
		{"wrapped", fmt.Errorf("update: %w", apperr.NotFound("gone")), http.StatusNotFound},
		{"plain", errors.New("connection reset"), http.StatusInternalServerError},
		{"uncoded oops", oops.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.Status(tt.err))
		})
	}
}

func TestMessageHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "Internal Server Error", apperr.Message(errors.New("dial tcp 10.0.0.3:3306: refused")))
	assert.Equal(t, "movie 3 not found", apperr.Message(apperr.NotFound("movie %d not found", 3)))
}

func TestIs(t *testing.T) {
	err := apperr.Conflict("email already exists")
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
	assert.False(t, apperr.Is(err, apperr.CodeNotFound))
	assert.False(t, apperr.Is(nil, apperr.CodeConflict))
}

func TestLogErrorIncludesCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	apperr.LogError(logger, "create failed", oops.Code(apperr.CodeConflict).With("title", "Inception").Errorf("duplicate"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "create failed", entry["msg"])
	assert.Equal(t, apperr.CodeConflict, entry["code"])
	assert.Equal(t, "duplicate", entry["error"])
}

func TestFromValidationUsesJSONNames(t *testing.T) {
	type payload struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"min=6"`
	}
	v := apperr.NewValidator()

	err := apperr.FromValidation(v.Struct(payload{Email: "nope", Password: "abc"}))

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "password must be at least 6 characters")
}
