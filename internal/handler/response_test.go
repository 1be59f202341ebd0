package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"pdl-records/internal/model"
	"pdl-records/pkg/apierror"
)

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid credentials", model.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"no token", model.ErrNoToken, http.StatusUnauthorized, "NO_TOKEN"},
		{"invalid token", model.ErrInvalidToken, http.StatusForbidden, "INVALID_TOKEN"},
		{"forbidden", model.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"duplicate tag", model.ErrDuplicateTag, http.StatusConflict, "DUPLICATE_TAG"},
		{"validation", fmt.Errorf("%w: gender (oneof)", model.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"weak password", model.ErrWeakPassword, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"user exists", model.ErrUserExists, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"record not found", model.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"user not found", model.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"transaction failure", fmt.Errorf("%w: insert detention detail", model.ErrTransaction), http.StatusInternalServerError, "TRANSACTION_FAILURE"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var resp model.APIResponse
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestWriteError_APIErrorPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apierror.New("NOT_FOUND", "photo not found", "pdl-x.jpg", http.StatusNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp model.APIResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "pdl-x.jpg", resp.Error.Details)
}

func TestWriteError_UnclassifiedHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: password authentication failed for user postgres"))

	var resp model.APIResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "postgres")
	assert.Empty(t, resp.Error.Details)
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(rec, http.StatusCreated, map[string]any{"id": 31}, &model.Meta{Page: 1, Limit: 20, Total: 1, TotalPages: 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp model.APIResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)
}
