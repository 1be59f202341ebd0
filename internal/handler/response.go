package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pdl-records/internal/model"
	"pdl-records/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// writeError maps the error taxonomy to HTTP. Anything unclassified
// becomes a generic server error; detail goes to the log, not the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Status()
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		body.Code = "INVALID_CREDENTIALS"
		body.Message = "Invalid credentials"
	case errors.Is(err, model.ErrNoToken):
		status = http.StatusUnauthorized
		body.Code = "NO_TOKEN"
		body.Message = "No token provided"
	case errors.Is(err, model.ErrInvalidToken):
		status = http.StatusForbidden
		body.Code = "INVALID_TOKEN"
		body.Message = "Invalid or expired token"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Insufficient permissions"
	case errors.Is(err, model.ErrDuplicateTag):
		status = http.StatusConflict
		body.Code = "DUPLICATE_TAG"
		body.Message = "RFID tag is already assigned to another PDL record"
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrWeakPassword):
		status = http.StatusBadRequest
		body.Code = "VALIDATION_ERROR"
		body.Message = "Validation failed"
		body.Details = err.Error()
	case errors.Is(err, model.ErrUserExists):
		status = http.StatusBadRequest
		body.Code = "VALIDATION_ERROR"
		body.Message = "Username or full name already exists"
	case errors.Is(err, model.ErrRecordNotFound), errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Not found"
	case errors.Is(err, model.ErrTransaction):
		status = http.StatusInternalServerError
		body.Code = "TRANSACTION_FAILURE"
		body.Message = "The operation could not be completed"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
