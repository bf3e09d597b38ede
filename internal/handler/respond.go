package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vinnodrive/vinnodrive/internal/service"
	"github.com/vinnodrive/vinnodrive/internal/validation"
)

// Error codes returned in the "code" field of every JSON error body.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeAccessDenied = "ACCESS_DENIED"
	CodeConflict     = "CONFLICT"
	CodeTooLarge     = "FILE_TOO_LARGE"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError writes the {"error":{"code","message"}} body shared by all endpoints.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps service sentinels to status codes. Anything unknown is
// logged and reported as an internal error without leaking its text.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrFileNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, "File not found")
	case errors.Is(err, service.ErrAccessDenied):
		WriteError(w, http.StatusForbidden, CodeAccessDenied, "You do not have access to this file")
	case errors.Is(err, service.ErrGranteeNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrShareNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrShareWithSelf):
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, service.ErrAlreadyShared):
		WriteError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, service.ErrPreviewTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error())
	case errors.Is(err, service.ErrPreviewUnsupported):
		WriteError(w, http.StatusUnsupportedMediaType, CodeValidation, err.Error())
	case errors.Is(err, validation.ErrFolderTraversal),
		errors.Is(err, validation.ErrFolderChars),
		errors.Is(err, validation.ErrFolderTooLong):
		WriteError(w, http.StatusBadRequest, string(service.CodeInvalidFolder), err.Error())
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		WriteError(w, http.StatusInternalServerError, CodeInternal, "Something went wrong")
	}
}

// batchStatus maps a rejected upload batch to its HTTP status.
func batchStatus(code service.BatchErrorCode) int {
	switch code {
	case service.CodeNoFilesSelected, service.CodeInvalidFolder:
		return http.StatusBadRequest
	case service.CodeRateLimited:
		return http.StatusTooManyRequests
	case service.CodeQuotaExceeded:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
