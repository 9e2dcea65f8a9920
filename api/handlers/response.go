package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/medassist/medassist-api/api"
	"github.com/medassist/medassist-api/config"
	"github.com/medassist/medassist-api/models"
)

const (
	maxBodyBytes = 1 << 20
	// base64 photos from phone cameras run to several MB
	maxImageBodyBytes = 10 << 20
)

// writeJSON marshals v and writes it with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// writeMessage writes a {"message": ...} body, the shape the mobile client
// shows in its alerts
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.MessageResponse{Message: message})
}

// decodeBody reads a JSON request body of at most limit bytes into v. An
// oversized body fails with an error wrapping *http.MaxBytesError.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, err)
		}
		return fmt.Errorf("%w: failed to read request body", models.ErrValidation)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON format", models.ErrValidation)
	}
	return nil
}

// tooLargeStatus writes a 413 when err came from an oversized body
func tooLargeStatus(w http.ResponseWriter, err error) bool {
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		return false
	}
	zap.S().Warnw("request body too large", "limit", tooLarge.Limit)
	if tooLarge.Limit >= maxImageBodyBytes {
		writeMessage(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Image is too large, please choose a photo under %d MB", tooLarge.Limit>>20))
		return true
	}
	writeMessage(w, http.StatusRequestEntityTooLarge, "Request body is too large")
	return true
}

// decodeErrorStatus answers a failed decodeBody
func decodeErrorStatus(message string, w http.ResponseWriter, err error) {
	if tooLargeStatus(w, err) {
		return
	}
	config.ErrorStatus(message, http.StatusBadRequest, w, err)
}

// callerID returns the authenticated user id, writing a 401 when Middleware
// did not run
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
	}
	return userID, ok
}

// storeErrorStatus answers a failed store call. Anticipated errors become
// 4xx, everything else a generic 500.
func storeErrorStatus(message string, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.Is(err, models.ErrValidation):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	case errors.Is(err, models.ErrConflict):
		config.ErrorStatus(message, http.StatusConflict, w, err)
	default:
		zap.S().Errorw(message, "error", err)
		sentry.CaptureException(fmt.Errorf("%s: %w", message, err))
		writeMessage(w, http.StatusInternalServerError, "Server Error")
	}
}
