package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/medassist/medassist-api/api"
	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/models"
)

// PushToken exported for testing purposes
type PushToken struct {
	DB databases.PushTokenDatabase
}

// RegisterPushTokenRequest is the body sent by the app after it obtains an
// Expo push token
type RegisterPushTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterPushTokenHandler stores the caller's device token for reminders
func (h PushToken) RegisterPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req RegisterPushTokenRequest
	if err := decodeBody(w, r, &req, maxBodyBytes); err != nil {
		if !tooLargeStatus(w, err) {
			writeMessage(w, http.StatusBadRequest, "Invalid JSON format")
		}
		return
	}
	token := strings.TrimSpace(req.Token)
	if !isExpoToken(token) {
		writeMessage(w, http.StatusBadRequest, "A valid Expo push token is required")
		return
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if !models.KnownPlatform(platform) {
		writeMessage(w, http.StatusBadRequest, "platform must be ios or android")
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err := h.DB.Upsert(ctx, models.PushToken{UserID: userID, Token: token, Platform: platform})
	if err != nil {
		storeErrorStatus("failed to register push token", w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Push token registered")
}

// DeletePushTokenHandler unregisters one of the caller's device tokens,
// normally on logout
func (h PushToken) DeletePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err := h.DB.Delete(ctx, userID, mux.Vars(r)["token"])
	if errors.Is(err, models.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Push token not found")
		return
	}
	if err != nil {
		storeErrorStatus("failed to delete push token", w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Push token removed")
}

func isExpoToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}
