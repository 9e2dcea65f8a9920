package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/medassist/medassist-api/api"
	"github.com/medassist/medassist-api/config"
	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/models"
)

const minPasswordLength = 8

// Auth exported for testing purposes
type Auth struct {
	DB databases.UserDatabase
}

// RegisterHandler creates an account. Tokens are then requested from
// /auth/token with basic credentials.
func (a Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(w, r, &req, maxBodyBytes); err != nil {
		decodeErrorStatus("failed to decode registration", w, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		writeMessage(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeMessage(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := api.HashPassword(req.Password)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	user := models.User{
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		Password: hash,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.DB.Insert(ctx, &user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			writeMessage(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		storeErrorStatus("failed to create user", w, err)
		return
	}

	zap.S().Infow("user registered", "userId", user.ID.Hex())
	writeJSON(w, http.StatusCreated, user)
}
