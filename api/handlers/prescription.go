package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/medassist/medassist-api/api"
	"github.com/medassist/medassist-api/config"
	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/models"
)

const (
	uploadTimeout       = 30 * time.Second
	defaultImageMime    = "image/jpeg"
	prescriptionMissing = "Please select an image and add a title"
)

// Prescription exported for testing purposes
type Prescription struct {
	DB     databases.PrescriptionDatabase
	Images ImageStore
	Events Publisher
}

// PrescriptionUpdate is the body of the edit endpoint. Only the title and
// notes of a prescription can change.
type PrescriptionUpdate struct {
	Title *string `json:"title"`
	Notes *string `json:"notes"`
}

// PrescriptionsHandler lists the caller's prescriptions, newest first
func (h Prescription) PrescriptionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	prescriptions, err := h.DB.FindByUser(ctx, userID)
	if err != nil {
		storeErrorStatus("failed to get prescriptions", w, err)
		return
	}
	writeJSON(w, http.StatusOK, prescriptions)
}

// PrescriptionByIDHandler returns one of the caller's prescriptions
func (h Prescription) PrescriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	p, ok := h.findOwned(ctx, w, mux.Vars(r)["id"], userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePrescriptionHandler attaches a prescription image to the caller's
// account. The image is either an already hosted url or base64 data that is
// uploaded first.
func (h Prescription) CreatePrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input models.PrescriptionInput
	if err := decodeBody(w, r, &input, maxImageBodyBytes); err != nil {
		decodeErrorStatus("failed to decode prescription", w, err)
		return
	}
	title := strings.TrimSpace(input.Title)
	imageURL := strings.TrimSpace(input.ImageURL)
	imageData := strings.TrimSpace(input.ImageData)
	if title == "" || (imageURL == "" && imageData == "") {
		writeMessage(w, http.StatusBadRequest, prescriptionMissing)
		return
	}

	p := models.Prescription{
		UserID:    userID,
		Title:     title,
		Notes:     input.Notes,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}

	if imageData != "" {
		dataURI, err := imageDataURI(imageData, input.MimeType)
		if err != nil {
			config.ErrorStatus("invalid prescription image", http.StatusBadRequest, w, err)
			return
		}
		if h.Images == nil {
			config.ErrorStatus("image uploads are not configured", http.StatusServiceUnavailable, w, errors.New("no image store"))
			return
		}
		uploadCtx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
		img, err := h.Images.Upload(uploadCtx, dataURI, prescriptionFolder+"/"+userID)
		cancel()
		if err != nil {
			zap.S().Errorw("prescription image upload failed", "userId", userID, "error", err)
			config.ErrorStatus("failed to upload prescription image", http.StatusBadGateway, w, errors.New("upload failed"))
			return
		}
		p.ImageURL = img.URL
		p.ImagePublicID = img.PublicID
	} else {
		if err := validateImageURL(imageURL); err != nil {
			config.ErrorStatus("invalid prescription image", http.StatusBadRequest, w, err)
			return
		}
		p.ImageURL = imageURL
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.Insert(ctx, &p); err != nil {
		h.discardImage(p)
		storeErrorStatus("failed to save prescription", w, err)
		return
	}

	publish(h.Events, userID, EventPrescriptionCreated, p)
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePrescriptionHandler edits the title and notes of one of the
// caller's prescriptions
func (h Prescription) UpdatePrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input PrescriptionUpdate
	if err := decodeBody(w, r, &input, maxBodyBytes); err != nil {
		decodeErrorStatus("failed to decode prescription", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	p, ok := h.findOwned(ctx, w, mux.Vars(r)["id"], userID)
	if !ok {
		return
	}
	if input.Title != nil {
		p.Title = strings.TrimSpace(*input.Title)
	}
	if input.Notes != nil {
		p.Notes = *input.Notes
	}
	if p.Title == "" {
		writeMessage(w, http.StatusBadRequest, prescriptionMissing)
		return
	}

	if err := h.DB.Update(ctx, p); err != nil {
		storeErrorStatus("failed to update prescription", w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePrescriptionHandler removes one of the caller's prescriptions and
// its uploaded image
func (h Prescription) DeletePrescriptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	p, ok := h.findOwned(ctx, w, mux.Vars(r)["id"], userID)
	if !ok {
		return
	}
	if err := h.DB.Delete(ctx, p); err != nil {
		storeErrorStatus("failed to delete prescription", w, err)
		return
	}
	h.discardImage(*p)

	publish(h.Events, userID, EventPrescriptionDeleted, map[string]string{"_id": p.ID.Hex()})
	writeMessage(w, http.StatusOK, "Prescription removed")
}

func (h Prescription) findOwned(ctx context.Context, w http.ResponseWriter, id, userID string) (*models.Prescription, bool) {
	p, err := h.DB.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) || (err == nil && p.UserID != userID) {
		writeMessage(w, http.StatusNotFound, "Prescription not found")
		return nil, false
	}
	if err != nil {
		storeErrorStatus("failed to get prescription", w, err)
		return nil, false
	}
	return p, true
}

// discardImage deletes an uploaded image. Failures only leave an orphaned
// asset behind, so they are logged and ignored.
func (h Prescription) discardImage(p models.Prescription) {
	if h.Images == nil || p.ImagePublicID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	if err := h.Images.Destroy(ctx, p.ImagePublicID); err != nil {
		zap.S().Warnw("failed to delete prescription image", "publicId", p.ImagePublicID, "error", err)
	}
}

// imageDataURI turns raw base64 or a data URI into a data URI with an image
// MIME type
func imageDataURI(data, mimeType string) (string, error) {
	if strings.HasPrefix(data, "data:") {
		if !strings.HasPrefix(data, "data:image/") || !strings.Contains(data, ";base64,") {
			return "", fmt.Errorf("%w: imageData must be a base64 image", models.ErrValidation)
		}
		return data, nil
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = defaultImageMime
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: unsupported mimeType %q", models.ErrValidation, mimeType)
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, data), nil
}

func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: imageUrl must be an http(s) url", models.ErrValidation)
	}
	return nil
}
