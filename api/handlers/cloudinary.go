package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	cldapi "github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/medassist/medassist-api/api"
	"github.com/medassist/medassist-api/config"
)

const prescriptionFolder = "medassist/prescriptions"

// ImageStore hosts prescription images
type ImageStore interface {
	Upload(ctx context.Context, dataURI, folder string) (UploadedImage, error)
	Destroy(ctx context.Context, publicID string) error
}

// UploadedImage is where a stored image can be fetched from
type UploadedImage struct {
	URL      string
	PublicID string
}

// CloudinaryStore uploads images with the Cloudinary upload API
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore builds a store from CLOUDINARY_URL or, failing that,
// the separate cloud name, key and secret. It returns nil when Cloudinary is
// not configured.
func NewCloudinaryStore(conf *config.Config) (*CloudinaryStore, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case conf.CloudinaryURL != "":
		cld, err = cloudinary.NewFromURL(conf.CloudinaryURL)
	case conf.CloudinaryCloudName != "" && conf.CloudinaryAPIKey != "" && conf.CloudinaryAPISecret != "":
		cld, err = cloudinary.NewFromParams(conf.CloudinaryCloudName, conf.CloudinaryAPIKey, conf.CloudinaryAPISecret)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Upload stores a base64 data URI in folder
func (c *CloudinaryStore) Upload(ctx context.Context, dataURI, folder string) (UploadedImage, error) {
	res, err := c.cld.Upload.Upload(ctx, dataURI, uploader.UploadParams{Folder: folder})
	if err != nil {
		return UploadedImage{}, err
	}
	if res.Error.Message != "" {
		return UploadedImage{}, errors.New(res.Error.Message)
	}
	return UploadedImage{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Destroy removes a stored image
func (c *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	return nil
}

// CloudinaryHandler handles Cloudinary related requests
type CloudinaryHandler struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	Now          func() time.Time
}

// SignatureResponse carries the parameters of a signed direct upload
type SignatureResponse struct {
	Timestamp    string `json:"timestamp"`
	Signature    string `json:"signature"`
	APIKey       string `json:"apiKey"`
	CloudName    string `json:"cloudName"`
	Folder       string `json:"folder"`
	UploadPreset string `json:"uploadPreset,omitempty"`
}

// GenerateSignature signs a direct upload into the caller's prescription
// folder so the client can upload large images without proxying them
func (c CloudinaryHandler) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	if c.APISecret == "" {
		config.ErrorStatus("image uploads are not configured", http.StatusServiceUnavailable, w, errors.New("missing cloudinary secret"))
		return
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	resp := SignatureResponse{
		Timestamp:    strconv.FormatInt(now.Unix(), 10),
		APIKey:       c.APIKey,
		CloudName:    c.CloudName,
		Folder:       prescriptionFolder + "/" + userID,
		UploadPreset: c.UploadPreset,
	}

	params := url.Values{}
	params.Set("timestamp", resp.Timestamp)
	params.Set("folder", resp.Folder)
	if resp.UploadPreset != "" {
		params.Set("upload_preset", resp.UploadPreset)
	}
	signature, err := cldapi.SignParameters(params, c.APISecret)
	if err != nil {
		zap.S().Errorw("failed to sign upload", "error", err)
		config.ErrorStatus("failed to sign upload", http.StatusInternalServerError, w, err)
		return
	}
	resp.Signature = signature

	writeJSON(w, http.StatusOK, resp)
}
