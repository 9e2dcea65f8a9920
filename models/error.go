package models

import "errors"

// Sentinel errors shared by the database layer and the handlers.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
	ErrConflict   = errors.New("already exists")
)

// MessageResponse is the body returned by endpoints that only acknowledge
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthCheckResponse is returned by the health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
