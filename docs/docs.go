// Package docs MedAssist API.
//
// Documentation of the MedAssist medication reminder API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//     - bearer
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/medassist/medassist-api/models"
	"github.com/medassist/medassist-api/progress"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/medications medications listMedications
// Lists the caller's medications, newest first.
// responses:
//   200: medicationsResponse
//   401: messageResponse

// The caller's medications
// swagger:response medicationsResponse
type medicationsResponseWrapper struct {
	// in:body
	Body []models.Medication
}

// swagger:route POST /api/medications medications createMedication
// Creates a medication for the caller.
// responses:
//   201: medicationResponse
//   400: messageResponse

// swagger:route PUT /api/medications/{id} medications updateMedication
// Updates one of the caller's medications. Omitted fields keep their value.
// responses:
//   200: medicationResponse
//   401: messageResponse
//   404: messageResponse

// swagger:route POST /api/medications/{id}/refill medications refillMedication
// Resets the current supply to the total supply.
// responses:
//   200: medicationResponse
//   404: messageResponse

// A single medication
// swagger:response medicationResponse
type medicationResponseWrapper struct {
	// in:body
	Body models.Medication
}

// swagger:parameters createMedication updateMedication
type medicationParamsWrapper struct {
	// in:body
	Body models.MedicationInput
}

// swagger:route POST /api/doses doses recordDose
// Records a taken or skipped dose.
// responses:
//   201: doseResponse
//   400: messageResponse
//   404: messageResponse

// A single dose record
// swagger:response doseResponse
type doseResponseWrapper struct {
	// in:body
	Body models.DoseHistory
}

// swagger:route GET /api/progress/today progress todayProgress
// Summarizes today's adherence in the caller's timezone (tz query parameter).
// responses:
//   200: progressResponse

// Today's adherence
// swagger:response progressResponse
type progressResponseWrapper struct {
	// in:body
	Body progress.Summary
}

// swagger:route GET /api/prescriptions prescriptions listPrescriptions
// Lists the caller's prescription images.
// responses:
//   200: prescriptionsResponse

// The caller's prescriptions
// swagger:response prescriptionsResponse
type prescriptionsResponseWrapper struct {
	// in:body
	Body []models.Prescription
}

// A plain message, used for errors and confirmations
// swagger:response messageResponse
type messageResponseWrapper struct {
	// in:body
	Body models.MessageResponse
}
