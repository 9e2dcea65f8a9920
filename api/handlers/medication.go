package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/medassist/medassist-api/api"
	"github.com/medassist/medassist-api/config"
	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/models"
	"github.com/medassist/medassist-api/progress"
)

// Medication exported for testing purposes
type Medication struct {
	DB     databases.MedicationDatabase
	Events Publisher
}

// MedicationsHandler lists the caller's medications
func (h Medication) MedicationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	meds, err := h.DB.FindByUser(ctx, userID)
	if err != nil {
		storeErrorStatus("failed to get medications", w, err)
		return
	}
	writeJSON(w, http.StatusOK, meds)
}

// MedicationByIDHandler returns one of the caller's medications. Another
// user's medication is reported as missing.
func (h Medication) MedicationByIDHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	med, err := h.DB.FindByID(ctx, mux.Vars(r)["id"])
	if errors.Is(err, models.ErrNotFound) || (err == nil && med.UserID != userID) {
		writeMessage(w, http.StatusNotFound, "Medication not found")
		return
	}
	if err != nil {
		storeErrorStatus("failed to get medication", w, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// CreateMedicationHandler adds a medication owned by the caller. Any id or
// owner in the body is ignored.
func (h Medication) CreateMedicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input models.MedicationInput
	if err := decodeBody(w, r, &input, maxBodyBytes); err != nil {
		decodeErrorStatus("failed to decode medication", w, err)
		return
	}

	med := models.Medication{UserID: userID, ReminderEnabled: true}
	applyMedicationInput(&med, input)
	if err := validateMedication(med); err != nil {
		config.ErrorStatus("invalid medication", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.DB.Insert(ctx, &med); err != nil {
		storeErrorStatus("failed to create medication", w, err)
		return
	}

	zap.S().Debugw("medication created", "userId", userID, "medicationId", med.ID.Hex())
	publish(h.Events, userID, EventMedicationCreated, med)
	writeJSON(w, http.StatusCreated, med)
}

// UpdateMedicationHandler applies the fields present in the body to one of
// the caller's medications. A missing record is 404, another user's record
// is 401.
func (h Medication) UpdateMedicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	med, ok := h.findOwned(ctx, w, mux.Vars(r)["id"], userID)
	if !ok {
		return
	}

	input := medicationInputFrom(*med)
	if err := decodeBody(w, r, &input, maxBodyBytes); err != nil {
		decodeErrorStatus("failed to decode medication", w, err)
		return
	}
	applyMedicationInput(med, input)
	if err := validateMedication(*med); err != nil {
		config.ErrorStatus("invalid medication", http.StatusBadRequest, w, err)
		return
	}

	if err := h.DB.Update(ctx, med); err != nil {
		storeErrorStatus("failed to update medication", w, err)
		return
	}

	publish(h.Events, userID, EventMedicationUpdated, med)
	writeJSON(w, http.StatusOK, med)
}

// DeleteMedicationHandler removes one of the caller's medications. Dose
// history and prescriptions are kept.
func (h Medication) DeleteMedicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	med, ok := h.findOwned(ctx, w, mux.Vars(r)["id"], userID)
	if !ok {
		return
	}

	if err := h.DB.Delete(ctx, med); err != nil {
		storeErrorStatus("failed to delete medication", w, err)
		return
	}

	zap.S().Debugw("medication deleted", "userId", userID, "medicationId", med.ID.Hex())
	publish(h.Events, userID, EventMedicationDeleted, map[string]string{"_id": med.ID.Hex()})
	writeMessage(w, http.StatusOK, "Medication removed")
}

// RefillMedicationHandler restores the supply to its total and stamps the
// refill date
func (h Medication) RefillMedicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	med, ok := h.findOwned(ctx, w, mux.Vars(r)["id"], userID)
	if !ok {
		return
	}

	med.CurrentSupply = med.TotalSupply
	med.LastRefillDate = time.Now().UTC().Format(time.RFC3339)
	if err := h.DB.Update(ctx, med); err != nil {
		storeErrorStatus("failed to refill medication", w, err)
		return
	}

	publish(h.Events, userID, EventMedicationRefilled, med)
	writeJSON(w, http.StatusOK, med)
}

// findOwned fetches a medication for a mutation, answering 404 when it is
// missing and 401 when it belongs to someone else
func (h Medication) findOwned(ctx context.Context, w http.ResponseWriter, id, userID string) (*models.Medication, bool) {
	med, err := h.DB.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Medication not found")
		return nil, false
	}
	if err != nil {
		storeErrorStatus("failed to get medication", w, err)
		return nil, false
	}
	if med.UserID != userID {
		zap.S().Warnw("medication ownership mismatch", "userId", userID, "medicationId", id)
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return nil, false
	}
	return med, true
}

func medicationInputFrom(m models.Medication) models.MedicationInput {
	reminder := m.ReminderEnabled
	return models.MedicationInput{
		Name:            m.Name,
		Dosage:          m.Dosage,
		Times:           m.Times,
		Frequency:       m.Frequency,
		StartDate:       m.StartDate,
		Duration:        m.Duration,
		Color:           m.Color,
		ReminderEnabled: &reminder,
		CurrentSupply:   m.CurrentSupply,
		TotalSupply:     m.TotalSupply,
		RefillAt:        m.RefillAt,
		RefillReminder:  m.RefillReminder,
		LastRefillDate:  m.LastRefillDate,
		Timezone:        m.Timezone,
		Notes:           m.Notes,
	}
}

func applyMedicationInput(m *models.Medication, in models.MedicationInput) {
	m.Name = strings.TrimSpace(in.Name)
	m.Dosage = strings.TrimSpace(in.Dosage)
	m.Times = progress.DistinctSlots(in.Times)
	m.Frequency = strings.TrimSpace(in.Frequency)
	m.StartDate = strings.TrimSpace(in.StartDate)
	m.Duration = strings.TrimSpace(in.Duration)
	m.Color = in.Color
	if in.ReminderEnabled != nil {
		m.ReminderEnabled = *in.ReminderEnabled
	}
	m.CurrentSupply = in.CurrentSupply
	m.TotalSupply = in.TotalSupply
	m.RefillAt = in.RefillAt
	m.RefillReminder = in.RefillReminder
	m.LastRefillDate = in.LastRefillDate
	m.Timezone = strings.TrimSpace(in.Timezone)
	if m.Timezone == "" {
		m.Timezone = models.DefaultMedicationTimezone
	}
	m.Notes = in.Notes
}

func validateMedication(m models.Medication) error {
	var missing []string
	if m.Name == "" {
		missing = append(missing, "name")
	}
	if m.Dosage == "" {
		missing = append(missing, "dosage")
	}
	if m.StartDate == "" {
		missing = append(missing, "startDate")
	}
	if m.Duration == "" {
		missing = append(missing, "duration")
	}
	if len(m.Times) == 0 && !m.IsAsNeeded() {
		missing = append(missing, "times")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is required", models.ErrValidation, strings.Join(missing, ", "))
	}

	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return fmt.Errorf("%w: unknown timezone %q", models.ErrValidation, m.Timezone)
	}
	if _, ok := progress.ParseStartDate(m.StartDate, loc); !ok {
		return fmt.Errorf("%w: startDate must be YYYY-MM-DD or RFC 3339", models.ErrValidation)
	}
	if m.CurrentSupply < 0 || m.TotalSupply < 0 || m.RefillAt < 0 {
		return fmt.Errorf("%w: supply values cannot be negative", models.ErrValidation)
	}
	return nil
}
