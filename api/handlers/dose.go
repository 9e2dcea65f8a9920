package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
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

// maxDosePage bounds the page query of the dose history
const maxDosePage = 100000

// Dose exported for testing purposes
type Dose struct {
	DB     databases.DoseHistoryDatabase
	MDB    databases.MedicationDatabase
	Events Publisher
	Now    func() time.Time
}

// DosesByMedicationHandler returns the caller's dose history for one of
// their medications, newest first. limit and page are optional.
func (h Dose) DosesByMedicationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	medicationID := mux.Vars(r)["medicationId"]

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if limit > databases.MaxPageSize {
		limit = databases.MaxPageSize
	}
	if page > maxDosePage {
		writeMessage(w, http.StatusBadRequest, "page is out of range")
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, ok := h.ownedMedication(ctx, w, medicationID, userID); !ok {
		return
	}

	doses, err := h.DB.FindByMedication(ctx, userID, medicationID, limit, page)
	if err != nil {
		storeErrorStatus("failed to get dose history", w, err)
		return
	}
	writeJSON(w, http.StatusOK, doses)
}

// TodayDosesHandler returns the caller's doses recorded on the current
// calendar day in the tz query timezone (UTC by default)
func (h Dose) TodayDosesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	loc, err := requestLocation(r)
	if err != nil {
		config.ErrorStatus("invalid timezone", http.StatusBadRequest, w, err)
		return
	}
	from, to := progress.DayBounds(h.now().In(loc))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	doses, err := h.DB.FindByUserBetween(ctx, userID, from, to)
	if err != nil {
		storeErrorStatus("failed to get today's doses", w, err)
		return
	}
	writeJSON(w, http.StatusOK, doses)
}

// CreateDoseHandler records a dose against one of the caller's medications.
// Duplicate doses are accepted; the dashboard warns about them.
func (h Dose) CreateDoseHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input models.DoseInput
	if err := decodeBody(w, r, &input, maxBodyBytes); err != nil {
		decodeErrorStatus("failed to decode dose", w, err)
		return
	}
	if strings.TrimSpace(input.MedicationID) == "" || strings.TrimSpace(input.Timestamp) == "" || input.Taken == nil {
		config.ErrorStatus("invalid dose", http.StatusBadRequest, w,
			fmt.Errorf("%w: medicationId, timestamp and taken are required", models.ErrValidation))
		return
	}
	ts, err := parseDoseTimestamp(input.Timestamp)
	if err != nil {
		config.ErrorStatus("invalid dose", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	med, ok := h.ownedMedication(ctx, w, input.MedicationID, userID)
	if !ok {
		return
	}

	dose := models.DoseHistory{
		UserID:       userID,
		MedicationID: med.ID.Hex(),
		Timestamp:    ts,
		Taken:        *input.Taken,
	}
	if input.ScheduledTime != nil {
		dose.ScheduledTime = strings.TrimSpace(*input.ScheduledTime)
	}
	if dose.ScheduledTime == "" && med.IsAsNeeded() {
		dose.ScheduledTime = models.AsNeededSlot
	}

	if err := h.DB.Insert(ctx, &dose); err != nil {
		storeErrorStatus("failed to record dose", w, err)
		return
	}

	zap.S().Debugw("dose recorded", "userId", userID, "medicationId", dose.MedicationID, "slot", dose.ScheduledTime)
	publish(h.Events, userID, EventDoseRecorded, dose)
	writeJSON(w, http.StatusCreated, dose)
}

// UpdateDoseHandler corrects one of the caller's dose records. Missing and
// foreign records are both reported as 404, and a dose can only be moved to
// another medication the caller owns.
func (h Dose) UpdateDoseHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dose, err := h.DB.FindByID(ctx, mux.Vars(r)["id"])
	if errors.Is(err, models.ErrNotFound) || (err == nil && dose.UserID != userID) {
		writeMessage(w, http.StatusNotFound, "Dose record not found")
		return
	}
	if err != nil {
		storeErrorStatus("failed to get dose", w, err)
		return
	}

	var input models.DoseInput
	if err := decodeBody(w, r, &input, maxBodyBytes); err != nil {
		decodeErrorStatus("failed to decode dose", w, err)
		return
	}

	if id := strings.TrimSpace(input.MedicationID); id != "" && id != dose.MedicationID {
		med, ok := h.ownedMedication(ctx, w, id, userID)
		if !ok {
			return
		}
		dose.MedicationID = med.ID.Hex()
	}
	if strings.TrimSpace(input.Timestamp) != "" {
		ts, err := parseDoseTimestamp(input.Timestamp)
		if err != nil {
			config.ErrorStatus("invalid dose", http.StatusBadRequest, w, err)
			return
		}
		dose.Timestamp = ts
	}
	if input.Taken != nil {
		dose.Taken = *input.Taken
	}
	if input.ScheduledTime != nil {
		dose.ScheduledTime = strings.TrimSpace(*input.ScheduledTime)
	}

	if err := h.DB.Update(ctx, dose); err != nil {
		storeErrorStatus("failed to update dose", w, err)
		return
	}

	publish(h.Events, userID, EventDoseUpdated, dose)
	writeJSON(w, http.StatusOK, dose)
}

// ownedMedication loads a medication the caller must own. Missing and
// foreign medications are both 404 on dose routes.
func (h Dose) ownedMedication(ctx context.Context, w http.ResponseWriter, id, userID string) (*models.Medication, bool) {
	med, err := h.MDB.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) || (err == nil && med.UserID != userID) {
		writeMessage(w, http.StatusNotFound, "Medication not found")
		return nil, false
	}
	if err != nil {
		storeErrorStatus("failed to get medication", w, err)
		return nil, false
	}
	return med, true
}

func (h Dose) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// parseDoseTimestamp reads an ISO-8601 timestamp and keeps the millisecond
// precision the document store holds, in UTC, so a dose reads back exactly
// as it was written
func parseDoseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp must be RFC 3339", models.ErrValidation)
	}
	return ts.UTC().Truncate(time.Millisecond), nil
}

// requestLocation reads the tz query parameter
func requestLocation(r *http.Request) (*time.Location, error) {
	tz := strings.TrimSpace(r.URL.Query().Get("tz"))
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", models.ErrValidation, tz)
	}
	return loc, nil
}
