package handlers

import (
	"net/http"
	"time"

	"github.com/medassist/medassist-api/api"
	"github.com/medassist/medassist-api/config"
	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/progress"
)

// Progress exported for testing purposes
type Progress struct {
	MDB databases.MedicationDatabase
	DDB databases.DoseHistoryDatabase
	Now func() time.Time
}

// TodayProgressHandler computes the dashboard summary for the caller's
// current day in the tz query timezone
func (h Progress) TodayProgressHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	loc, err := requestLocation(r)
	if err != nil {
		config.ErrorStatus("invalid timezone", http.StatusBadRequest, w, err)
		return
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	now = now.In(loc)
	from, to := progress.DayBounds(now)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	meds, err := h.MDB.FindByUser(ctx, userID)
	if err != nil {
		storeErrorStatus("failed to get medications", w, err)
		return
	}
	doses, err := h.DDB.FindByUserBetween(ctx, userID, from, to)
	if err != nil {
		storeErrorStatus("failed to get today's doses", w, err)
		return
	}

	writeJSON(w, http.StatusOK, progress.Compute(meds, doses, now))
}
