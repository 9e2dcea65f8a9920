package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/databases/mocks"
	"github.com/medassist/medassist-api/models"
)

func TestCreateDoseRoundTrip(t *testing.T) {
	med := sampleMedication(ownerID)
	medDB := mocks.NewMedicationDatabase(t)
	medDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)

	// an in-memory collection standing in for dosehistories
	var stored []models.DoseHistory
	doseDB := mocks.NewDoseHistoryDatabase(t)
	doseDB.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		d := args.Get(1).(*models.DoseHistory)
		d.ID = primitive.NewObjectID()
		stored = append(stored, *d)
	})
	doseDB.On("FindByMedication", mock.Anything, ownerID, med.ID.Hex(), 0, 0).Return(
		func(context.Context, string, string, int, int) []models.DoseHistory { return stored }, nil)

	events := &recordingPublisher{}
	h := Dose{DB: doseDB, MDB: medDB, Events: events}

	body := map[string]interface{}{
		"medicationId":  med.ID.Hex(),
		"timestamp":     "2024-05-02T08:01:30.250Z",
		"taken":         true,
		"scheduledTime": "08:00",
	}
	rr := httptest.NewRecorder()
	h.CreateDoseHandler(rr, asUser(jsonRequest(t, "POST", "/api/doses", body), ownerID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created models.DoseHistory
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	req := mux.SetURLVars(asUser(httptest.NewRequest("GET", "/", nil), ownerID), map[string]string{"medicationId": med.ID.Hex()})
	rr = httptest.NewRecorder()
	h.DosesByMedicationHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var history []models.DoseHistory
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, created.ID, history[0].ID)
	assert.Equal(t, med.ID.Hex(), history[0].MedicationID)
	assert.Equal(t, ownerID, history[0].UserID)
	assert.True(t, history[0].Taken)
	assert.Equal(t, "08:00", history[0].ScheduledTime)
	want := time.Date(2024, 5, 2, 8, 1, 30, 250*int(time.Millisecond), time.UTC)
	assert.True(t, want.Equal(history[0].Timestamp), "got %s", history[0].Timestamp)
	assert.Equal(t, []string{EventDoseRecorded}, events.names())
}

func TestCreateDoseAcceptsDuplicates(t *testing.T) {
	med := sampleMedication(ownerID)
	medDB := mocks.NewMedicationDatabase(t)
	medDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
	doseDB := mocks.NewDoseHistoryDatabase(t)
	doseDB.On("Insert", mock.Anything, mock.Anything).Return(nil).Twice()

	h := Dose{DB: doseDB, MDB: medDB}
	body := map[string]interface{}{"medicationId": med.ID.Hex(), "timestamp": "2024-05-02T08:00:00Z", "taken": true, "scheduledTime": "08:00"}
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.CreateDoseHandler(rr, asUser(jsonRequest(t, "POST", "/api/doses", body), ownerID))
		assert.Equal(t, http.StatusCreated, rr.Code)
	}
}

func TestCreateDoseHandlerRejections(t *testing.T) {
	foreign := sampleMedication(strangerID)

	tests := []struct {
		name           string
		body           map[string]interface{}
		setup          func(medDB *mocks.MedicationDatabase)
		expectedStatus int
	}{
		{
			name:           "missing taken",
			body:           map[string]interface{}{"medicationId": foreign.ID.Hex(), "timestamp": "2024-05-02T08:00:00Z"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad timestamp",
			body:           map[string]interface{}{"medicationId": foreign.ID.Hex(), "timestamp": "yesterday", "taken": true},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "another user's medication",
			body: map[string]interface{}{"medicationId": foreign.ID.Hex(), "timestamp": "2024-05-02T08:00:00Z", "taken": true},
			setup: func(medDB *mocks.MedicationDatabase) {
				medDB.On("FindByID", mock.Anything, foreign.ID.Hex()).Return(foreign, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "missing medication",
			body: map[string]interface{}{"medicationId": "abc", "timestamp": "2024-05-02T08:00:00Z", "taken": false},
			setup: func(medDB *mocks.MedicationDatabase) {
				medDB.On("FindByID", mock.Anything, "abc").Return(nil, models.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "storage failure",
			body: map[string]interface{}{"medicationId": "abc", "timestamp": "2024-05-02T08:00:00Z", "taken": true},
			setup: func(medDB *mocks.MedicationDatabase) {
				medDB.On("FindByID", mock.Anything, "abc").Return(nil, models.ErrStorage)
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			medDB := mocks.NewMedicationDatabase(t)
			doseDB := mocks.NewDoseHistoryDatabase(t)
			if tt.setup != nil {
				tt.setup(medDB)
			}

			h := Dose{DB: doseDB, MDB: medDB}
			rr := httptest.NewRecorder()
			h.CreateDoseHandler(rr, asUser(jsonRequest(t, "POST", "/api/doses", tt.body), ownerID))

			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			doseDB.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateDoseDefaultsAsNeededSlot(t *testing.T) {
	med := sampleMedication(ownerID)
	med.Frequency = models.FrequencyAsNeeded
	med.Times = nil
	medDB := mocks.NewMedicationDatabase(t)
	medDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)

	var stored models.DoseHistory
	doseDB := mocks.NewDoseHistoryDatabase(t)
	doseDB.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		stored = *args.Get(1).(*models.DoseHistory)
	})

	h := Dose{DB: doseDB, MDB: medDB}
	body := map[string]interface{}{"medicationId": med.ID.Hex(), "timestamp": "2024-05-02T13:00:00+02:00", "taken": true}
	rr := httptest.NewRecorder()
	h.CreateDoseHandler(rr, asUser(jsonRequest(t, "POST", "/api/doses", body), ownerID))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.AsNeededSlot, stored.ScheduledTime)
	assert.Equal(t, time.UTC, stored.Timestamp.Location())
	assert.Equal(t, 11, stored.Timestamp.Hour())
}

func TestDosesByMedicationHidesForeignMedication(t *testing.T) {
	foreign := sampleMedication(strangerID)
	medDB := mocks.NewMedicationDatabase(t)
	medDB.On("FindByID", mock.Anything, foreign.ID.Hex()).Return(foreign, nil)
	doseDB := mocks.NewDoseHistoryDatabase(t)

	h := Dose{DB: doseDB, MDB: medDB}
	req := mux.SetURLVars(asUser(httptest.NewRequest("GET", "/", nil), ownerID), map[string]string{"medicationId": foreign.ID.Hex()})
	rr := httptest.NewRecorder()
	h.DosesByMedicationHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	doseDB.AssertNotCalled(t, "FindByMedication", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDosesByMedicationPagination(t *testing.T) {
	med := sampleMedication(ownerID)
	medDB := mocks.NewMedicationDatabase(t)
	medDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
	doseDB := mocks.NewDoseHistoryDatabase(t)
	doseDB.On("FindByMedication", mock.Anything, ownerID, med.ID.Hex(), 10, 2).Return([]models.DoseHistory{}, nil)

	h := Dose{DB: doseDB, MDB: medDB}
	req := mux.SetURLVars(asUser(httptest.NewRequest("GET", "/?limit=10&page=2", nil), ownerID), map[string]string{"medicationId": med.ID.Hex()})
	rr := httptest.NewRecorder()
	h.DosesByMedicationHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestDosesByMedicationPageBounds(t *testing.T) {
	med := sampleMedication(ownerID)

	t.Run("limit is capped", func(t *testing.T) {
		medDB := mocks.NewMedicationDatabase(t)
		medDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
		doseDB := mocks.NewDoseHistoryDatabase(t)
		doseDB.On("FindByMedication", mock.Anything, ownerID, med.ID.Hex(), databases.MaxPageSize, 1).Return([]models.DoseHistory{}, nil)

		h := Dose{DB: doseDB, MDB: medDB}
		req := mux.SetURLVars(asUser(httptest.NewRequest("GET", "/?limit=100000&page=1", nil), ownerID), map[string]string{"medicationId": med.ID.Hex()})
		rr := httptest.NewRecorder()
		h.DosesByMedicationHandler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("huge page is rejected", func(t *testing.T) {
		h := Dose{DB: mocks.NewDoseHistoryDatabase(t), MDB: mocks.NewMedicationDatabase(t)}
		req := mux.SetURLVars(asUser(httptest.NewRequest("GET", "/?limit=50&page=9223372036854775807", nil), ownerID), map[string]string{"medicationId": med.ID.Hex()})
		rr := httptest.NewRecorder()
		h.DosesByMedicationHandler(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUpdateDoseHandler(t *testing.T) {
	med := sampleMedication(ownerID)
	dose := func(userID string) *models.DoseHistory {
		return &models.DoseHistory{
			ID:            primitive.NewObjectID(),
			UserID:        userID,
			MedicationID:  med.ID.Hex(),
			Timestamp:     time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
			Taken:         true,
			ScheduledTime: "08:00",
		}
	}

	t.Run("foreign dose is 404", func(t *testing.T) {
		d := dose(strangerID)
		doseDB := mocks.NewDoseHistoryDatabase(t)
		doseDB.On("FindByID", mock.Anything, d.ID.Hex()).Return(d, nil)

		h := Dose{DB: doseDB, MDB: mocks.NewMedicationDatabase(t)}
		req := mux.SetURLVars(asUser(jsonRequest(t, "PUT", "/", map[string]bool{"taken": false}), ownerID), map[string]string{"id": d.ID.Hex()})
		rr := httptest.NewRecorder()
		h.UpdateDoseHandler(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"message": "Dose record not found"}`, rr.Body.String())
		doseDB.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("cannot move to another user's medication", func(t *testing.T) {
		d := dose(ownerID)
		foreign := sampleMedication(strangerID)
		doseDB := mocks.NewDoseHistoryDatabase(t)
		doseDB.On("FindByID", mock.Anything, d.ID.Hex()).Return(d, nil)
		medDB := mocks.NewMedicationDatabase(t)
		medDB.On("FindByID", mock.Anything, foreign.ID.Hex()).Return(foreign, nil)

		h := Dose{DB: doseDB, MDB: medDB}
		req := mux.SetURLVars(asUser(jsonRequest(t, "PUT", "/", map[string]string{"medicationId": foreign.ID.Hex()}), ownerID), map[string]string{"id": d.ID.Hex()})
		rr := httptest.NewRecorder()
		h.UpdateDoseHandler(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		doseDB.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("owner corrects a dose", func(t *testing.T) {
		d := dose(ownerID)
		doseDB := mocks.NewDoseHistoryDatabase(t)
		doseDB.On("FindByID", mock.Anything, d.ID.Hex()).Return(d, nil)
		doseDB.On("Update", mock.Anything, d).Return(nil)

		events := &recordingPublisher{}
		h := Dose{DB: doseDB, MDB: mocks.NewMedicationDatabase(t), Events: events}
		body := map[string]interface{}{"taken": false, "scheduledTime": "20:00", "userId": strangerID}
		req := mux.SetURLVars(asUser(jsonRequest(t, "PUT", "/", body), ownerID), map[string]string{"id": d.ID.Hex()})
		rr := httptest.NewRecorder()
		h.UpdateDoseHandler(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var updated models.DoseHistory
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
		assert.False(t, updated.Taken)
		assert.Equal(t, "20:00", updated.ScheduledTime)
		assert.Equal(t, ownerID, updated.UserID)
		assert.Equal(t, med.ID.Hex(), updated.MedicationID)
		assert.Equal(t, []string{EventDoseUpdated}, events.names())
	})
}

func TestTodayDosesHandlerUsesRequestTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2024, 5, 2, 1, 30, 0, 0, time.UTC) // 21:30 on May 1 in New York
	wantFrom := time.Date(2024, 5, 1, 0, 0, 0, 0, loc)
	wantTo := time.Date(2024, 5, 2, 0, 0, 0, 0, loc)

	doseDB := mocks.NewDoseHistoryDatabase(t)
	doseDB.On("FindByUserBetween", mock.Anything, ownerID,
		mock.MatchedBy(func(from time.Time) bool { return from.Equal(wantFrom) }),
		mock.MatchedBy(func(to time.Time) bool { return to.Equal(wantTo) }),
	).Return([]models.DoseHistory{}, nil)

	h := Dose{DB: doseDB, MDB: mocks.NewMedicationDatabase(t), Now: func() time.Time { return now }}
	rr := httptest.NewRecorder()
	h.TodayDosesHandler(rr, asUser(httptest.NewRequest("GET", "/api/doses/today?tz=America/New_York", nil), ownerID))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTodayDosesHandlerRejectsUnknownTimezone(t *testing.T) {
	h := Dose{DB: mocks.NewDoseHistoryDatabase(t), MDB: mocks.NewMedicationDatabase(t)}
	rr := httptest.NewRecorder()
	h.TodayDosesHandler(rr, asUser(httptest.NewRequest("GET", "/api/doses/today?tz=Nowhere/Land", nil), ownerID))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
