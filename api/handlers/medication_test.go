package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medassist/medassist-api/databases/mocks"
	"github.com/medassist/medassist-api/models"
)

const (
	ownerID    = "665f1c2ab1e4c3a9d0a1b2c3"
	strangerID = "665f1c2ab1e4c3a9d0a1ffff"
)

func sampleMedication(userID string) *models.Medication {
	return &models.Medication{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		Name:            "Lisinopril",
		Dosage:          "10mg",
		Times:           []string{"08:00", "20:00"},
		Frequency:       models.FrequencyTwiceDaily,
		StartDate:       "2024-05-01",
		Duration:        "30 days",
		ReminderEnabled: true,
		CurrentSupply:   12,
		TotalSupply:     60,
		RefillAt:        10,
		Timezone:        "UTC",
	}
}

func TestMedicationsHandler(t *testing.T) {
	mockDB := mocks.NewMedicationDatabase(t)
	mockDB.On("FindByUser", mock.Anything, ownerID).Return([]models.Medication{*sampleMedication(ownerID)}, nil)

	h := Medication{DB: mockDB}
	rr := httptest.NewRecorder()
	h.MedicationsHandler(rr, asUser(httptest.NewRequest("GET", "/api/medications", nil), ownerID))

	assert.Equal(t, http.StatusOK, rr.Code)
	var meds []models.Medication
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meds))
	require.Len(t, meds, 1)
	assert.Equal(t, "Lisinopril", meds[0].Name)
}

func TestMedicationsHandlerStorageFailure(t *testing.T) {
	mockDB := mocks.NewMedicationDatabase(t)
	mockDB.On("FindByUser", mock.Anything, ownerID).Return(nil, models.ErrStorage)

	h := Medication{DB: mockDB}
	rr := httptest.NewRecorder()
	h.MedicationsHandler(rr, asUser(httptest.NewRequest("GET", "/api/medications", nil), ownerID))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message": "Server Error"}`, rr.Body.String())
}

func TestMedicationByIDHandlerHidesForeignRecords(t *testing.T) {
	med := sampleMedication(strangerID)
	mockDB := mocks.NewMedicationDatabase(t)
	mockDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)

	h := Medication{DB: mockDB}
	req := asUser(httptest.NewRequest("GET", "/api/medications/"+med.ID.Hex(), nil), ownerID)
	req = mux.SetURLVars(req, map[string]string{"id": med.ID.Hex()})
	rr := httptest.NewRecorder()
	h.MedicationByIDHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateMedicationHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectInsert   bool
	}{
		{
			name: "valid scheduled medication",
			body: map[string]interface{}{
				"name": "Metformin", "dosage": "500mg", "times": []string{"08:00", "20:00", "08:00"},
				"frequency": "Twice daily", "startDate": "2024-05-01", "duration": "90 days",
				"userId": strangerID,
			},
			expectedStatus: http.StatusCreated,
			expectInsert:   true,
		},
		{
			name: "as needed without times",
			body: map[string]interface{}{
				"name": "Ibuprofen", "dosage": "200mg", "frequency": "As needed",
				"startDate": "2024-05-01", "duration": "Ongoing",
			},
			expectedStatus: http.StatusCreated,
			expectInsert:   true,
		},
		{
			name: "scheduled without times",
			body: map[string]interface{}{
				"name": "Metformin", "dosage": "500mg", "frequency": "Once daily",
				"startDate": "2024-05-01", "duration": "90 days",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name and dosage",
			body:           map[string]interface{}{"times": []string{"08:00"}, "startDate": "2024-05-01", "duration": "Ongoing"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unparsable start date",
			body: map[string]interface{}{
				"name": "Metformin", "dosage": "500mg", "times": []string{"08:00"},
				"startDate": "May first", "duration": "Ongoing",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown timezone",
			body: map[string]interface{}{
				"name": "Metformin", "dosage": "500mg", "times": []string{"08:00"},
				"startDate": "2024-05-01", "duration": "Ongoing", "timezone": "Mars/Olympus",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := mocks.NewMedicationDatabase(t)
			events := &recordingPublisher{}
			if tt.expectInsert {
				mockDB.On("Insert", mock.Anything, mock.AnythingOfType("*models.Medication")).Return(nil).Run(func(args mock.Arguments) {
					args.Get(1).(*models.Medication).ID = primitive.NewObjectID()
				})
			}

			h := Medication{DB: mockDB, Events: events}
			rr := httptest.NewRecorder()
			h.CreateMedicationHandler(rr, asUser(jsonRequest(t, "POST", "/api/medications", tt.body), ownerID))

			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			if !tt.expectInsert {
				mockDB.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
				assert.Empty(t, events.names())
				return
			}

			var created models.Medication
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
			assert.Equal(t, ownerID, created.UserID)
			assert.True(t, created.ReminderEnabled)
			assert.Equal(t, "UTC", created.Timezone)
			assert.Equal(t, []string{EventMedicationCreated}, events.names())
		})
	}
}

func TestCreateMedicationHandlerDeduplicatesTimes(t *testing.T) {
	mockDB := mocks.NewMedicationDatabase(t)
	var stored *models.Medication
	mockDB.On("Insert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.Medication)
	})

	body := map[string]interface{}{
		"name": "Metformin", "dosage": "500mg", "times": []string{"08:00", " 08:00", "20:00"},
		"startDate": "2024-05-01", "duration": "90 days", "reminderEnabled": false,
	}
	h := Medication{DB: mockDB}
	rr := httptest.NewRecorder()
	h.CreateMedicationHandler(rr, asUser(jsonRequest(t, "POST", "/api/medications", body), ownerID))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []string{"08:00", "20:00"}, stored.Times)
	assert.False(t, stored.ReminderEnabled)
}

func TestUpdateMedicationHandler(t *testing.T) {
	t.Run("missing record is 404", func(t *testing.T) {
		mockDB := mocks.NewMedicationDatabase(t)
		mockDB.On("FindByID", mock.Anything, "nope").Return(nil, models.ErrNotFound)

		h := Medication{DB: mockDB}
		req := mux.SetURLVars(asUser(jsonRequest(t, "PUT", "/api/medications/nope", map[string]string{"dosage": "20mg"}), ownerID), map[string]string{"id": "nope"})
		rr := httptest.NewRecorder()
		h.UpdateMedicationHandler(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"message": "Medication not found"}`, rr.Body.String())
	})

	t.Run("foreign record is 401 and untouched", func(t *testing.T) {
		med := sampleMedication(strangerID)
		mockDB := mocks.NewMedicationDatabase(t)
		mockDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)

		h := Medication{DB: mockDB}
		req := mux.SetURLVars(asUser(jsonRequest(t, "PUT", "/", map[string]string{"dosage": "20mg"}), ownerID), map[string]string{"id": med.ID.Hex()})
		rr := httptest.NewRecorder()
		h.UpdateMedicationHandler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"message": "Not authorized"}`, rr.Body.String())
		mockDB.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		med := sampleMedication(ownerID)
		mockDB := mocks.NewMedicationDatabase(t)
		mockDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
		mockDB.On("Update", mock.Anything, mock.Anything).Return(nil)

		events := &recordingPublisher{}
		h := Medication{DB: mockDB, Events: events}
		body := map[string]interface{}{"dosage": "20mg", "userId": strangerID, "_id": primitive.NewObjectID().Hex()}
		req := mux.SetURLVars(asUser(jsonRequest(t, "PUT", "/", body), ownerID), map[string]string{"id": med.ID.Hex()})
		rr := httptest.NewRecorder()
		h.UpdateMedicationHandler(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var updated models.Medication
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
		assert.Equal(t, med.ID, updated.ID)
		assert.Equal(t, ownerID, updated.UserID)
		assert.Equal(t, "20mg", updated.Dosage)
		assert.Equal(t, "Lisinopril", updated.Name)
		assert.Equal(t, []string{"08:00", "20:00"}, updated.Times)
		assert.Equal(t, []string{EventMedicationUpdated}, events.names())
	})

	t.Run("clearing a required field is rejected", func(t *testing.T) {
		med := sampleMedication(ownerID)
		mockDB := mocks.NewMedicationDatabase(t)
		mockDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)

		h := Medication{DB: mockDB}
		req := mux.SetURLVars(asUser(jsonRequest(t, "PUT", "/", map[string]string{"name": ""}), ownerID), map[string]string{"id": med.ID.Hex()})
		rr := httptest.NewRecorder()
		h.UpdateMedicationHandler(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockDB.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestDeleteMedicationHandler(t *testing.T) {
	t.Run("another user's medication is 401 and left unchanged", func(t *testing.T) {
		med := sampleMedication(strangerID)
		before := *med
		mockDB := mocks.NewMedicationDatabase(t)
		mockDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)

		events := &recordingPublisher{}
		h := Medication{DB: mockDB, Events: events}
		req := mux.SetURLVars(asUser(httptest.NewRequest("DELETE", "/", nil), ownerID), map[string]string{"id": med.ID.Hex()})
		rr := httptest.NewRecorder()
		h.DeleteMedicationHandler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockDB.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		mockDB.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		assert.Equal(t, before, *med)
		assert.Empty(t, events.names())
	})

	t.Run("missing medication is 404", func(t *testing.T) {
		mockDB := mocks.NewMedicationDatabase(t)
		mockDB.On("FindByID", mock.Anything, "not-a-hex-id").Return(nil, models.ErrNotFound)

		h := Medication{DB: mockDB}
		req := mux.SetURLVars(asUser(httptest.NewRequest("DELETE", "/", nil), ownerID), map[string]string{"id": "not-a-hex-id"})
		rr := httptest.NewRecorder()
		h.DeleteMedicationHandler(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		med := sampleMedication(ownerID)
		mockDB := mocks.NewMedicationDatabase(t)
		mockDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
		mockDB.On("Delete", mock.Anything, med).Return(nil)

		events := &recordingPublisher{}
		h := Medication{DB: mockDB, Events: events}
		req := mux.SetURLVars(asUser(httptest.NewRequest("DELETE", "/", nil), ownerID), map[string]string{"id": med.ID.Hex()})
		rr := httptest.NewRecorder()
		h.DeleteMedicationHandler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message": "Medication removed"}`, rr.Body.String())
		assert.Equal(t, []string{EventMedicationDeleted}, events.names())
	})

	t.Run("storage failure is a generic 500", func(t *testing.T) {
		med := sampleMedication(ownerID)
		mockDB := mocks.NewMedicationDatabase(t)
		mockDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
		mockDB.On("Delete", mock.Anything, med).Return(errors.New("connection reset"))

		h := Medication{DB: mockDB}
		req := mux.SetURLVars(asUser(httptest.NewRequest("DELETE", "/", nil), ownerID), map[string]string{"id": med.ID.Hex()})
		rr := httptest.NewRecorder()
		h.DeleteMedicationHandler(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "connection reset")
	})
}

func TestRefillMedicationHandler(t *testing.T) {
	med := sampleMedication(ownerID)
	mockDB := mocks.NewMedicationDatabase(t)
	mockDB.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
	mockDB.On("Update", mock.Anything, med).Return(nil)

	events := &recordingPublisher{}
	h := Medication{DB: mockDB, Events: events}
	req := mux.SetURLVars(asUser(httptest.NewRequest("POST", "/", nil), ownerID), map[string]string{"id": med.ID.Hex()})
	rr := httptest.NewRecorder()
	h.RefillMedicationHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var refilled models.Medication
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &refilled))
	assert.Equal(t, 60, refilled.CurrentSupply)
	assert.NotEmpty(t, refilled.LastRefillDate)
	assert.Equal(t, []string{EventMedicationRefilled}, events.names())
}

func TestMedicationHandlersWithoutCaller(t *testing.T) {
	h := Medication{DB: mocks.NewMedicationDatabase(t)}
	rr := httptest.NewRecorder()
	h.MedicationsHandler(rr, httptest.NewRequest("GET", "/api/medications", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateMedicationHandlerBodyTooLarge(t *testing.T) {
	mockDB := mocks.NewMedicationDatabase(t)
	h := Medication{DB: mockDB}
	body := map[string]interface{}{"name": "Metformin", "dosage": strings.Repeat("5", maxBodyBytes)}
	rr := httptest.NewRecorder()
	h.CreateMedicationHandler(rr, asUser(jsonRequest(t, "POST", "/api/medications", body), ownerID))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.JSONEq(t, `{"message": "Request body is too large"}`, rr.Body.String())
	mockDB.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}
