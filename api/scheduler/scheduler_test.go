package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medassist/medassist-api/databases/mocks"
	"github.com/medassist/medassist-api/models"
	notifymocks "github.com/medassist/medassist-api/notifications/mocks"
)

type fixture struct {
	s      *Scheduler
	medDB  *mocks.MedicationDatabase
	pushDB *mocks.PushTokenDatabase
	userDB *mocks.UserDatabase
	lockDB *mocks.SchedulerLockDatabase
	pusher *notifymocks.Pusher
	mailer *notifymocks.Mailer
}

func newFixture(withMailer bool) fixture {
	f := fixture{
		medDB:  &mocks.MedicationDatabase{},
		pushDB: &mocks.PushTokenDatabase{},
		userDB: &mocks.UserDatabase{},
		lockDB: &mocks.SchedulerLockDatabase{},
		pusher: &notifymocks.Pusher{},
		mailer: &notifymocks.Mailer{},
	}
	if withMailer {
		f.s = NewScheduler(f.medDB, f.pushDB, f.userDB, f.lockDB, f.pusher, f.mailer)
	} else {
		f.s = NewScheduler(f.medDB, f.pushDB, f.userDB, f.lockDB, f.pusher, nil)
	}
	return f
}

func med(user, tz string, times ...string) models.Medication {
	return models.Medication{
		ID:              primitive.NewObjectID(),
		UserID:          user,
		Name:            "Aspirin",
		Dosage:          "100mg",
		Times:           times,
		Frequency:       models.FrequencyOnceDaily,
		StartDate:       "2026-01-01",
		Duration:        models.DurationOngoing,
		ReminderEnabled: true,
		Timezone:        tz,
	}
}

func TestDueSlotUsesMedicationTimezone(t *testing.T) {
	// 13:00 UTC is 09:00 in New York during daylight saving time
	now := time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC)

	slot, due := dueSlot(med("u1", "America/New_York", "09:00", "21:00"), now)
	assert.True(t, due)
	assert.Equal(t, "09:00", slot)

	_, due = dueSlot(med("u1", "UTC", "09:00"), now)
	assert.False(t, due)

	_, due = dueSlot(med("u1", "", "13:00"), now)
	assert.True(t, due)

	_, due = dueSlot(med("u1", "Not/AZone", "13:00"), now)
	assert.True(t, due)
}

func TestDueSlotSkipsInactiveAndAsNeeded(t *testing.T) {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	expired := med("u1", "UTC", "08:00")
	expired.Duration = "7 days"
	_, due := dueSlot(expired, now)
	assert.False(t, due)

	asNeeded := med("u1", "UTC", "08:00")
	asNeeded.Frequency = models.FrequencyAsNeeded
	_, due = dueSlot(asNeeded, now)
	assert.False(t, due)

	off := med("u1", "UTC", "08:00")
	off.ReminderEnabled = false
	_, due = dueSlot(off, now)
	assert.False(t, due)
}

func TestSlotMatchesTwelveHourLabels(t *testing.T) {
	at := time.Date(2026, 6, 1, 20, 30, 0, 0, time.UTC)
	assert.True(t, slotMatches("8:30 PM", at))
	assert.True(t, slotMatches("20:30", at))
	assert.False(t, slotMatches("8:30 AM", at))
	assert.False(t, slotMatches("soon", at))
}

func TestRunDoseRemindersSendsDueOnly(t *testing.T) {
	f := newFixture(false)
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	due := med("u1", "UTC", "08:00")
	notDue := med("u2", "UTC", "09:00")
	f.medDB.On("FindReminderCandidates", mock.Anything).Return([]models.Medication{due, notDue}, nil)
	f.pushDB.On("FindByUser", mock.Anything, "u1").Return([]models.PushToken{{UserID: "u1", Token: "tok-1"}, {UserID: "u1", Token: "tok-stale"}}, nil)
	f.pusher.On("Send", mock.Anything, []string{"tok-1", "tok-stale"}, "Medication Reminder", "Time to take Aspirin (100mg)", mock.Anything).
		Return([]string{"tok-stale"}, nil)
	f.pushDB.On("Delete", mock.Anything, "u1", "tok-stale").Return(nil)

	sent := f.s.runDoseReminders(context.Background(), now)

	assert.Equal(t, 1, sent)
	f.pusher.AssertExpectations(t)
	f.pushDB.AssertExpectations(t)
	f.pushDB.AssertNotCalled(t, "FindByUser", mock.Anything, "u2")
}

func TestRunDoseRemindersContinuesAfterFailure(t *testing.T) {
	f := newFixture(false)
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	first := med("u1", "UTC", "08:00")
	second := med("u2", "UTC", "08:00")
	f.medDB.On("FindReminderCandidates", mock.Anything).Return([]models.Medication{first, second}, nil)
	f.pushDB.On("FindByUser", mock.Anything, "u1").Return(nil, errors.New("mocked-error"))
	f.pushDB.On("FindByUser", mock.Anything, "u2").Return([]models.PushToken{{Token: "tok-2"}}, nil)
	f.pusher.On("Send", mock.Anything, []string{"tok-2"}, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	sent := f.s.runDoseReminders(context.Background(), now)

	assert.Equal(t, 1, sent)
	f.pusher.AssertExpectations(t)
}

func TestRunRefillRemindersPushAndEmail(t *testing.T) {
	f := newFixture(true)

	low := med("u1", "UTC", "08:00")
	low.RefillReminder = true
	low.TotalSupply = 30
	low.CurrentSupply = 3
	low.RefillAt = 5
	f.medDB.On("FindRefillCandidates", mock.Anything).Return([]models.Medication{low}, nil)
	f.pushDB.On("FindByUser", mock.Anything, "u1").Return([]models.PushToken{{Token: "tok-1"}}, nil)
	f.pusher.On("Send", mock.Anything, []string{"tok-1"}, "Refill Reminder", "Only 3 left of Aspirin. Time to refill.", mock.Anything).Return(nil, nil)
	f.userDB.On("FindByID", mock.Anything, "u1").Return(&models.User{Email: "jane@example.com", Name: "Jane"}, nil)
	f.mailer.On("SendRefillReminder", mock.Anything, "jane@example.com", "Jane", low).Return(nil)

	notified := f.s.runRefillReminders(context.Background())

	assert.Equal(t, 1, notified)
	f.pusher.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestRunRefillRemindersWithoutMailer(t *testing.T) {
	f := newFixture(false)

	low := med("u1", "UTC", "08:00")
	low.RefillReminder = true
	low.TotalSupply = 30
	low.CurrentSupply = 0
	f.medDB.On("FindRefillCandidates", mock.Anything).Return([]models.Medication{low}, nil)
	f.pushDB.On("FindByUser", mock.Anything, "u1").Return([]models.PushToken{}, nil)

	notified := f.s.runRefillReminders(context.Background())

	assert.Equal(t, 1, notified)
	f.pusher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.userDB.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestSendDoseRemindersSkipsWhenLockHeld(t *testing.T) {
	f := newFixture(false)
	f.lockDB.On("TryAcquireLock", mock.Anything, doseReminderJob, mock.Anything, doseReminderLockTTL).Return(false, nil)

	f.s.sendDoseReminders()

	f.medDB.AssertNotCalled(t, "FindReminderCandidates", mock.Anything)
}

func TestSendDoseRemindersRunsWithLock(t *testing.T) {
	f := newFixture(false)
	f.s.now = func() time.Time { return time.Date(2026, 6, 1, 8, 0, 42, 0, time.UTC) }
	f.lockDB.On("TryAcquireLock", mock.Anything, doseReminderJob, mock.Anything, doseReminderLockTTL).Return(true, nil)
	f.medDB.On("FindReminderCandidates", mock.Anything).Return([]models.Medication{}, nil)

	f.s.sendDoseReminders()

	f.medDB.AssertExpectations(t)
	f.lockDB.AssertNotCalled(t, "ReleaseLock", mock.Anything, mock.Anything, mock.Anything)
}
