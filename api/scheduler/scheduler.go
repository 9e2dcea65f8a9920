package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/models"
	"github.com/medassist/medassist-api/notifications"
	"github.com/medassist/medassist-api/progress"
)

const (
	doseReminderJob   = "dose_reminders"
	refillReminderJob = "refill_reminders"

	// locks are left to expire instead of being released so a second
	// instance cannot rerun a job in the same window
	doseReminderLockTTL   = 50 * time.Second
	refillReminderLockTTL = time.Hour
)

var slotLayouts = []string{"15:04", "3:04 PM", "3:04PM", "3:04 pm"}

// Scheduler sends dose and refill reminders
type Scheduler struct {
	cron       *cron.Cron
	MedDB      databases.MedicationDatabase
	PushDB     databases.PushTokenDatabase
	UDB        databases.UserDatabase
	LockDB     databases.SchedulerLockDatabase
	Pusher     notifications.Pusher
	Mailer     notifications.Mailer
	instanceID string
	now        func() time.Time
}

// NewScheduler creates a new scheduler instance. mailer may be nil, in which
// case refill reminders are push only.
func NewScheduler(
	medDB databases.MedicationDatabase,
	pushDB databases.PushTokenDatabase,
	uDB databases.UserDatabase,
	lockDB databases.SchedulerLockDatabase,
	pusher notifications.Pusher,
	mailer notifications.Mailer,
) *Scheduler {
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		host, _ := os.Hostname()
		instanceID = fmt.Sprintf("%s-%s", host, uuid.New().String()[:8])
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		MedDB:      medDB,
		PushDB:     pushDB,
		UDB:        uDB,
		LockDB:     lockDB,
		Pusher:     pusher,
		Mailer:     mailer,
		instanceID: instanceID,
		now:        time.Now,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Dose reminders are matched against each medication's local HH:MM
	_, err := s.cron.AddFunc("* * * * *", s.sendDoseReminders)
	if err != nil {
		zap.S().Errorw("failed to register dose reminder job", "error", err)
	}

	// Refill check daily at 9 AM UTC
	_, err = s.cron.AddFunc("0 9 * * *", s.sendRefillReminders)
	if err != nil {
		zap.S().Errorw("failed to register refill reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Infow("Reminder scheduler started", "instance", s.instanceID)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Reminder scheduler stopped")
}

func (s *Scheduler) sendDoseReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
	defer cancel()

	if !s.acquire(ctx, doseReminderJob, doseReminderLockTTL) {
		return
	}
	s.runDoseReminders(ctx, s.now().Truncate(time.Minute))
}

// runDoseReminders pushes a reminder for every medication with a slot at the
// current minute in the medication's timezone. Each medication is handled on
// its own; a failure is logged and the run moves on.
func (s *Scheduler) runDoseReminders(ctx context.Context, now time.Time) int {
	meds, err := s.MedDB.FindReminderCandidates(ctx)
	if err != nil {
		zap.S().Errorw("failed to load reminder candidates", "error", err)
		return 0
	}

	tokens := newTokenCache(s.PushDB)
	sent := 0
	for _, med := range meds {
		slot, due := dueSlot(med, now)
		if !due {
			continue
		}
		userTokens, err := tokens.get(ctx, med.UserID)
		if err != nil {
			zap.S().Errorw("failed to load push tokens", "userId", med.UserID, "error", err)
			continue
		}
		if len(userTokens) == 0 {
			continue
		}

		title := "Medication Reminder"
		body := fmt.Sprintf("Time to take %s (%s)", med.Name, med.Dosage)
		data := map[string]interface{}{
			"type":          "dose_reminder",
			"medicationId":  med.ID.Hex(),
			"scheduledTime": slot,
		}
		invalid, err := s.Pusher.Send(ctx, userTokens, title, body, data)
		if err != nil {
			zap.S().Errorw("failed to send dose reminder", "medicationId", med.ID.Hex(), "error", err)
		}
		s.pruneTokens(ctx, med.UserID, invalid)
		sent++
	}

	zap.S().Debugw("dose reminder run finished", "candidates", len(meds), "sent", sent)
	return sent
}

func (s *Scheduler) sendRefillReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if !s.acquire(ctx, refillReminderJob, refillReminderLockTTL) {
		return
	}
	s.runRefillReminders(ctx)
}

// runRefillReminders notifies owners of medications whose supply reached the
// refill threshold, by push and, when configured, by email.
func (s *Scheduler) runRefillReminders(ctx context.Context) int {
	meds, err := s.MedDB.FindRefillCandidates(ctx)
	if err != nil {
		zap.S().Errorw("failed to load refill candidates", "error", err)
		return 0
	}

	zap.S().Infow("Running refill reminder job", "instance", s.instanceID, "candidates", len(meds))

	tokens := newTokenCache(s.PushDB)
	notified := 0
	for _, med := range meds {
		if !med.RefillReminder || !med.NeedsRefill() {
			continue
		}

		userTokens, err := tokens.get(ctx, med.UserID)
		if err != nil {
			zap.S().Errorw("failed to load push tokens", "userId", med.UserID, "error", err)
		}
		if len(userTokens) > 0 {
			body := fmt.Sprintf("Only %d left of %s. Time to refill.", med.CurrentSupply, med.Name)
			data := map[string]interface{}{
				"type":         "refill_reminder",
				"medicationId": med.ID.Hex(),
			}
			invalid, err := s.Pusher.Send(ctx, userTokens, "Refill Reminder", body, data)
			if err != nil {
				zap.S().Errorw("failed to send refill push", "medicationId", med.ID.Hex(), "error", err)
			}
			s.pruneTokens(ctx, med.UserID, invalid)
		}

		if s.Mailer != nil {
			s.emailRefillReminder(ctx, med)
		}
		notified++
	}
	return notified
}

func (s *Scheduler) emailRefillReminder(ctx context.Context, med models.Medication) {
	user, err := s.UDB.FindByID(ctx, med.UserID)
	if err != nil {
		zap.S().Warnw("no user for refill email", "userId", med.UserID, "error", err)
		return
	}
	if user.Email == "" {
		return
	}
	if err := s.Mailer.SendRefillReminder(ctx, user.Email, user.Name, med); err != nil {
		zap.S().Errorw("failed to send refill email", "userId", med.UserID, "medicationId", med.ID.Hex(), "error", err)
	}
}

func (s *Scheduler) acquire(ctx context.Context, job string, ttl time.Duration) bool {
	acquired, err := s.LockDB.TryAcquireLock(ctx, job, s.instanceID, ttl)
	if err != nil {
		zap.S().Errorw("failed to acquire scheduler lock", "job", job, "error", err)
		return false
	}
	if !acquired {
		zap.S().Debugw("job already running on another instance, skipping", "job", job)
		return false
	}
	return true
}

func (s *Scheduler) pruneTokens(ctx context.Context, userID string, invalid []string) {
	for _, token := range invalid {
		if err := s.PushDB.Delete(ctx, userID, token); err != nil {
			zap.S().Warnw("failed to remove unregistered push token", "userId", userID, "error", err)
		}
	}
}

// dueSlot reports whether med has a reminder slot at now, evaluated in the
// medication's own timezone.
func dueSlot(med models.Medication, now time.Time) (string, bool) {
	if med.IsAsNeeded() || !med.ReminderEnabled {
		return "", false
	}
	loc := medicationLocation(med)
	local := now.In(loc)
	if !progress.IsActive(med, local) {
		return "", false
	}
	for _, slot := range progress.DistinctSlots(med.Times) {
		if slotMatches(slot, local) {
			return slot, true
		}
	}
	return "", false
}

func medicationLocation(med models.Medication) *time.Location {
	tz := strings.TrimSpace(med.Timezone)
	if tz == "" {
		tz = models.DefaultMedicationTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		zap.S().Warnw("unknown medication timezone, using UTC", "medicationId", med.ID.Hex(), "timezone", tz)
		return time.UTC
	}
	return loc
}

func slotMatches(slot string, local time.Time) bool {
	for _, layout := range slotLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(slot))
		if err == nil {
			return t.Hour() == local.Hour() && t.Minute() == local.Minute()
		}
	}
	return false
}

// tokenCache loads each user's push tokens once per run
type tokenCache struct {
	db     databases.PushTokenDatabase
	tokens map[string][]string
}

func newTokenCache(db databases.PushTokenDatabase) *tokenCache {
	return &tokenCache{db: db, tokens: map[string][]string{}}
}

func (c *tokenCache) get(ctx context.Context, userID string) ([]string, error) {
	if tokens, ok := c.tokens[userID]; ok {
		return tokens, nil
	}
	records, err := c.db.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(records))
	for _, r := range records {
		tokens = append(tokens, r.Token)
	}
	c.tokens[userID] = tokens
	return tokens, nil
}
