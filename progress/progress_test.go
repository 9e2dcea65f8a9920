package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medassist/medassist-api/models"
)

var now = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

func medication(times []string, frequency, startDate, duration string) models.Medication {
	return models.Medication{
		ID:        primitive.NewObjectID(),
		Name:      "Metformin",
		Dosage:    "500mg",
		Times:     times,
		Frequency: frequency,
		StartDate: startDate,
		Duration:  duration,
	}
}

func takenDose(med models.Medication, slot string, at time.Time) models.DoseHistory {
	return models.DoseHistory{
		ID:            primitive.NewObjectID(),
		MedicationID:  med.ID.Hex(),
		Timestamp:     at,
		Taken:         true,
		ScheduledTime: slot,
	}
}

func TestIsActiveOngoingIgnoresDates(t *testing.T) {
	for _, duration := range []string{"Ongoing", "ongoing", "-1", "-1 days"} {
		med := medication([]string{"08:00"}, models.FrequencyOnceDaily, "2001-01-01", duration)
		assert.True(t, IsActive(med, now), duration)
		assert.True(t, IsActive(med, now.AddDate(30, 0, 0)), duration)

		med.StartDate = "not a date"
		assert.True(t, IsActive(med, now), duration)
	}
}

func TestIsActiveWithinWindow(t *testing.T) {
	med := medication([]string{"08:00"}, models.FrequencyOnceDaily, "2026-03-01", "7 days")

	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"day before start", time.Date(2026, time.February, 28, 23, 59, 0, 0, time.UTC), false},
		{"start day", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), true},
		{"middle of window", time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC), true},
		{"last day of window", time.Date(2026, time.March, 8, 23, 59, 0, 0, time.UTC), true},
		{"one day after window", time.Date(2026, time.March, 9, 0, 1, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(med, tt.day))
		})
	}
}

func TestIsActiveMalformedDurationIsZeroDays(t *testing.T) {
	med := medication([]string{"08:00"}, models.FrequencyOnceDaily, "2026-03-10", "a few days")
	assert.True(t, IsActive(med, now))
	assert.False(t, IsActive(med, now.AddDate(0, 0, 1)))
}

func TestIsActiveRFC3339StartDate(t *testing.T) {
	med := medication([]string{"08:00"}, models.FrequencyOnceDaily, "2026-03-05T18:45:00.000Z", "5 days")
	assert.True(t, IsActive(med, now))
	assert.False(t, IsActive(med, now.AddDate(0, 0, 1)))
}

func TestParseDurationDays(t *testing.T) {
	tests := []struct {
		in      string
		days    int
		ongoing bool
	}{
		{"30 days", 30, false},
		{" 14 ", 14, false},
		{"Ongoing", 0, true},
		{"-1", 0, true},
		{"", 0, false},
		{"forever", 0, false},
		{"-5 days", 0, false},
	}
	for _, tt := range tests {
		days, ongoing := ParseDurationDays(tt.in)
		assert.Equal(t, tt.days, days, tt.in)
		assert.Equal(t, tt.ongoing, ongoing, tt.in)
	}
}

func TestComputeCountsDistinctSlots(t *testing.T) {
	med := medication([]string{"08:00", "14:00", "20:00"}, models.FrequencyThreeTimesDaily, "2026-03-01", "30 days")
	doses := []models.DoseHistory{
		takenDose(med, "08:00", now.Add(-6*time.Hour)),
		takenDose(med, "14:00", now.Add(-10*time.Minute)),
	}

	s := Compute([]models.Medication{med}, doses, now)

	assert.Equal(t, 3, s.TotalExpected)
	assert.Equal(t, 2, s.TotalCompleted)
	assert.InDelta(t, 2.0/3.0, s.Ratio, 1e-9)
	assert.False(t, s.OverMedicated)
	require.Len(t, s.Medications, 1)
	assert.Equal(t, 2, s.Medications[0].Completed)
	assert.Equal(t, "2026-03-10", s.Date)
}

func TestComputeDuplicateSlotDoseCountsOnceAndWarns(t *testing.T) {
	med := medication([]string{"08:00", "20:00"}, models.FrequencyTwiceDaily, "2026-03-01", "Ongoing")
	doses := []models.DoseHistory{
		takenDose(med, "08:00", now.Add(-6*time.Hour)),
		takenDose(med, "08:00", now.Add(-5*time.Hour)),
	}

	s := Compute([]models.Medication{med}, doses, now)

	assert.Equal(t, 1, s.TotalCompleted)
	assert.True(t, s.OverMedicated)
	assert.Equal(t, 1, s.OverMedicatedSlots)
	slot := s.Medications[0].Slots[0]
	assert.True(t, slot.Taken)
	assert.True(t, slot.OverMedicated)
	assert.Equal(t, 2, slot.TakenCount)
	assert.False(t, s.Medications[0].Slots[1].Taken)
}

func TestComputeIgnoresOtherDaysAndUntakenDoses(t *testing.T) {
	med := medication([]string{"08:00"}, models.FrequencyOnceDaily, "2026-03-01", "Ongoing")
	missed := takenDose(med, "08:00", now.Add(-2*time.Hour))
	missed.Taken = false
	doses := []models.DoseHistory{
		takenDose(med, "08:00", now.AddDate(0, 0, -1)),
		missed,
	}

	s := Compute([]models.Medication{med}, doses, now)

	assert.Equal(t, 1, s.TotalExpected)
	assert.Equal(t, 0, s.TotalCompleted)
	assert.Zero(t, s.Ratio)
}

func TestComputeAsNeededExcludedFromTotals(t *testing.T) {
	scheduled := medication([]string{"09:00"}, models.FrequencyOnceDaily, "2026-03-01", "Ongoing")
	asNeeded := medication(nil, models.FrequencyAsNeeded, "2026-03-01", "Ongoing")
	doses := []models.DoseHistory{
		takenDose(asNeeded, models.AsNeededSlot, now.Add(-3*time.Hour)),
		takenDose(asNeeded, models.AsNeededSlot, now.Add(-1*time.Hour)),
		takenDose(scheduled, "09:00", now.Add(-5*time.Hour)),
	}

	s := Compute([]models.Medication{scheduled, asNeeded}, doses, now)

	assert.Equal(t, 1, s.TotalExpected)
	assert.Equal(t, 1, s.TotalCompleted)
	assert.Equal(t, 1.0, s.Ratio)
	assert.Len(t, s.ActiveMedications, 2)
	require.Len(t, s.Medications, 2)
	assert.True(t, s.Medications[1].AsNeeded)
	assert.Equal(t, 2, s.Medications[1].TakenToday)
	assert.Empty(t, s.Medications[1].Slots)
}

func TestComputeSkipsInactiveMedications(t *testing.T) {
	finished := medication([]string{"08:00", "20:00"}, models.FrequencyTwiceDaily, "2026-01-01", "7 days")

	s := Compute([]models.Medication{finished}, nil, now)

	assert.Empty(t, s.ActiveMedications)
	assert.Zero(t, s.TotalExpected)
	assert.Zero(t, s.Ratio)
}

func TestComputeDuplicateTimesCountedOnce(t *testing.T) {
	med := medication([]string{"08:00", "08:00", " ", "21:00"}, "Every morning", "2026-03-01", "Ongoing")

	s := Compute([]models.Medication{med}, nil, now)

	assert.Equal(t, 2, s.TotalExpected)
}

func TestComputeUsesCallerLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2026, time.March, 11, 7, 0, 0, 0, loc) // 2026-03-10 21:00 UTC
	med := medication([]string{"06:30"}, models.FrequencyOnceDaily, "2026-03-01", "Ongoing")
	doses := []models.DoseHistory{
		takenDose(med, "06:30", time.Date(2026, time.March, 10, 20, 35, 0, 0, time.UTC)),
	}

	s := Compute([]models.Medication{med}, doses, local)

	assert.Equal(t, "2026-03-11", s.Date)
	assert.Equal(t, 1, s.TotalCompleted)
}

func TestDayBounds(t *testing.T) {
	start, end := DayBounds(now)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), end)
}
