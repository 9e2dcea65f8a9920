// Package progress derives today's dose progress for the dashboard from a
// user's medications and recorded doses.
//
// Expected doses are counted one per distinct scheduled time slot of every
// active medication. The frequency label only matters for "As needed"
// medications, which are excluded from the totals; the times list is
// authoritative for everything else.
package progress

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/medassist/medassist-api/models"
)

const dateLayout = "2006-01-02"

// SlotStatus is the state of a single scheduled dose slot for today.
type SlotStatus struct {
	Time          string `json:"time"`
	DoseNumber    int    `json:"doseNumber"`
	TotalDoses    int    `json:"totalDoses"`
	Taken         bool   `json:"taken"`
	TakenCount    int    `json:"takenCount"`
	OverMedicated bool   `json:"overMedicated"`
}

// MedicationProgress is the per-medication breakdown rendered as dashboard
// cards. As-needed medications carry no slots, only TakenToday.
type MedicationProgress struct {
	Medication models.Medication `json:"medication"`
	AsNeeded   bool              `json:"asNeeded"`
	Slots      []SlotStatus      `json:"slots,omitempty"`
	Completed  int               `json:"completed"`
	TakenToday int               `json:"takenToday"`
}

// Summary is the result of Compute.
type Summary struct {
	Date               string               `json:"date"`
	ActiveMedications  []models.Medication  `json:"activeMedications"`
	TotalExpected      int                  `json:"totalExpected"`
	TotalCompleted     int                  `json:"totalCompleted"`
	Ratio              float64              `json:"ratio"`
	OverMedicated      bool                 `json:"overMedicated"`
	OverMedicatedSlots int                  `json:"overMedicatedSlots"`
	Medications        []MedicationProgress `json:"medications"`
}

// Compute builds today's progress. "Today" is the calendar day of now in
// now's location; doses outside that day are ignored.
func Compute(meds []models.Medication, doses []models.DoseHistory, now time.Time) Summary {
	today := startOfDay(now)
	summary := Summary{
		Date:              today.Format(dateLayout),
		ActiveMedications: []models.Medication{},
		Medications:       []MedicationProgress{},
	}

	// medicationId -> slot label -> taken count
	takenBySlot := make(map[string]map[string]int)
	takenByMed := make(map[string]int)
	for _, d := range doses {
		if !d.Taken || !sameDay(d.Timestamp.In(now.Location()), today) {
			continue
		}
		if takenBySlot[d.MedicationID] == nil {
			takenBySlot[d.MedicationID] = make(map[string]int)
		}
		takenBySlot[d.MedicationID][d.ScheduledTime]++
		takenByMed[d.MedicationID]++
	}

	for _, med := range meds {
		if !IsActive(med, now) {
			continue
		}
		summary.ActiveMedications = append(summary.ActiveMedications, med)

		medID := med.ID.Hex()
		mp := MedicationProgress{
			Medication: med,
			AsNeeded:   med.IsAsNeeded(),
			TakenToday: takenByMed[medID],
		}
		if mp.AsNeeded {
			summary.Medications = append(summary.Medications, mp)
			continue
		}

		slots := DistinctSlots(med.Times)
		for i, slot := range slots {
			count := takenBySlot[medID][slot]
			st := SlotStatus{
				Time:          slot,
				DoseNumber:    i + 1,
				TotalDoses:    len(slots),
				Taken:         count > 0,
				TakenCount:    count,
				OverMedicated: count > 1,
			}
			if st.Taken {
				mp.Completed++
			}
			if st.OverMedicated {
				summary.OverMedicated = true
				summary.OverMedicatedSlots++
			}
			mp.Slots = append(mp.Slots, st)
		}

		summary.TotalExpected += len(slots)
		summary.TotalCompleted += mp.Completed
		summary.Medications = append(summary.Medications, mp)
	}

	if summary.TotalExpected > 0 {
		summary.Ratio = math.Min(float64(summary.TotalCompleted)/float64(summary.TotalExpected), 1)
	}
	return summary
}

// IsActive reports whether med is scheduled on the calendar day of now.
// Ongoing medications are always active. Otherwise the day must fall within
// [startDate, startDate + N days]. An unparsable start date makes the
// medication inactive rather than failing the dashboard.
func IsActive(med models.Medication, now time.Time) bool {
	days, ongoing := ParseDurationDays(med.Duration)
	if ongoing {
		return true
	}
	start, ok := ParseStartDate(med.StartDate, now.Location())
	if !ok {
		return false
	}
	today := startOfDay(now)
	end := start.AddDate(0, 0, days)
	return !today.Before(start) && !today.After(end)
}

// ParseDurationDays reads a duration label such as "30 days". "Ongoing" and
// the legacy "-1" sentinel report ongoing=true. Malformed labels count as a
// 0-day duration.
func ParseDurationDays(duration string) (days int, ongoing bool) {
	s := strings.TrimSpace(duration)
	if strings.EqualFold(s, models.DurationOngoing) {
		return 0, true
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	if n == -1 {
		return 0, true
	}
	if n < 0 {
		return 0, false
	}
	return n, false
}

// ParseStartDate accepts a plain date or an RFC 3339 timestamp and returns
// midnight of that calendar day in loc.
func ParseStartDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return startOfDay(t.In(loc)), true
	}
	return time.Time{}, false
}

// DistinctSlots returns the non-empty time slots in their original order
// with duplicates removed.
func DistinctSlots(times []string) []string {
	seen := make(map[string]bool, len(times))
	slots := make([]string, 0, len(times))
	for _, t := range times {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		slots = append(slots, t)
	}
	return slots
}

// DayBounds returns the half-open interval [start, end) covering the
// calendar day of now in now's location.
func DayBounds(now time.Time) (time.Time, time.Time) {
	start := startOfDay(now)
	return start, start.AddDate(0, 0, 1)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
