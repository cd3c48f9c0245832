package service

import (
	"time"

	"examly-backend/internal/model"
)

// Intensity bounds for a single activity day.
const (
	MinIntensity = 0
	MaxIntensity = 4
)

// ClampIntensity forces a value into the valid [0,4] range.
func ClampIntensity(v int) int {
	if v < MinIntensity {
		return MinIntensity
	}
	if v > MaxIntensity {
		return MaxIntensity
	}
	return v
}

// TouchActivity upserts the entry for now's calendar day on the in-memory
// record: clamped, and merging by maximum so intensity never moves down.
// It returns the entry that should be persisted.
func TouchActivity(record *model.ProgressRecord, intensityDelta int, now time.Time) model.ActivityEntry {
	day := model.DayKey(now)
	intensity := ClampIntensity(intensityDelta)

	for i := range record.Activity {
		if record.Activity[i].Day == day {
			merged := ClampIntensity(record.Activity[i].Intensity + intensity)
			// Never overwrite downward.
			record.Activity[i].Intensity = maxInt(record.Activity[i].Intensity, merged)
			record.LastActivityAt = now
			return record.Activity[i]
		}
	}

	entry := model.ActivityEntry{
		RecordID:  record.ID,
		Day:       day,
		Intensity: intensity,
	}
	record.Activity = append(record.Activity, entry)
	record.LastActivityAt = now
	return entry
}

// Streak counts consecutive calendar days with intensity > 0, walking
// backward from today and stopping at the first missing day. It is always
// recomputed from the full log; incrementing a stored counter cannot
// self-correct after a skipped day or a backdated import.
func Streak(entries []model.ActivityEntry, today time.Time) int {
	active := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Intensity > 0 {
			active[e.Day] = true
		}
	}

	streak := 0
	day := today
	for active[model.DayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
