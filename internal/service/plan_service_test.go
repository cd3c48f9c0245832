package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examly-backend/internal/repository"
)

func newPlanFixture(t *testing.T) *planService {
	t.Helper()
	setupTestDB(t)
	svc := NewPlanService(repository.NewPlanRepository()).(*planService)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestGetPlan_DefaultsAndRollover(t *testing.T) {
	svc := newPlanFixture(t)

	plan, err := svc.GetPlan(1)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", plan.Date)
	assert.Len(t, plan.Slots, len(defaultPlanSlots))

	_, err = svc.SetSlot(1, "grammar", true)
	require.NoError(t, err)

	// Same day: the checklist sticks.
	plan, err = svc.GetPlan(1)
	require.NoError(t, err)
	assert.True(t, plan.Slots["grammar"])

	// Next day: everything resets.
	svc.now = func() time.Time {
		return time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	}
	plan, err = svc.GetPlan(1)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", plan.Date)
	assert.False(t, plan.Slots["grammar"])
}

func TestPreferences_RoundTrip(t *testing.T) {
	svc := newPlanFixture(t)

	prefs, err := svc.UpdatePreferences(1, false, true)
	require.NoError(t, err)
	assert.False(t, prefs.SoundEnabled)
	assert.True(t, prefs.RemindersEnabled)

	prefs, err = svc.GetPreferences(1)
	require.NoError(t, err)
	assert.False(t, prefs.SoundEnabled)
}

func TestShouldShowReminder_OncePerDay(t *testing.T) {
	svc := newPlanFixture(t)

	_, err := svc.UpdatePreferences(1, true, true)
	require.NoError(t, err)

	show, err := svc.ShouldShowReminder(1)
	require.NoError(t, err)
	assert.True(t, show)

	show, err = svc.ShouldShowReminder(1)
	require.NoError(t, err)
	assert.False(t, show, "second check the same day stays quiet")

	// The guard resets on the next day.
	svc.now = func() time.Time {
		return time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	}
	show, err = svc.ShouldShowReminder(1)
	require.NoError(t, err)
	assert.True(t, show)
}

func TestShouldShowReminder_DisabledPreference(t *testing.T) {
	svc := newPlanFixture(t)

	_, err := svc.UpdatePreferences(1, true, false)
	require.NoError(t, err)

	show, err := svc.ShouldShowReminder(1)
	require.NoError(t, err)
	assert.False(t, show)
}
