package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examly-backend/internal/model"
	"examly-backend/internal/repository"
)

func newFlashcardFixture(t *testing.T) FlashcardService {
	t.Helper()
	setupTestDB(t)
	return NewFlashcardService(repository.NewFlashcardRepository(), repository.NewPlanRepository(), nil)
}

func TestAddCard_AndStatusTransitions(t *testing.T) {
	svc := newFlashcardFixture(t)

	card, err := svc.AddCard(1, "die Pruefung", "the exam", "nouns")
	require.NoError(t, err)
	assert.Equal(t, model.CardStatusNew, card.Status)

	require.NoError(t, svc.SetCardStatus(1, card.ID, model.CardStatusMastered))
	// Transitions are unordered: mastered back to learning is allowed.
	require.NoError(t, svc.SetCardStatus(1, card.ID, model.CardStatusLearning))

	set, err := svc.GetSet(1)
	require.NoError(t, err)
	require.Len(t, set.Cards, 1)
	assert.Equal(t, model.CardStatusLearning, set.Cards[0].Status)
}

func TestAddCard_RequiresBothSides(t *testing.T) {
	svc := newFlashcardFixture(t)

	_, err := svc.AddCard(1, "", "back", "")
	assert.Error(t, err)
	_, err = svc.AddCard(1, "front", "", "")
	assert.Error(t, err)
}

func TestSetCardStatus_RejectsUnknownStatus(t *testing.T) {
	svc := newFlashcardFixture(t)

	card, err := svc.AddCard(1, "front", "back", "")
	require.NoError(t, err)
	assert.Error(t, svc.SetCardStatus(1, card.ID, "memorized"))
}

func TestVocabCursor_RoundTrip(t *testing.T) {
	svc := newFlashcardFixture(t)

	require.NoError(t, svc.SetCursor(1, "nouns", 12))
	require.NoError(t, svc.SetCursor(1, "verbs", -4))

	cursor, err := svc.GetCursor(1)
	require.NoError(t, err)
	assert.Equal(t, 12, cursor.Indices["nouns"])
	assert.Equal(t, 0, cursor.Indices["verbs"], "negative indices clamp to zero")
}
