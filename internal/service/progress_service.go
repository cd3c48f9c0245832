package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"examly-backend/internal/model"
	"examly-backend/internal/repository"
	"examly-backend/utilities"
)

// Target attempt counts per module: progress reaches 100% once this many
// tasks are completed in the module. Vocabulary is absent because it is
// driven by flashcard mastery instead.
var moduleTargets = map[string]int{
	model.ModuleGrammar:   20,
	model.ModuleListening: 15,
	model.ModuleReading:   15,
	model.ModuleWriting:   10,
	model.ModuleSpeaking:  10,
	model.ModuleExam:      5,
}

// XP weights.
const (
	xpPerScorePoint = 10
	xpPerMastered   = 10
	xpPerLearning   = 3
)

// Level labels bucketed by average module progress.
var levelBuckets = []struct {
	threshold int
	label     string
}{
	{95, "Mastery"},
	{80, "Advanced"},
	{60, "Upper-Intermediate"},
	{40, "Intermediate"},
	{20, "Elementary"},
	{0, "Beginner"},
}

// MistakeInput is a wrong answer reported alongside a task completion.
type MistakeInput struct {
	Module    string `json:"module"`
	Question  string `json:"question"`
	Submitted string `json:"submitted"`
	Correct   string `json:"correct"`
	Context   string `json:"context,omitempty"`
}

// CompleteTaskInput describes one finished exercise.
type CompleteTaskInput struct {
	TaskID   string         `json:"task_id"`
	Module   string         `json:"module"`
	Score    float64        `json:"score"`
	MaxScore float64        `json:"max_score"`
	Mistakes []MistakeInput `json:"mistakes,omitempty"`
}

type ProgressService interface {
	GetProgress(userID uint) (*model.ProgressRecord, error)
	CompleteTask(userID uint, input CompleteTaskInput) (*model.ProgressRecord, error)
	AddMistake(userID uint, input MistakeInput) error
	RemoveMistake(userID, mistakeID uint) error
	Reset(userID uint) error
	Normalize(record *model.ProgressRecord, cards *model.FlashcardSet, now time.Time) bool
}

type progressService struct {
	progressRepo repository.ProgressRepository
	cardRepo     repository.FlashcardRepository
	achievements AchievementService
	bus          *utilities.EventBus
	now          func() time.Time
}

func NewProgressService(
	progressRepo repository.ProgressRepository,
	cardRepo repository.FlashcardRepository,
	achievements AchievementService,
	bus *utilities.EventBus,
) ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		cardRepo:     cardRepo,
		achievements: achievements,
		bus:          bus,
		now:          time.Now,
	}
}

// publish is a no-op without a bus so the core stays usable headlessly.
func (s *progressService) publish(event string, data interface{}) {
	if s.bus != nil {
		s.bus.Publish(event, data)
	}
}

// GetProgress reads the record, recomputes every derived field and evaluates
// achievements. If normalization changed anything, the record is persisted
// through the silent path: no stats_changed event, since a read-triggered
// write that notified would re-trigger the read.
func (s *progressService) GetProgress(userID uint) (*model.ProgressRecord, error) {
	record, err := s.progressRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	cards, err := s.cardRepo.GetSet(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flashcards: %w", err)
	}

	if s.Normalize(record, cards, s.now()) {
		if err := s.progressRepo.Save(record); err != nil {
			utilities.Warn("silent save after normalize failed: %v", err)
		}
	}

	if s.achievements != nil {
		if err := s.achievements.Evaluate(record, cards); err != nil {
			utilities.Warn("achievement evaluation failed: %v", err)
		}
	}

	return record, nil
}

// CompleteTask appends the result, touches today's activity, records any
// mistakes, renormalizes and notifies. This is the externally-caused write
// path, so it does publish.
func (s *progressService) CompleteTask(userID uint, input CompleteTaskInput) (*model.ProgressRecord, error) {
	if input.Module == "" {
		return nil, fmt.Errorf("task module is required")
	}
	if input.MaxScore < 0 {
		input.MaxScore = 0
	}
	if input.Score < 0 {
		input.Score = 0
	}
	if input.Score > input.MaxScore {
		input.Score = input.MaxScore
	}

	if input.TaskID == "" {
		input.TaskID = uuid.NewString()
	}

	record, err := s.progressRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	cards, err := s.cardRepo.GetSet(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flashcards: %w", err)
	}

	now := s.now()
	result := model.TaskResult{
		RecordID:    record.ID,
		TaskID:      input.TaskID,
		Module:      input.Module,
		Score:       input.Score,
		MaxScore:    input.MaxScore,
		CompletedAt: now,
	}
	if err := s.progressRepo.AddTaskResult(&result); err != nil {
		return nil, fmt.Errorf("failed to record task result: %w", err)
	}
	record.History = append(record.History, result)

	entry := TouchActivity(record, 1, now)
	if err := s.progressRepo.UpsertActivity(&entry); err != nil {
		utilities.Warn("failed to persist activity entry: %v", err)
	}

	for _, m := range input.Mistakes {
		if err := s.addMistakeLocked(record, m, now); err != nil {
			utilities.Warn("failed to record mistake: %v", err)
		}
	}

	s.Normalize(record, cards, now)
	record.UpdatedAt = now
	if err := s.progressRepo.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	s.publish(utilities.EventStatsChanged, record)
	s.publish(utilities.EventSyncRequested, userID)

	if s.achievements != nil {
		if err := s.achievements.Evaluate(record, cards); err != nil {
			utilities.Warn("achievement evaluation failed: %v", err)
		}
	}

	return record, nil
}

// addMistakeLocked appends a mistake unless an identical (module, question)
// pair already exists; duplicates are dropped silently.
func (s *progressService) addMistakeLocked(record *model.ProgressRecord, input MistakeInput, now time.Time) error {
	for _, m := range record.Mistakes {
		if m.Module == input.Module && m.Question == input.Question {
			return nil
		}
	}

	mistake := model.Mistake{
		RecordID:  record.ID,
		Module:    input.Module,
		Question:  input.Question,
		Submitted: input.Submitted,
		Correct:   input.Correct,
		Context:   input.Context,
		CreatedAt: now,
	}
	if err := s.progressRepo.AddMistake(&mistake); err != nil {
		return err
	}
	record.Mistakes = append(record.Mistakes, mistake)
	return nil
}

func (s *progressService) AddMistake(userID uint, input MistakeInput) error {
	record, err := s.progressRepo.GetByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	now := s.now()
	if err := s.addMistakeLocked(record, input, now); err != nil {
		return err
	}
	record.UpdatedAt = now
	if err := s.progressRepo.Save(record); err != nil {
		utilities.Warn("failed to persist mistake timestamp: %v", err)
	}
	s.publish(utilities.EventStatsChanged, record)
	s.publish(utilities.EventSyncRequested, userID)
	return nil
}

func (s *progressService) RemoveMistake(userID, mistakeID uint) error {
	record, err := s.progressRepo.GetByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	if err := s.progressRepo.DeleteMistake(record.ID, mistakeID); err != nil {
		return fmt.Errorf("failed to delete mistake: %w", err)
	}
	record.UpdatedAt = s.now()
	if err := s.progressRepo.Save(record); err != nil {
		utilities.Warn("failed to persist mistake timestamp: %v", err)
	}
	s.publish(utilities.EventStatsChanged, record)
	s.publish(utilities.EventSyncRequested, userID)
	return nil
}

// Reset clears all raw and derived state back to zero defaults.
func (s *progressService) Reset(userID uint) error {
	if err := s.progressRepo.Reset(userID); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	record, err := s.progressRepo.GetByUserID(userID)
	if err != nil {
		return err
	}
	s.publish(utilities.EventStatsChanged, record)
	s.publish(utilities.EventSyncRequested, userID)
	return nil
}

// Normalize recomputes every derived field from raw state (history, activity
// log, flashcards). It is idempotent and reports whether anything changed, so
// the caller knows whether a silent write is needed. Derived fields are never
// taken from the stored record; the stored values are only a cache.
func (s *progressService) Normalize(record *model.ProgressRecord, cards *model.FlashcardSet, now time.Time) bool {
	changed := s.applyLegacySeedCorrection(record)

	progress := make(map[string]int, len(model.Modules()))

	// (a) vocabulary progress comes from flashcard mastery.
	progress[model.ModuleVocabulary] = vocabularyProgress(cards)

	// (b) every other module progresses toward a fixed attempt target.
	attempts := make(map[string]int, len(moduleTargets))
	for _, t := range record.History {
		attempts[t.Module]++
	}
	for module, target := range moduleTargets {
		pct := int(math.Round(100 * float64(attempts[module]) / float64(target)))
		if pct > 100 {
			pct = 100
		}
		progress[module] = pct
	}
	if !progressEqual(record.ModuleProgress, progress) {
		record.ModuleProgress = progress
		changed = true
	}

	// (c) completed-task count is the history length.
	if record.CompletedTasks != len(record.History) {
		record.CompletedTasks = len(record.History)
		changed = true
	}

	// (d) level label buckets the average module progress.
	if level := levelFor(progress); record.Level != level {
		record.Level = level
		changed = true
	}

	// (e) streak is recomputed from the activity log.
	if streak := Streak(record.Activity, now); record.Streak != streak {
		record.Streak = streak
		changed = true
	}

	// (f) XP from history plus flashcard weights.
	if xp := computeXP(record.History, cards); record.XP != xp {
		record.XP = xp
		changed = true
	}

	return changed
}

// applyLegacySeedCorrection resets records matching the shipped placeholder
// shape: nonzero XP with an empty history, a minimal completed-task count and
// a fabricated streak or activity log. Real usage can never produce that
// combination because streak and activity only ever come from completed
// tasks. XP without history is legitimate on its own (flashcard mastery earns
// XP), so a record with nothing to clear is left alone.
func (s *progressService) applyLegacySeedCorrection(record *model.ProgressRecord) bool {
	if record.XP == 0 || len(record.History) != 0 || record.CompletedTasks > 2 {
		return false
	}
	if len(record.Activity) == 0 && record.Streak == 0 {
		return false
	}

	record.XP = 0
	record.Streak = 0
	record.CompletedTasks = 0
	record.Activity = nil
	if err := s.progressRepo.ClearActivity(record.ID); err != nil {
		utilities.Warn("failed to clear seeded activity: %v", err)
	}
	utilities.Info("cleared seeded demo data for record %d", record.ID)
	return true
}

func vocabularyProgress(cards *model.FlashcardSet) int {
	if cards == nil || len(cards.Cards) == 0 {
		return 0
	}
	mastered := cards.CountByStatus(model.CardStatusMastered)
	return int(math.Round(100 * float64(mastered) / float64(len(cards.Cards))))
}

func levelFor(progress map[string]int) string {
	sum := 0
	for _, m := range model.Modules() {
		sum += progress[m]
	}
	avg := sum / len(model.Modules())

	for _, bucket := range levelBuckets {
		if avg >= bucket.threshold {
			return bucket.label
		}
	}
	return levelBuckets[len(levelBuckets)-1].label
}

func computeXP(history []model.TaskResult, cards *model.FlashcardSet) int {
	xp := 0
	for _, t := range history {
		xp += int(math.Ceil(t.Score * xpPerScorePoint))
	}
	if cards != nil {
		xp += cards.CountByStatus(model.CardStatusMastered) * xpPerMastered
		xp += cards.CountByStatus(model.CardStatusLearning) * xpPerLearning
	}
	return xp
}

func progressEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		bv, ok := b[k]
		if !ok || a[k] != bv {
			return false
		}
	}
	return true
}
