package model

import "time"

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"password,omitempty"` // Exclude from JSON responses
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Module identifiers. Stable because task results and progress maps reference them.
const (
	ModuleGrammar    = "grammar"
	ModuleListening  = "listening"
	ModuleReading    = "reading"
	ModuleWriting    = "writing"
	ModuleSpeaking   = "speaking"
	ModuleExam       = "exam"
	ModuleVocabulary = "vocabulary"
)

// Modules lists every exercise category in display order.
func Modules() []string {
	return []string{
		ModuleGrammar, ModuleListening, ModuleReading,
		ModuleWriting, ModuleSpeaking, ModuleExam, ModuleVocabulary,
	}
}

// ProgressRecord is the per-user progress document. XP, Level, Streak,
// CompletedTasks and ModuleProgress (except vocabulary) are derived from
// History/Activity/flashcards and recomputed on every read; they are persisted
// only as a cache and never accepted as external input.
//
// UpdatedAt is the reconciliation stamp and is managed by the application,
// not by gorm: creation and derived-only recomputes leave it alone, so a
// fresh record never claims precedence over a remote copy. Only external
// mutations and sync itself advance it.
type ProgressRecord struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         uint            `json:"user_id" gorm:"not null;uniqueIndex"`
	DisplayName    string          `json:"display_name"`
	XP             int             `json:"xp"`
	Level          string          `json:"level"`
	Streak         int             `json:"streak"`
	CompletedTasks int             `json:"completed_tasks"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	History        []TaskResult    `json:"history" gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
	ModuleProgress map[string]int  `json:"module_progress" gorm:"serializer:json"`
	Mistakes       []Mistake       `json:"mistakes" gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
	Achievements   []string        `json:"achievements" gorm:"serializer:json"`
	Activity       []ActivityEntry `json:"activity" gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// HasAchievement reports membership in the unlocked set.
func (r *ProgressRecord) HasAchievement(id string) bool {
	for _, a := range r.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// TaskResult is one completed exercise. Append-only: rows are never edited or
// removed once written (except by a full reset).
type TaskResult struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecordID    uint      `json:"record_id" gorm:"index"`
	TaskID      string    `json:"task_id"`
	Module      string    `json:"module"`
	Score       float64   `json:"score"`
	MaxScore    float64   `json:"max_score"`
	CompletedAt time.Time `json:"completed_at"`
}

// ActivityEntry marks one local calendar day with an intensity level 0-4.
// At most one entry exists per day; repeated writes keep the maximum.
type ActivityEntry struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	RecordID  uint   `json:"record_id" gorm:"index"`
	Day       string `json:"day" gorm:"index"` // YYYY-MM-DD, local date
	Intensity int    `json:"intensity"`
}

// DayKey formats a local time as an activity day key.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Mistake is a wrong answer saved for review. Deduplicated by (module, question).
type Mistake struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RecordID  uint      `json:"record_id" gorm:"index"`
	Module    string    `json:"module"`
	Question  string    `json:"question"`
	Submitted string    `json:"submitted"`
	Correct   string    `json:"correct"`
	Context   string    `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Flashcard lifecycle statuses. Transitions are user-driven and unordered.
const (
	CardStatusNew      = "new"
	CardStatusLearning = "learning"
	CardStatusMastered = "mastered"
)

type Flashcard struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	SetID    uint   `json:"set_id" gorm:"index"`
	Front    string `json:"front"`
	Back     string `json:"back"`
	Category string `json:"category"`
	Status   string `json:"status" gorm:"default:'new'"`
}

// FlashcardSet is the versioned per-user card collection. UpdatedAt is the
// timestamp reconciliation compares against the remote copy; like the
// progress record's it is application-managed and stays zero until the first
// card mutation.
type FlashcardSet struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"not null;uniqueIndex"`
	Cards     []Flashcard `json:"items" gorm:"foreignKey:SetID;constraint:OnDelete:CASCADE"`
	UpdatedAt time.Time   `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// CountByStatus returns how many cards currently hold the given status.
func (s *FlashcardSet) CountByStatus(status string) int {
	n := 0
	for _, c := range s.Cards {
		if c.Status == status {
			n++
		}
	}
	return n
}

// DailyPlan holds the per-day study checklist. Slots reset when Date rolls over.
type DailyPlan struct {
	ID     uint            `json:"id" gorm:"primaryKey"`
	UserID uint            `json:"user_id" gorm:"not null;uniqueIndex"`
	Date   string          `json:"date"` // YYYY-MM-DD
	Slots  map[string]bool `json:"slots" gorm:"serializer:json"`
}

// Preferences stores UI toggles plus the reminder guard date.
type Preferences struct {
	ID                    uint   `json:"id" gorm:"primaryKey"`
	UserID                uint   `json:"user_id" gorm:"not null;uniqueIndex"`
	SoundEnabled          bool   `json:"sound_enabled" gorm:"default:true"`
	RemindersEnabled      bool   `json:"reminders_enabled" gorm:"default:true"`
	LastReminderShownDate string `json:"last_reminder_shown_date"`
}

// VocabCursor keeps the per-category deck position so the user resumes where
// they left off.
type VocabCursor struct {
	ID      uint           `json:"id" gorm:"primaryKey"`
	UserID  uint           `json:"user_id" gorm:"not null;uniqueIndex"`
	Indices map[string]int `json:"indices" gorm:"serializer:json"`
}

// RemoteSnapshot is the whole-document shape stored per user on the remote
// side. Stats and Flashcards carry their own UpdatedAt; reconciliation is
// last-write-wins per side, never field-level.
type RemoteSnapshot struct {
	Stats      *ProgressRecord `json:"stats,omitempty"`
	Flashcards *FlashcardSet   `json:"flashcards,omitempty"`
	UpdatedAt  int64           `json:"updated_at"` // unix milliseconds
}
