package model

// AchievementDef is one entry in the static achievement catalog. Predicate is
// pure: it may read any part of a normalized record but never mutates it.
type AchievementDef struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Predicate   func(r *ProgressRecord, cards *FlashcardSet) bool
}

// AchievementCatalog is the canonical list of unlockable achievements.
// Keep IDs stable because records store them.
func AchievementCatalog() []AchievementDef {
	return []AchievementDef{
		{
			ID: "first_task", Title: "First Steps", Icon: "footprints",
			Description: "Complete your first exercise",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				return len(r.History) >= 1
			},
		},
		{
			ID: "ten_tasks", Title: "Getting Serious", Icon: "flame",
			Description: "Complete 10 exercises",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				return len(r.History) >= 10
			},
		},
		{
			ID: "fifty_tasks", Title: "Marathon Runner", Icon: "medal",
			Description: "Complete 50 exercises",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				return len(r.History) >= 50
			},
		},
		{
			ID: "streak_3", Title: "Warming Up", Icon: "calendar",
			Description: "Practice 3 days in a row",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				return r.Streak >= 3
			},
		},
		{
			ID: "streak_7", Title: "Full Week", Icon: "calendar-check",
			Description: "Practice 7 days in a row",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				return r.Streak >= 7
			},
		},
		{
			ID: "streak_30", Title: "Iron Will", Icon: "trophy",
			Description: "Practice 30 days in a row",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				return r.Streak >= 30
			},
		},
		{
			ID: "xp_1000", Title: "Rising Star", Icon: "star",
			Description: "Earn 1000 XP",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				return r.XP >= 1000
			},
		},
		{
			ID: "xp_5000", Title: "Powerhouse", Icon: "zap",
			Description: "Earn 5000 XP",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				return r.XP >= 5000
			},
		},
		{
			ID: "vocab_10", Title: "Word Collector", Icon: "book",
			Description: "Master 10 flashcards",
			Predicate: func(_ *ProgressRecord, cards *FlashcardSet) bool {
				return cards != nil && cards.CountByStatus(CardStatusMastered) >= 10
			},
		},
		{
			ID: "vocab_50", Title: "Walking Dictionary", Icon: "library",
			Description: "Master 50 flashcards",
			Predicate: func(_ *ProgressRecord, cards *FlashcardSet) bool {
				return cards != nil && cards.CountByStatus(CardStatusMastered) >= 50
			},
		},
		{
			ID: "perfect_task", Title: "Flawless", Icon: "sparkles",
			Description: "Finish an exercise with a perfect score",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				for _, t := range r.History {
					if t.MaxScore > 0 && t.Score >= t.MaxScore {
						return true
					}
				}
				return false
			},
		},
		{
			ID: "all_modules", Title: "Explorer", Icon: "compass",
			Description: "Try every exercise category",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				seen := make(map[string]bool, len(r.History))
				for _, t := range r.History {
					seen[t.Module] = true
				}
				for _, m := range Modules() {
					if m == ModuleVocabulary {
						continue // vocabulary progresses through flashcards, not tasks
					}
					if !seen[m] {
						return false
					}
				}
				return true
			},
		},
		{
			ID: "exam_ready", Title: "Exam Ready", Icon: "graduation-cap",
			Description: "Reach 80% average progress across all modules",
			Predicate: func(r *ProgressRecord, _ *FlashcardSet) bool {
				if len(r.ModuleProgress) == 0 {
					return false
				}
				sum := 0
				for _, m := range Modules() {
					sum += r.ModuleProgress[m]
				}
				return sum/len(Modules()) >= 80
			},
		},
	}
}
