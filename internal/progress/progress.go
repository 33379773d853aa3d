// Package progress tracks a learner's completion of a curriculum and derives
// rewards from it: XP, levels, streaks and achievements.
package progress

import (
	"fmt"
	"maps"
	"time"

	"github.com/p-n-ai/learnly/internal/curriculum"
)

// Profile seeds a new learner at onboarding.
type Profile struct {
	Name   string `json:"name"`
	XP     int    `json:"xp"`
	Streak int    `json:"streak"`
}

// UserProgress is one learner's record against one curriculum.
type UserProgress struct {
	LearnerID            string                               `json:"learnerId"`
	Name                 string                               `json:"name,omitempty"`
	CurriculumID         string                               `json:"curriculumId,omitempty"`
	TotalXP              int                                  `json:"totalXP"`
	Level                int                                  `json:"level"`
	StreakDays           int                                  `json:"streakDays"`
	LastActive           time.Time                            `json:"lastActive,omitzero"`
	CompletedActivities  map[curriculum.ActivityKey]time.Time `json:"completedActivities"`
	CompletedLessons     map[curriculum.LessonKey]time.Time   `json:"completedLessons"`
	CompletedModules     map[curriculum.ModuleKey]time.Time   `json:"completedModules"`
	CompletedWeeks       map[curriculum.WeekKey]time.Time     `json:"completedWeeks"`
	CourseCompletedAt    *time.Time                           `json:"courseCompletedAt,omitempty"`
	UnlockedAchievements map[string]time.Time                 `json:"unlockedAchievements"`
	CreditedQuizzes      map[string]time.Time                 `json:"creditedQuizzes"`
	UpdatedAt            time.Time                            `json:"updatedAt"`
}

// NewUserProgress creates the record for a learner who just finished onboarding.
func NewUserProgress(learnerID string, profile Profile, rules Rules) UserProgress {
	p := UserProgress{
		LearnerID:  learnerID,
		Name:       profile.Name,
		TotalXP:    max(profile.XP, 0),
		StreakDays: max(profile.Streak, 0),
	}
	p.Level = rules.Level(p.TotalXP)
	p.ensureMaps()
	return p
}

// Carry starts a record for a replacement curriculum. Rewards carry over,
// completion sets do not.
func (p UserProgress) Carry(curriculumID string) UserProgress {
	next := UserProgress{
		LearnerID:            p.LearnerID,
		Name:                 p.Name,
		CurriculumID:         curriculumID,
		TotalXP:              p.TotalXP,
		Level:                p.Level,
		StreakDays:           p.StreakDays,
		LastActive:           p.LastActive,
		UnlockedAchievements: maps.Clone(p.UnlockedAchievements),
		CreditedQuizzes:      maps.Clone(p.CreditedQuizzes),
		UpdatedAt:            p.UpdatedAt,
	}
	next.ensureMaps()
	return next
}

// Clone returns a deep copy.
func (p UserProgress) Clone() UserProgress {
	c := p
	c.CompletedActivities = maps.Clone(p.CompletedActivities)
	c.CompletedLessons = maps.Clone(p.CompletedLessons)
	c.CompletedModules = maps.Clone(p.CompletedModules)
	c.CompletedWeeks = maps.Clone(p.CompletedWeeks)
	c.UnlockedAchievements = maps.Clone(p.UnlockedAchievements)
	c.CreditedQuizzes = maps.Clone(p.CreditedQuizzes)
	if p.CourseCompletedAt != nil {
		t := *p.CourseCompletedAt
		c.CourseCompletedAt = &t
	}
	c.ensureMaps()
	return c
}

func (p *UserProgress) ensureMaps() {
	if p.CompletedActivities == nil {
		p.CompletedActivities = make(map[curriculum.ActivityKey]time.Time)
	}
	if p.CompletedLessons == nil {
		p.CompletedLessons = make(map[curriculum.LessonKey]time.Time)
	}
	if p.CompletedModules == nil {
		p.CompletedModules = make(map[curriculum.ModuleKey]time.Time)
	}
	if p.CompletedWeeks == nil {
		p.CompletedWeeks = make(map[curriculum.WeekKey]time.Time)
	}
	if p.UnlockedAchievements == nil {
		p.UnlockedAchievements = make(map[string]time.Time)
	}
	if p.CreditedQuizzes == nil {
		p.CreditedQuizzes = make(map[string]time.Time)
	}
}

// InvalidKeyError reports a key that does not address an activity of the bound curriculum.
type InvalidKeyError struct {
	Key          curriculum.ActivityKey
	CurriculumID string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("activity %s does not exist in curriculum %s", e.Key, e.CurriculumID)
}
