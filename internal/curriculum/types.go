// Package curriculum defines the generated learning plan, its addressing keys
// and the extraction and validation applied to generated text.
package curriculum

import (
	"encoding/json"
	"strings"
	"time"
)

// Level is the learner's self-declared starting level.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel normalizes a level string. Empty means beginner.
func ParseLevel(s string) (Level, bool) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelBeginner:
		return LevelBeginner, true
	case LevelIntermediate:
		return LevelIntermediate, true
	case LevelAdvanced:
		return LevelAdvanced, true
	default:
		return "", false
	}
}

// ActivityType is how a learner engages with an activity.
type ActivityType string

const (
	ActivityWatch    ActivityType = "watch"
	ActivityRead     ActivityType = "read"
	ActivityPractice ActivityType = "practice"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityWatch, ActivityRead, ActivityPractice:
		return true
	}
	return false
}

// MaxLessonXP bounds a lesson's XP so course totals cannot overflow.
const MaxLessonXP = 10000

// Difficulty values accepted on lessons. Anything else is normalized to "".
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Curriculum is a built learning plan. It is never mutated after Build returns.
type Curriculum struct {
	ID                   string        `json:"id"`
	Topic                string        `json:"topic"`
	Level                Level         `json:"level"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	TotalWeeks           int           `json:"totalWeeks"`
	DailyHours           string        `json:"dailyHours,omitempty"`
	EstimatedValue       string        `json:"estimatedValue,omitempty"`
	TotalXP              int           `json:"totalXP"`
	Weeks                []Week        `json:"weeks"`
	FinalProject         *FinalProject `json:"finalProject,omitempty"`
	CareerImpact         *CareerImpact `json:"careerImpact,omitempty"`
	MotivationalMessages []string      `json:"motivationalMessages,omitempty"`
	ResourcesDegraded    bool          `json:"resourcesDegraded,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// UnmarshalJSON accepts "marketValue" as an alias of "estimatedValue".
func (c *Curriculum) UnmarshalJSON(b []byte) error {
	type plain Curriculum
	aux := struct {
		*plain
		MarketValue string `json:"marketValue"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if c.EstimatedValue == "" {
		c.EstimatedValue = aux.MarketValue
	}
	return nil
}

type Week struct {
	WeekNumber  int         `json:"weekNumber"`
	Title       string      `json:"title"`
	Goals       []string    `json:"goals,omitempty"`
	TotalWeekXP int         `json:"totalWeekXP"`
	Modules     []Module    `json:"modules"`
	Assignment  *Assignment `json:"assignment,omitempty"`
	Checkpoint  string      `json:"checkpoint,omitempty"`
}

type Module struct {
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

type Lesson struct {
	Day                 int        `json:"day"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	Duration            string     `json:"duration,omitempty"`
	XPPoints            int        `json:"xpPoints"`
	Difficulty          string     `json:"difficulty,omitempty"`
	Topics              []string   `json:"topics,omitempty"`
	MotivationalMessage string     `json:"motivationalMessage,omitempty"`
	Activities          []Activity `json:"activities"`
}

type Activity struct {
	Type              ActivityType `json:"type"`
	Title             string       `json:"title"`
	URL               string       `json:"url,omitempty"`
	Duration          string       `json:"duration,omitempty"`
	CompletionMessage string       `json:"completionMessage"`
	XPReward          int          `json:"xpReward"`
	Source            string       `json:"source,omitempty"`
}

type Assignment struct {
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Deliverable       string `json:"deliverable,omitempty"`
	XPReward          int    `json:"xpReward"`
	CompletionMessage string `json:"completionMessage,omitempty"`
}

type FinalProject struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	XPReward    int      `json:"xpReward"`
	Portfolio   string   `json:"portfolio,omitempty"`
}

type CareerImpact struct {
	JobTitles    []string `json:"jobTitles,omitempty"`
	ResumePoints []string `json:"resumePoints,omitempty"`
	SalaryRange  string   `json:"salaryRange,omitempty"`
}

// Activity returns the activity addressed by k.
func (c *Curriculum) Activity(k ActivityKey) (Activity, bool) {
	l, ok := c.Lesson(k.LessonKey())
	if !ok || k.Activity < 0 || k.Activity >= len(l.Activities) {
		return Activity{}, false
	}
	return l.Activities[k.Activity], true
}

// Lesson returns the lesson addressed by k.
func (c *Curriculum) Lesson(k LessonKey) (Lesson, bool) {
	m, ok := c.Module(k.ModuleKey())
	if !ok || k.Lesson < 0 || k.Lesson >= len(m.Lessons) {
		return Lesson{}, false
	}
	return m.Lessons[k.Lesson], true
}

// Module returns the module addressed by k.
func (c *Curriculum) Module(k ModuleKey) (Module, bool) {
	if k.Week < 0 || k.Week >= len(c.Weeks) {
		return Module{}, false
	}
	w := c.Weeks[k.Week]
	if k.Module < 0 || k.Module >= len(w.Modules) {
		return Module{}, false
	}
	return w.Modules[k.Module], true
}

// ActivityKeys returns every activity key in curriculum order.
func (c *Curriculum) ActivityKeys() []ActivityKey {
	var keys []ActivityKey
	for wi, w := range c.Weeks {
		for mi, m := range w.Modules {
			for li, l := range m.Lessons {
				for ai := range l.Activities {
					keys = append(keys, ActivityKey{Week: wi, Module: mi, Lesson: li, Activity: ai})
				}
			}
		}
	}
	return keys
}

// Counts returns the number of lessons, modules and activities.
func (c *Curriculum) Counts() (lessons, modules, activities int) {
	for _, w := range c.Weeks {
		modules += len(w.Modules)
		for _, m := range w.Modules {
			lessons += len(m.Lessons)
			for _, l := range m.Lessons {
				activities += len(l.Activities)
			}
		}
	}
	return lessons, modules, activities
}
