package progress

import "time"

// EventKind names a progress event.
type EventKind string

const (
	EventActivityCompleted   EventKind = "activity_completed"
	EventLessonCompleted     EventKind = "lesson_completed"
	EventModuleCompleted     EventKind = "module_completed"
	EventWeekCompleted       EventKind = "week_completed"
	EventCourseCompleted     EventKind = "course_completed"
	EventAchievementUnlocked EventKind = "achievement_unlocked"
	EventQuizCredited        EventKind = "quiz_credited"
	EventStreakUpdated       EventKind = "streak_updated"
	EventLevelUp             EventKind = "level_up"
)

// significance orders events for Headline; higher wins.
var significance = map[EventKind]int{
	EventStreakUpdated:       1,
	EventActivityCompleted:   2,
	EventQuizCredited:        3,
	EventAchievementUnlocked: 4,
	EventLessonCompleted:     5,
	EventModuleCompleted:     6,
	EventWeekCompleted:       7,
	EventCourseCompleted:     8,
	EventLevelUp:             9,
}

// Event is one thing worth telling the learner about.
type Event struct {
	Kind        EventKind `json:"kind"`
	Key         string    `json:"key,omitempty"`
	Title       string    `json:"title,omitempty"`
	Message     string    `json:"message,omitempty"`
	XP          int       `json:"xp"`
	Level       int       `json:"level,omitempty"`
	Achievement string    `json:"achievement,omitempty"`
	At          time.Time `json:"at"`
}

// Delta summarizes what one tracker call changed. Events are in the order
// they happened.
type Delta struct {
	LearnerID     string  `json:"learnerId,omitempty"`
	CurriculumID  string  `json:"curriculumId,omitempty"`
	XPGained      int     `json:"xpGained"`
	TotalXP       int     `json:"totalXP"`
	PreviousLevel int     `json:"previousLevel"`
	Level         int     `json:"level"`
	LeveledUp     bool    `json:"leveledUp"`
	StreakDays    int     `json:"streakDays"`
	Events        []Event `json:"events"`
}

// IsZero reports whether the call changed nothing.
func (d Delta) IsZero() bool {
	return d.XPGained == 0 && len(d.Events) == 0
}

// Headline picks the single event to foreground: a level-up if there is one,
// otherwise the most significant event, earliest first on ties.
func (d Delta) Headline() (Event, bool) {
	if len(d.Events) == 0 {
		return Event{}, false
	}
	best := d.Events[0]
	for _, e := range d.Events[1:] {
		if significance[e.Kind] > significance[best.Kind] {
			best = e
		}
	}
	return best, true
}
