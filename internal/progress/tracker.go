package progress

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/p-n-ai/learnly/internal/curriculum"
)

// Tracker applies learner actions to one UserProgress bound to one
// Curriculum. All methods are safe for concurrent use; mutations are
// serialized and either fully applied or not at all.
type Tracker struct {
	mu    sync.Mutex
	c     *curriculum.Curriculum
	p     UserProgress
	rules Rules
	now   func() time.Time
	total int // activities in c
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock sets the time source used for completion timestamps.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker binds p to c. p.CurriculumID is set to c.ID.
func NewTracker(c *curriculum.Curriculum, p UserProgress, rules Rules, opts ...TrackerOption) *Tracker {
	p = p.Clone()
	p.CurriculumID = c.ID
	_, _, total := c.Counts()
	t := &Tracker{c: c, p: p, rules: rules, now: time.Now, total: total}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Curriculum returns the bound curriculum.
func (t *Tracker) Curriculum() *curriculum.Curriculum { return t.c }

// Snapshot returns a deep copy of the current progress.
func (t *Tracker) Snapshot() UserProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p.Clone()
}

// State derives the render state from the current progress.
func (t *Tracker) State() DerivedState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Derive(t.c, t.p, t.rules)
}

// CompleteActivity records the first completion of key and cascades to the
// owning lesson, module, week and course. Completing an already completed
// activity returns a zero Delta.
func (t *Tracker) CompleteActivity(key curriculum.ActivityKey) (Delta, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	act, ok := t.c.Activity(key)
	if !ok {
		return Delta{}, &InvalidKeyError{Key: key, CurriculumID: t.c.ID}
	}
	if _, done := t.p.CompletedActivities[key]; done {
		return Delta{}, nil
	}

	now := t.now()
	d := t.begin()
	t.p.CompletedActivities[key] = now
	t.award(&d, Event{
		Kind:    EventActivityCompleted,
		Key:     key.String(),
		Title:   act.Title,
		Message: act.CompletionMessage,
		XP:      act.XPReward,
		At:      now,
	})

	t.cascade(&d, key.LessonKey(), now)
	t.finish(&d, now)
	return d, nil
}

// CreditQuiz awards xp for a passed quiz once per quiz id.
func (t *Tracker) CreditQuiz(quizID string, xp int, title string) (Delta, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return creditQuiz(&t.p, t.rules, t.total, quizID, xp, title, t.now())
}

// CreditQuiz credits a quiz to a learner without a bound curriculum.
func CreditQuiz(p *UserProgress, rules Rules, quizID string, xp int, title string, now time.Time) (Delta, error) {
	p.ensureMaps()
	return creditQuiz(p, rules, 0, quizID, xp, title, now)
}

func creditQuiz(p *UserProgress, rules Rules, total int, quizID string, xp int, title string, now time.Time) (Delta, error) {
	if quizID == "" {
		return Delta{}, errors.New("quiz id is required")
	}
	if xp < 0 {
		return Delta{}, fmt.Errorf("quiz xp must not be negative, got %d", xp)
	}
	if _, done := p.CreditedQuizzes[quizID]; done {
		return Delta{}, nil
	}

	d := Delta{
		LearnerID:     p.LearnerID,
		CurriculumID:  p.CurriculumID,
		PreviousLevel: p.Level,
	}
	p.CreditedQuizzes[quizID] = now
	p.TotalXP += xp
	d.XPGained += xp
	d.Events = append(d.Events, Event{
		Kind:  EventQuizCredited,
		Key:   quizID,
		Title: title,
		XP:    xp,
		At:    now,
	})
	unlockAchievements(p, rules, &d, total, now)
	settle(p, rules, &d, now)
	return d, nil
}

// Touch records activity on today's date and updates the streak: the same
// day is a no-op, the day after the last active day extends the streak, any
// longer gap restarts it at 1.
func (t *Tracker) Touch(today time.Time) Delta {
	t.mu.Lock()
	defer t.mu.Unlock()
	return touch(&t.p, t.rules, t.total, today)
}

// Touch applies the streak update to a learner without a bound curriculum.
func Touch(p *UserProgress, rules Rules, today time.Time) Delta {
	p.ensureMaps()
	return touch(p, rules, 0, today)
}

func touch(p *UserProgress, rules Rules, total int, today time.Time) Delta {
	today = dateOf(today)
	streak := p.StreakDays
	switch {
	case p.LastActive.IsZero():
		streak = max(streak, 1)
	default:
		switch gap := daysBetween(p.LastActive, today); {
		case gap <= 0:
			return Delta{}
		case gap == 1:
			streak++
		default:
			streak = 1
		}
	}

	d := Delta{
		LearnerID:     p.LearnerID,
		CurriculumID:  p.CurriculumID,
		PreviousLevel: p.Level,
	}
	p.StreakDays = streak
	p.LastActive = today
	d.Events = append(d.Events, Event{
		Kind:    EventStreakUpdated,
		Message: streakMessage(streak),
		At:      today,
	})

	unlockAchievements(p, rules, &d, total, today)
	settle(p, rules, &d, today)
	return d
}

func (t *Tracker) begin() Delta {
	return Delta{
		LearnerID:     t.p.LearnerID,
		CurriculumID:  t.p.CurriculumID,
		PreviousLevel: t.p.Level,
	}
}

func (t *Tracker) award(d *Delta, e Event) {
	t.p.TotalXP += e.XP
	d.XPGained += e.XP
	d.Events = append(d.Events, e)
}

// cascade checks lesson, module, week and course in that order. Each level
// can only become complete when the level below it just did.
func (t *Tracker) cascade(d *Delta, lk curriculum.LessonKey, now time.Time) {
	if !t.lessonDone(lk) {
		return
	}
	if _, ok := t.p.CompletedLessons[lk]; ok {
		return
	}
	lesson, _ := t.c.Lesson(lk)
	t.p.CompletedLessons[lk] = now
	t.award(d, Event{
		Kind:    EventLessonCompleted,
		Key:     lk.String(),
		Title:   lesson.Title,
		Message: fmt.Sprintf("Lesson complete: %s", lesson.Title),
		XP:      t.rules.LessonBonus,
		At:      now,
	})

	mk := lk.ModuleKey()
	module, _ := t.c.Module(mk)
	for li := range module.Lessons {
		if _, ok := t.p.CompletedLessons[curriculum.LessonKey{Week: mk.Week, Module: mk.Module, Lesson: li}]; !ok {
			return
		}
	}
	if _, ok := t.p.CompletedModules[mk]; ok {
		return
	}
	t.p.CompletedModules[mk] = now
	t.award(d, Event{
		Kind:    EventModuleCompleted,
		Key:     mk.String(),
		Title:   module.Title,
		Message: fmt.Sprintf("Module complete: %s", module.Title),
		XP:      t.rules.ModuleBonus,
		At:      now,
	})

	wk := mk.WeekKey()
	week := t.c.Weeks[wk.Week]
	for mi := range week.Modules {
		if _, ok := t.p.CompletedModules[curriculum.ModuleKey{Week: wk.Week, Module: mi}]; !ok {
			return
		}
	}
	if _, ok := t.p.CompletedWeeks[wk]; ok {
		return
	}
	t.p.CompletedWeeks[wk] = now
	msg := fmt.Sprintf("Week %d complete: %s", week.WeekNumber, week.Title)
	if week.Assignment != nil && week.Assignment.CompletionMessage != "" {
		msg = week.Assignment.CompletionMessage
	}
	t.award(d, Event{
		Kind:    EventWeekCompleted,
		Key:     wk.String(),
		Title:   week.Title,
		Message: msg,
		XP:      t.rules.WeekBonus,
		At:      now,
	})

	if len(t.p.CompletedWeeks) < len(t.c.Weeks) || t.p.CourseCompletedAt != nil {
		return
	}
	for wi := range t.c.Weeks {
		if _, ok := t.p.CompletedWeeks[curriculum.WeekKey{Week: wi}]; !ok {
			return
		}
	}
	done := now
	t.p.CourseCompletedAt = &done
	t.award(d, Event{
		Kind:    EventCourseCompleted,
		Title:   t.c.Title,
		Message: fmt.Sprintf("You finished %s!", t.c.Title),
		XP:      t.rules.CourseBonus,
		At:      now,
	})
}

func (t *Tracker) lessonDone(lk curriculum.LessonKey) bool {
	lesson, ok := t.c.Lesson(lk)
	if !ok {
		return false
	}
	for ai := range lesson.Activities {
		key := curriculum.ActivityKey{Week: lk.Week, Module: lk.Module, Lesson: lk.Lesson, Activity: ai}
		if _, ok := t.p.CompletedActivities[key]; !ok {
			return false
		}
	}
	return true
}

func (t *Tracker) finish(d *Delta, now time.Time) {
	unlockAchievements(&t.p, t.rules, d, t.total, now)
	settle(&t.p, t.rules, d, now)
}

// unlockAchievements adds newly met achievements until none remain, since
// achievement XP can itself cross an XP threshold.
func unlockAchievements(p *UserProgress, rules Rules, d *Delta, total int, now time.Time) {
	for {
		stats := Stats{
			CompletedActivities: len(p.CompletedActivities),
			TotalActivities:     total,
			TotalXP:             p.TotalXP,
			StreakDays:          p.StreakDays,
		}
		unlocked := EvaluateAchievements(rules.Achievements, stats, p.UnlockedAchievements)
		if len(unlocked) == 0 {
			return
		}
		for _, a := range unlocked {
			p.UnlockedAchievements[a.ID] = now
			p.TotalXP += a.XPBonus
			d.XPGained += a.XPBonus
			d.Events = append(d.Events, Event{
				Kind:        EventAchievementUnlocked,
				Key:         a.ID,
				Title:       a.Name,
				Message:     fmt.Sprintf("%s Achievement unlocked: %s", a.Icon, a.Name),
				XP:          a.XPBonus,
				Achievement: a.ID,
				At:          now,
			})
		}
	}
}

// settle recomputes the level, emits a level-up event and fills the totals.
func settle(p *UserProgress, rules Rules, d *Delta, now time.Time) {
	level := rules.Level(p.TotalXP)
	if level > p.Level {
		d.Events = append(d.Events, Event{
			Kind:    EventLevelUp,
			Message: fmt.Sprintf("Level up! You reached level %d", level),
			Level:   level,
			At:      now,
		})
		d.LeveledUp = true
		p.Level = level
	}
	p.UpdatedAt = now
	d.TotalXP = p.TotalXP
	d.Level = p.Level
	d.StreakDays = p.StreakDays
}

func streakMessage(days int) string {
	if days == 1 {
		return "Day 1. Every streak starts somewhere!"
	}
	return fmt.Sprintf("🔥 %d-day streak! Keep it alive.", days)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(dateOf(to).Sub(dateOf(from)).Hours() / 24)
}
