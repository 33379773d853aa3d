package progress

import (
	"sort"

	"github.com/p-n-ai/learnly/internal/curriculum"
)

// NodeStatus is the derived state of a lesson, module, week or course.
type NodeStatus string

const (
	StatusNotStarted NodeStatus = "not-started"
	StatusInProgress NodeStatus = "in-progress"
	StatusCompleted  NodeStatus = "completed"
)

// DerivedState is everything a presentation layer needs to render progress.
type DerivedState struct {
	LearnerID     string `json:"learnerId"`
	CurriculumID  string `json:"curriculumId"`
	Title         string `json:"title"`
	TotalXP       int    `json:"totalXP"`
	Level         int    `json:"level"`
	XPIntoLevel   int    `json:"xpIntoLevel"`
	XPToNextLevel int    `json:"xpToNextLevel"`
	StreakDays    int    `json:"streakDays"`

	CompletedActivities int `json:"completedActivities"`
	TotalActivities     int `json:"totalActivities"`
	CompletedLessons    int `json:"completedLessons"`
	TotalLessons        int `json:"totalLessons"`
	CompletedModules    int `json:"completedModules"`
	TotalModules        int `json:"totalModules"`
	CompletedWeeks      int `json:"completedWeeks"`
	TotalWeeks          int `json:"totalWeeks"`
	PercentComplete     int `json:"percentComplete"`

	Status       NodeStatus              `json:"status"`
	Weeks        []WeekState             `json:"weeks"`
	NextActivity *curriculum.ActivityKey `json:"nextActivity,omitempty"`
	Achievements []AchievementRule       `json:"achievements"`
	Encourage    string                  `json:"encouragement"`
}

type WeekState struct {
	WeekNumber int           `json:"weekNumber"`
	Title      string        `json:"title"`
	Status     NodeStatus    `json:"status"`
	Unlocked   bool          `json:"unlocked"`
	Modules    []ModuleState `json:"modules"`
}

type ModuleState struct {
	Title   string        `json:"title"`
	Status  NodeStatus    `json:"status"`
	Lessons []LessonState `json:"lessons"`
}

type LessonState struct {
	Key                 curriculum.LessonKey `json:"key"`
	Title               string               `json:"title"`
	Status              NodeStatus           `json:"status"`
	CompletedActivities int                  `json:"completedActivities"`
	TotalActivities     int                  `json:"totalActivities"`
}

// Derive computes the render state of p against c. Node status comes from
// activity completion alone.
func Derive(c *curriculum.Curriculum, p UserProgress, rules Rules) DerivedState {
	s := DerivedState{
		LearnerID:    p.LearnerID,
		CurriculumID: c.ID,
		Title:        c.Title,
		TotalXP:      p.TotalXP,
		Level:        rules.Level(p.TotalXP),
		StreakDays:   p.StreakDays,
		TotalWeeks:   len(c.Weeks),
		Achievements: []AchievementRule{},
	}
	if rules.LevelXPThreshold > 0 {
		s.XPIntoLevel = p.TotalXP % rules.LevelXPThreshold
		s.XPToNextLevel = rules.LevelXPThreshold - s.XPIntoLevel
	}

	prevWeekDone := true
	for wi, w := range c.Weeks {
		ws := WeekState{WeekNumber: w.WeekNumber, Title: w.Title, Unlocked: wi == 0 || prevWeekDone}
		modulesDone := 0
		for mi, m := range w.Modules {
			ms := ModuleState{Title: m.Title}
			lessonsDone, moduleActs := 0, 0
			for li, l := range m.Lessons {
				lk := curriculum.LessonKey{Week: wi, Module: mi, Lesson: li}
				ls := LessonState{Key: lk, Title: l.Title, TotalActivities: len(l.Activities)}
				for ai := range l.Activities {
					key := curriculum.ActivityKey{Week: wi, Module: mi, Lesson: li, Activity: ai}
					if _, ok := p.CompletedActivities[key]; ok {
						ls.CompletedActivities++
					} else if s.NextActivity == nil {
						next := key
						s.NextActivity = &next
					}
				}
				ls.Status = partialStatus(ls.CompletedActivities, ls.TotalActivities, ls.CompletedActivities)
				if ls.Status == StatusCompleted {
					lessonsDone++
				}
				moduleActs += ls.CompletedActivities
				s.CompletedActivities += ls.CompletedActivities
				s.TotalActivities += ls.TotalActivities
				ms.Lessons = append(ms.Lessons, ls)
			}
			s.CompletedLessons += lessonsDone
			s.TotalLessons += len(m.Lessons)
			ms.Status = partialStatus(lessonsDone, len(m.Lessons), moduleActs)
			if ms.Status == StatusCompleted {
				modulesDone++
			}
			ws.Modules = append(ws.Modules, ms)
		}
		s.CompletedModules += modulesDone
		s.TotalModules += len(w.Modules)
		ws.Status = partialStatus(modulesDone, len(w.Modules), weekActivity(ws))
		if ws.Status == StatusCompleted {
			s.CompletedWeeks++
		}
		prevWeekDone = ws.Status == StatusCompleted
		s.Weeks = append(s.Weeks, ws)
	}

	s.PercentComplete = Stats{CompletedActivities: s.CompletedActivities, TotalActivities: s.TotalActivities}.Percent()
	s.Status = partialStatus(s.CompletedWeeks, s.TotalWeeks, s.CompletedActivities)
	s.Encourage = rules.Encourage(s.PercentComplete, s.StreakDays)

	for _, a := range rules.Achievements {
		if _, ok := p.UnlockedAchievements[a.ID]; ok {
			s.Achievements = append(s.Achievements, a)
		}
	}
	sort.SliceStable(s.Achievements, func(i, j int) bool {
		return p.UnlockedAchievements[s.Achievements[i].ID].Before(p.UnlockedAchievements[s.Achievements[j].ID])
	})
	return s
}

// partialStatus is completed when every child is, in progress when any
// descendant activity is done.
func partialStatus(childrenDone, children, activitiesDone int) NodeStatus {
	switch {
	case children > 0 && childrenDone == children:
		return StatusCompleted
	case activitiesDone > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

func weekActivity(ws WeekState) int {
	n := 0
	for _, m := range ws.Modules {
		for _, l := range m.Lessons {
			n += l.CompletedActivities
		}
	}
	return n
}
