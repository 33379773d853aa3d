package progress_test

import (
	"testing"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/progress"
)

func TestDerive(t *testing.T) {
	c := course(2, 1, 2, 2)
	tr := newTracker(c, plainRules())

	s := tr.State()
	if s.Status != progress.StatusNotStarted || s.PercentComplete != 0 {
		t.Errorf("initial status = %s %d%%", s.Status, s.PercentComplete)
	}
	if !s.Weeks[0].Unlocked || s.Weeks[1].Unlocked {
		t.Errorf("unlocked = %v/%v, want true/false", s.Weeks[0].Unlocked, s.Weeks[1].Unlocked)
	}
	if s.NextActivity == nil || *s.NextActivity != (curriculum.ActivityKey{}) {
		t.Errorf("NextActivity = %v, want 0.0.0.0", s.NextActivity)
	}
	if s.Encourage == "" {
		t.Error("Encourage should not be empty")
	}

	// Finish the first lesson and start the second.
	for _, k := range []curriculum.ActivityKey{{}, {Activity: 1}, {Lesson: 1}} {
		if _, err := tr.CompleteActivity(k); err != nil {
			t.Fatal(err)
		}
	}

	s = tr.State()
	lessons := s.Weeks[0].Modules[0].Lessons
	if lessons[0].Status != progress.StatusCompleted || lessons[1].Status != progress.StatusInProgress {
		t.Errorf("lesson statuses = %s/%s", lessons[0].Status, lessons[1].Status)
	}
	if s.Weeks[0].Status != progress.StatusInProgress || s.Weeks[1].Status != progress.StatusNotStarted {
		t.Errorf("week statuses = %s/%s", s.Weeks[0].Status, s.Weeks[1].Status)
	}
	if s.CompletedActivities != 3 || s.TotalActivities != 8 || s.PercentComplete != 37 {
		t.Errorf("counts = %d/%d %d%%", s.CompletedActivities, s.TotalActivities, s.PercentComplete)
	}
	if s.CompletedLessons != 1 || s.TotalLessons != 4 {
		t.Errorf("lessons = %d/%d", s.CompletedLessons, s.TotalLessons)
	}
	if *s.NextActivity != (curriculum.ActivityKey{Lesson: 1, Activity: 1}) {
		t.Errorf("NextActivity = %v", s.NextActivity)
	}
	// 175 xp: level 0, 175 into it, 25 to go.
	if s.TotalXP != 175 || s.XPIntoLevel != 175 || s.XPToNextLevel != 25 {
		t.Errorf("xp = %d (%d into, %d to go)", s.TotalXP, s.XPIntoLevel, s.XPToNextLevel)
	}

	// Finishing week one unlocks week two.
	if _, err := tr.CompleteActivity(curriculum.ActivityKey{Lesson: 1, Activity: 1}); err != nil {
		t.Fatal(err)
	}
	s = tr.State()
	if s.Weeks[0].Status != progress.StatusCompleted || !s.Weeks[1].Unlocked {
		t.Errorf("week 1 %s, week 2 unlocked %v", s.Weeks[0].Status, s.Weeks[1].Unlocked)
	}
	if s.CompletedWeeks != 1 || s.CompletedModules != 1 {
		t.Errorf("weeks/modules = %d/%d", s.CompletedWeeks, s.CompletedModules)
	}
}

func TestDerive_CompletedCourse(t *testing.T) {
	c := course(1, 1, 1, 1)
	tr := newTracker(c, progress.DefaultRules())
	if _, err := tr.CompleteActivity(curriculum.ActivityKey{}); err != nil {
		t.Fatal(err)
	}

	s := tr.State()
	if s.Status != progress.StatusCompleted || s.PercentComplete != 100 || s.NextActivity != nil {
		t.Errorf("state = %s %d%% next=%v", s.Status, s.PercentComplete, s.NextActivity)
	}
	if s.Encourage != progress.DefaultRules().Encourage(100, s.StreakDays) {
		t.Errorf("Encourage = %q", s.Encourage)
	}
	if len(s.Achievements) == 0 {
		t.Error("Achievements should list unlocked achievements")
	}
}
