package progress

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metric is the quantity an achievement threshold is compared against.
type Metric string

const (
	MetricActivities Metric = "activities" // completed activity count
	MetricPercent    Metric = "percent"    // completed activities, percent of the course
	MetricXP         Metric = "xp"         // total XP
	MetricStreak     Metric = "streak"     // streak days
)

// Rules holds the gamification constants. Loaded from YAML or DefaultRules.
type Rules struct {
	LevelXPThreshold int                 `yaml:"level_xp_threshold"`
	LessonBonus      int                 `yaml:"lesson_bonus"`
	ModuleBonus      int                 `yaml:"module_bonus"`
	WeekBonus        int                 `yaml:"week_bonus"`
	CourseBonus      int                 `yaml:"course_bonus"`
	Achievements     []AchievementRule   `yaml:"achievements"`
	Encouragement    []EncouragementTier `yaml:"encouragement"`
	StreakPraise     []StreakTier        `yaml:"streak_praise"`
}

// AchievementRule unlocks once when Metric reaches Threshold.
type AchievementRule struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon,omitempty"`
	Metric      Metric `yaml:"metric" json:"metric"`
	Threshold   int    `yaml:"threshold" json:"threshold"`
	XPBonus     int    `yaml:"xp_bonus" json:"xpBonus"`
}

// EncouragementTier applies from MinPercent course completion upwards.
type EncouragementTier struct {
	MinPercent int    `yaml:"min_percent"`
	Message    string `yaml:"message"`
}

// StreakTier is appended to the encouragement from MinDays upwards. "{days}"
// in Message is replaced with the streak length.
type StreakTier struct {
	MinDays int    `yaml:"min_days"`
	Message string `yaml:"message"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		LevelXPThreshold: 200,
		LessonBonus:      25,
		ModuleBonus:      75,
		WeekBonus:        150,
		CourseBonus:      500,
		Achievements: []AchievementRule{
			{ID: "first_step", Name: "First Step", Description: "Complete your first activity", Icon: "🎯", Metric: MetricActivities, Threshold: 1, XPBonus: 50},
			{ID: "on_fire", Name: "On Fire", Description: "Complete 5 activities", Icon: "🔥", Metric: MetricActivities, Threshold: 5, XPBonus: 100},
			{ID: "unstoppable", Name: "Unstoppable", Description: "Reach 25% of the course", Icon: "⚡", Metric: MetricPercent, Threshold: 25, XPBonus: 200},
			{ID: "halfway_hero", Name: "Halfway Hero", Description: "Reach 50% of the course", Icon: "🦸", Metric: MetricPercent, Threshold: 50, XPBonus: 300},
			{ID: "almost_there", Name: "Almost There", Description: "Reach 75% of the course", Icon: "🏃", Metric: MetricPercent, Threshold: 75, XPBonus: 400},
			{ID: "course_master", Name: "Course Master", Description: "Complete the whole course", Icon: "🏆", Metric: MetricPercent, Threshold: 100, XPBonus: 1000},
			{ID: "xp_1000", Name: "XP Collector", Description: "Earn 1,000 XP", Icon: "💎", Metric: MetricXP, Threshold: 1000, XPBonus: 100},
			{ID: "xp_5000", Name: "XP Hoarder", Description: "Earn 5,000 XP", Icon: "👑", Metric: MetricXP, Threshold: 5000, XPBonus: 250},
			{ID: "streak_3", Name: "Warming Up", Description: "Learn 3 days in a row", Icon: "📅", Metric: MetricStreak, Threshold: 3, XPBonus: 50},
			{ID: "streak_7", Name: "Week Warrior", Description: "Learn 7 days in a row", Icon: "🗓️", Metric: MetricStreak, Threshold: 7, XPBonus: 150},
			{ID: "streak_30", Name: "Habit Formed", Description: "Learn 30 days in a row", Icon: "🌟", Metric: MetricStreak, Threshold: 30, XPBonus: 500},
		},
		Encouragement: []EncouragementTier{
			{MinPercent: 0, Message: "Every expert was once a beginner. Your first lesson is waiting!"},
			{MinPercent: 1, Message: "Great start! Momentum is everything, keep going."},
			{MinPercent: 25, Message: "A quarter of the way there. You're building real skills!"},
			{MinPercent: 50, Message: "Halfway! Look how far you've come."},
			{MinPercent: 75, Message: "The finish line is in sight. Push through!"},
			{MinPercent: 100, Message: "Course complete! You did it, legend."},
		},
		StreakPraise: []StreakTier{
			{MinDays: 3, Message: "Your {days}-day streak is impressive!"},
			{MinDays: 7, Message: "Your {days}-day streak is phenomenal!"},
		},
	}
}

// LoadRules reads a YAML rules file over the defaults. Lists present in the
// file replace the default lists entirely.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parsing rules %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules %s: %w", path, err)
	}
	return rules, nil
}

// Validate rejects rule sets the tracker cannot work with.
func (r Rules) Validate() error {
	var errs []error
	if r.LevelXPThreshold <= 0 {
		errs = append(errs, fmt.Errorf("level_xp_threshold must be positive, got %d", r.LevelXPThreshold))
	}
	bonuses := []struct {
		name string
		v    int
	}{
		{"lesson_bonus", r.LessonBonus},
		{"module_bonus", r.ModuleBonus},
		{"week_bonus", r.WeekBonus},
		{"course_bonus", r.CourseBonus},
	}
	for _, b := range bonuses {
		if b.v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", b.name, b.v))
		}
	}

	seen := make(map[string]bool, len(r.Achievements))
	for _, a := range r.Achievements {
		switch {
		case a.ID == "":
			errs = append(errs, errors.New("achievement with empty id"))
		case seen[a.ID]:
			errs = append(errs, fmt.Errorf("duplicate achievement id %q", a.ID))
		}
		seen[a.ID] = true

		switch a.Metric {
		case MetricActivities, MetricXP, MetricStreak:
		case MetricPercent:
			if a.Threshold > 100 {
				errs = append(errs, fmt.Errorf("achievement %q: percent threshold %d above 100", a.ID, a.Threshold))
			}
		default:
			errs = append(errs, fmt.Errorf("achievement %q: unknown metric %q", a.ID, a.Metric))
		}
		if a.Threshold <= 0 {
			errs = append(errs, fmt.Errorf("achievement %q: threshold must be positive", a.ID))
		}
		if a.XPBonus < 0 {
			errs = append(errs, fmt.Errorf("achievement %q: xp_bonus must not be negative", a.ID))
		}
	}
	for _, t := range r.StreakPraise {
		if t.MinDays <= 0 {
			errs = append(errs, fmt.Errorf("streak_praise min_days must be positive, got %d", t.MinDays))
		}
	}
	return errors.Join(errs...)
}

// Level returns the level reached at xp.
func (r Rules) Level(xp int) int {
	if r.LevelXPThreshold <= 0 {
		return 0
	}
	return xp / r.LevelXPThreshold
}

// Encourage picks the message for the highest tier at or below percent and
// appends praise for the highest streak tier reached.
func (r Rules) Encourage(percent, streakDays int) string {
	msg, best := "", -1
	for _, t := range r.Encouragement {
		if t.MinPercent <= percent && t.MinPercent > best {
			msg, best = t.Message, t.MinPercent
		}
	}

	praise, bestDays := "", 0
	for _, t := range r.StreakPraise {
		if t.MinDays <= streakDays && t.MinDays > bestDays {
			praise, bestDays = t.Message, t.MinDays
		}
	}
	if praise == "" {
		return msg
	}
	praise = strings.ReplaceAll(praise, "{days}", strconv.Itoa(streakDays))
	if msg == "" {
		return praise
	}
	return msg + " " + praise
}
