package progress

import "time"

// Stats are the totals achievements are judged on.
type Stats struct {
	CompletedActivities int
	TotalActivities     int
	TotalXP             int
	StreakDays          int
}

// Percent is the completed share of activities, rounded down so 100 means all.
func (s Stats) Percent() int {
	if s.TotalActivities <= 0 {
		return 0
	}
	return s.CompletedActivities * 100 / s.TotalActivities
}

func (s Stats) value(m Metric) int {
	switch m {
	case MetricActivities:
		return s.CompletedActivities
	case MetricPercent:
		return s.Percent()
	case MetricXP:
		return s.TotalXP
	case MetricStreak:
		return s.StreakDays
	}
	return 0
}

// EvaluateAchievements returns, in rule order, the achievements whose
// threshold stats meet and that are not in unlocked. It has no side effects.
func EvaluateAchievements(rules []AchievementRule, stats Stats, unlocked map[string]time.Time) []AchievementRule {
	var out []AchievementRule
	for _, a := range rules {
		if _, ok := unlocked[a.ID]; ok {
			continue
		}
		if a.Metric == MetricPercent && stats.TotalActivities == 0 {
			continue
		}
		if stats.value(a.Metric) >= a.Threshold {
			out = append(out, a)
		}
	}
	return out
}
