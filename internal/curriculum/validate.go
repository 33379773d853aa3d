package curriculum

import "fmt"

// Validate checks the structural invariants of a built curriculum and returns
// every violation found. A nil result means the curriculum is well formed.
func Validate(c *Curriculum) []string {
	var v []string
	add := func(format string, args ...any) { v = append(v, fmt.Sprintf(format, args...)) }

	if c.Title == "" {
		add("title is empty")
	}
	if len(c.Weeks) == 0 {
		add("no weeks")
	}
	if c.TotalWeeks != len(c.Weeks) {
		add("totalWeeks %d does not match %d weeks", c.TotalWeeks, len(c.Weeks))
	}

	total := 0
	for wi, w := range c.Weeks {
		if w.WeekNumber != wi+1 {
			add("week %d has weekNumber %d", wi+1, w.WeekNumber)
		}
		if len(w.Modules) == 0 {
			add("week %d has no modules", wi+1)
		}
		weekXP := 0
		for mi, m := range w.Modules {
			if len(m.Lessons) == 0 {
				add("module %s has no lessons", ModuleKey{wi, mi})
			}
			for li, l := range m.Lessons {
				key := LessonKey{wi, mi, li}
				if l.XPPoints <= 0 || l.XPPoints > MaxLessonXP {
					add("lesson %s has xpPoints %d, want 1..%d", key, l.XPPoints, MaxLessonXP)
				}
				if len(l.Activities) == 0 {
					add("lesson %s has no activities", key)
				}
				sum := 0
				for ai, a := range l.Activities {
					if a.XPReward < 0 || a.XPReward > MaxLessonXP {
						add("activity %s has xpReward %d out of range", ActivityKey{wi, mi, li, ai}, a.XPReward)
					}
					if !a.Type.Valid() {
						add("activity %s has type %q", ActivityKey{wi, mi, li, ai}, a.Type)
					}
					sum += a.XPReward
				}
				if len(l.Activities) > 0 && sum != l.XPPoints {
					add("lesson %s activities sum to %d xp, want %d", key, sum, l.XPPoints)
				}
				weekXP += l.XPPoints
			}
		}
		if w.TotalWeekXP != weekXP {
			add("week %d totalWeekXP %d, want %d", wi+1, w.TotalWeekXP, weekXP)
		}
		total += weekXP
	}
	if c.TotalXP != total {
		add("totalXP %d, want %d", c.TotalXP, total)
	}
	return v
}
