package builder

import (
	"fmt"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/resource"
)

const (
	// DefaultLessonXP replaces a missing or non-positive lesson XP value.
	DefaultLessonXP = 100
	// ActivitiesPerLesson is the number of activity slots in every lesson.
	ActivitiesPerLesson = 3
)

var completionMessages = []string{
	"🎉 Amazing! You're on fire! Ready for the next challenge?",
	"💪 Incredible progress! You're becoming unstoppable!",
	"🚀 Boom! Another skill unlocked! Keep the momentum going!",
	"⭐ Outstanding! You're crushing it like a pro!",
	"🔥 Fantastic work! Your future self will thank you!",
	"🎯 Perfect! You're building something incredible!",
	"💎 Brilliant! You're one step closer to mastery!",
	"🌟 Exceptional! Your dedication is paying off!",
	"🏆 Superb! You're writing your success story!",
	"⚡ Electrifying progress! Ready to level up again?",
}

var motivationalMessages = []string{
	"Today's lesson will unlock a new superpower! 🚀",
	"Ready to blow your own mind? Let's dive in! 🤯",
	"This is where the magic happens! ✨",
	"You're about to level up in 3... 2... 1... 🔥",
	"Plot twist: you're more capable than you think! 💪",
	"Today we're turning you into a legend! 🌟",
	"Warning: this lesson may cause a sudden confidence boost! ⚡",
	"Your future self is cheering you on right now! 🎉",
	"Let's make today's you proud of yesterday's you! 🏆",
	"Time to add another skill to your arsenal! ⚔️",
}

type practiceTemplate struct {
	title    string
	duration string
}

// practiceTemplates fill activity slots no searched resource matched.
var practiceTemplates = []practiceTemplate{
	{"Hands-on practice: %s", "20 min"},
	{"Build a mini exercise around %s", "30 min"},
	{"Recall check: explain %s in your own words", "10 min"},
}

const practiceSource = "Learnly practice"

// distributeXP splits total across n activities. Every share is total/n and
// the remainder goes to the last one, so the shares always sum to total.
func distributeXP(total, n int) []int {
	if n <= 0 {
		return nil
	}
	shares := make([]int, n)
	for i := range shares {
		shares[i] = total / n
	}
	shares[n-1] += total % n
	return shares
}

// lessonActivities turns the matched resources into activities and pads the
// remaining slots with synthesized practice. firstOrdinal is the global index
// of the lesson's first activity and picks the completion messages.
func lessonActivities(l curriculum.Lesson, matched []resource.Resource, firstOrdinal int) []curriculum.Activity {
	acts := make([]curriculum.Activity, 0, ActivitiesPerLesson)
	for _, r := range matched {
		if len(acts) == ActivitiesPerLesson {
			break
		}
		acts = append(acts, curriculum.Activity{
			Type:     activityType(r.Kind),
			Title:    r.Title,
			URL:      r.URL,
			Duration: r.Duration,
			Source:   r.Source,
		})
	}
	for slot := len(acts); slot < ActivitiesPerLesson; slot++ {
		t := practiceTemplates[slot%len(practiceTemplates)]
		acts = append(acts, curriculum.Activity{
			Type:     curriculum.ActivityPractice,
			Title:    fmt.Sprintf(t.title, l.Title),
			Duration: t.duration,
			Source:   practiceSource,
		})
	}

	xp := distributeXP(l.XPPoints, len(acts))
	for i := range acts {
		acts[i].XPReward = xp[i]
		acts[i].CompletionMessage = completionMessages[(firstOrdinal+i)%len(completionMessages)]
	}
	return acts
}
