package builder

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a curriculum designer for a gamified learning app.
You answer with a single JSON object and nothing else.`

const outlineShape = `{
  "title": "Course title",
  "description": "What the learner will be able to do",
  "totalWeeks": %d,
  "dailyHours": "1-2 hours",
  "estimatedValue": "Market value of these skills",
  "weeks": [
    {
      "weekNumber": 1,
      "title": "Week title",
      "goals": ["Goal 1", "Goal 2"],
      "checkpoint": "Skill check at the end of the week",
      "modules": [
        {
          "title": "Module title",
          "lessons": [
            {
              "day": 1,
              "title": "Lesson title",
              "description": "Lesson description",
              "duration": "45 minutes",
              "xpPoints": 150,
              "difficulty": "easy",
              "topics": ["Topic 1", "Topic 2"]
            }
          ]
        }
      ],
      "assignment": {
        "title": "Assignment title",
        "description": "Assignment description",
        "deliverable": "What to submit",
        "xpReward": 200
      }
    }
  ],
  "finalProject": {
    "title": "Final project title",
    "description": "Project description",
    "skills": ["Skill 1", "Skill 2"],
    "xpReward": 1000,
    "portfolio": "How to present it"
  },
  "careerImpact": {
    "jobTitles": ["Job 1", "Job 2"],
    "salaryRange": "Typical salary range",
    "resumePoints": ["Point 1", "Point 2"]
  }
}`

func outlinePrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-week learning curriculum for %q at %s level.\n\n", req.Weeks, req.Topic, req.Level)
	b.WriteString("Requirements:\n")
	b.WriteString("- Each week has 3-4 modules\n")
	b.WriteString("- Each module has 2-3 daily lessons\n")
	b.WriteString("- Lesson difficulty is one of easy, medium, hard\n")
	b.WriteString("- Give every lesson 100-500 xpPoints\n")
	b.WriteString("- Include a practical assignment and a skill checkpoint for each week\n")
	b.WriteString("- Include a final project and the career impact of the skills\n\n")
	b.WriteString("Respond with JSON in exactly this structure:\n")
	fmt.Fprintf(&b, outlineShape, req.Weeks)
	return b.String()
}
