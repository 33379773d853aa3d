package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/learnly/internal/ai"
	"github.com/p-n-ai/learnly/internal/curriculum"
)

const questionCount = 5

const quizPrompt = `Generate an engaging, gamified quiz about %q for a %s learner with exactly %d multiple-choice questions.
Make it challenging but fair, with a short explanation for every correct answer.

Respond with JSON only:
{
  "title": "Quiz title",
  "description": "Test your skills and earn XP!",
  "xpReward": 100,
  "passingScore": 80,
  "questions": [
    {
      "question": "Question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": "Option A",
      "explanation": "Why Option A is correct",
      "difficulty": "medium",
      "xpPoints": 20
    }
  ],
  "completionMessage": "Celebration shown when the quiz is passed"
}`

// Generator creates quizzes through the AI gateway.
type Generator struct {
	llm ai.Completer
	now func() time.Time
}

func NewGenerator(llm ai.Completer) *Generator {
	return &Generator{llm: llm, now: time.Now}
}

// Generate asks for a quiz on topic. Unusable answers fail with
// *curriculum.GenerationError.
func (g *Generator) Generate(ctx context.Context, topic, level string) (*Quiz, error) {
	topic = strings.Join(strings.Fields(topic), " ")
	if topic == "" {
		return nil, &curriculum.TopicError{Topic: topic, Reason: "topic is empty"}
	}
	lvl, ok := curriculum.ParseLevel(level)
	if !ok {
		return nil, &curriculum.TopicError{Topic: topic, Reason: fmt.Sprintf("unknown level %q", level)}
	}

	resp, err := g.llm.Complete(ctx, ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: fmt.Sprintf(quizPrompt, topic, lvl, questionCount)}},
		Task:        ai.TaskQuiz,
		Temperature: 0.7,
		MaxTokens:   4096,
		JSON:        true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("generating quiz: %w", err)
		}
		return nil, &curriculum.GenerationError{Stage: "generate", Err: err}
	}

	raw, err := curriculum.ExtractObject(resp.Content)
	if err != nil {
		return nil, &curriculum.GenerationError{Stage: "extract", Err: err}
	}
	var q Quiz
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, &curriculum.GenerationError{Stage: "parse", Err: err}
	}
	normalize(&q)
	if v := Validate(&q); len(v) > 0 {
		return nil, &curriculum.GenerationError{Stage: "shape", Details: v}
	}

	q.ID = uuid.NewString()
	q.Topic = topic
	q.CreatedAt = g.now().UTC()
	return &q, nil
}

func normalize(q *Quiz) {
	q.Title = strings.TrimSpace(q.Title)
	if q.PassingScore <= 0 || q.PassingScore > 100 {
		q.PassingScore = DefaultPassingScore
	}
	q.XPReward = min(max(q.XPReward, 0), MaxXP)
	for i := range q.Questions {
		x := &q.Questions[i]
		x.Question = strings.TrimSpace(x.Question)
		x.XPPoints = min(max(x.XPPoints, 0), MaxXP)
		x.Difficulty = strings.ToLower(strings.TrimSpace(x.Difficulty))
	}
}

// Validate returns every problem that makes q unusable.
func Validate(q *Quiz) []string {
	var v []string
	if len(q.Questions) == 0 {
		v = append(v, "quiz has no questions")
	}
	for i, x := range q.Questions {
		if x.Question == "" {
			v = append(v, fmt.Sprintf("question %d has no text", i+1))
		}
		if len(x.Options) < 2 {
			v = append(v, fmt.Sprintf("question %d has %d options, want at least 2", i+1, len(x.Options)))
		}
		found := false
		for _, o := range x.Options {
			if sameAnswer(o, x.CorrectAnswer) {
				found = true
				break
			}
		}
		if !found {
			v = append(v, fmt.Sprintf("question %d: correct answer %q is not an option", i+1, x.CorrectAnswer))
		}
	}
	return v
}
