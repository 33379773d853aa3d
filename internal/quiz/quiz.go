// Package quiz generates multiple-choice quizzes for a topic and grades
// learner answers.
package quiz

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultPassingScore is the percentage needed to earn the quiz reward.
const DefaultPassingScore = 80

// MaxXP bounds the quiz reward and each question's points.
const MaxXP = 1000

// ErrUnknownQuiz is returned for a quiz id that was never issued.
var ErrUnknownQuiz = errors.New("unknown quiz")

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	XPPoints      int      `json:"xpPoints"`
}

type Quiz struct {
	ID                string     `json:"id"`
	Topic             string     `json:"topic"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	XPReward          int        `json:"xpReward"`
	PassingScore      int        `json:"passingScore"`
	Questions         []Question `json:"questions"`
	CompletionMessage string     `json:"completionMessage,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// PublicQuestion is a question as shown to the learner.
type PublicQuestion struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty,omitempty"`
	XPPoints   int      `json:"xpPoints"`
}

// PublicQuiz is a quiz with the answers and explanations removed.
type PublicQuiz struct {
	ID           string           `json:"id"`
	Topic        string           `json:"topic"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	XPReward     int              `json:"xpReward"`
	PassingScore int              `json:"passingScore"`
	Questions    []PublicQuestion `json:"questions"`
}

// Public hides the answers.
func (q *Quiz) Public() PublicQuiz {
	qs := make([]PublicQuestion, len(q.Questions))
	for i, x := range q.Questions {
		qs[i] = PublicQuestion{Question: x.Question, Options: x.Options, Difficulty: x.Difficulty, XPPoints: x.XPPoints}
	}
	return PublicQuiz{
		ID:           q.ID,
		Topic:        q.Topic,
		Title:        q.Title,
		Description:  q.Description,
		XPReward:     q.XPReward,
		PassingScore: q.PassingScore,
		Questions:    qs,
	}
}

// QuestionResult is the outcome of one answer.
type QuestionResult struct {
	Correct       bool   `json:"correct"`
	Answer        string `json:"answer"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
}

type Result struct {
	QuizID    string           `json:"quizId"`
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Percent   int              `json:"percent"`
	Passed    bool             `json:"passed"`
	XPEarned  int              `json:"xpEarned"`
	Message   string           `json:"message,omitempty"`
	Questions []QuestionResult `json:"questions"`
}

// Grade scores answers in question order. Missing answers are wrong and
// extra ones are ignored. Answers match options ignoring surrounding space
// and case.
func Grade(q *Quiz, answers []string) Result {
	r := Result{QuizID: q.ID, Total: len(q.Questions), Questions: make([]QuestionResult, len(q.Questions))}
	for i, x := range q.Questions {
		var given string
		if i < len(answers) {
			given = answers[i]
		}
		ok := sameAnswer(given, x.CorrectAnswer)
		r.Questions[i] = QuestionResult{Correct: ok, Answer: given, CorrectAnswer: x.CorrectAnswer, Explanation: x.Explanation}
		if ok {
			r.Correct++
			r.XPEarned += x.XPPoints
		}
	}
	if r.Total > 0 {
		r.Percent = r.Correct * 100 / r.Total
	}
	passing := q.PassingScore
	if passing <= 0 {
		passing = DefaultPassingScore
	}
	if r.Total > 0 && r.Percent >= passing {
		r.Passed = true
		r.XPEarned += q.XPReward
		r.Message = q.CompletionMessage
	}
	return r
}

func sameAnswer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Store keeps issued quizzes per learner.
type Store struct {
	mu      sync.RWMutex
	quizzes map[string]map[string]*Quiz // learner -> quiz id -> quiz
}

func NewStore() *Store {
	return &Store{quizzes: make(map[string]map[string]*Quiz)}
}

func (s *Store) Put(learnerID string, q *Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.quizzes[learnerID]
	if !ok {
		m = make(map[string]*Quiz)
		s.quizzes[learnerID] = m
	}
	m[q.ID] = q
}

// Get returns ErrUnknownQuiz when learnerID was never issued quizID.
func (s *Store) Get(learnerID, quizID string) (*Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[learnerID][quizID]
	if !ok {
		return nil, ErrUnknownQuiz
	}
	return q, nil
}
