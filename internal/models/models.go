package models

import (
	"time"
)

// Level is a difficulty tier of the quiz
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// Levels lists every level in play order
var Levels = []Level{LevelEasy, LevelMedium, LevelHard}

// Next returns the level that follows l, and false when l is the last one
func (l Level) Next() (Level, bool) {
	for i, lv := range Levels {
		if lv == l && i+1 < len(Levels) {
			return Levels[i+1], true
		}
	}
	return "", false
}

// Valid reports whether l is one of the known levels
func (l Level) Valid() bool {
	for _, lv := range Levels {
		if lv == l {
			return true
		}
	}
	return false
}

// QuestionKind tags the variant of a question
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple-choice"
	KindTrueFalse      QuestionKind = "true-false"
	KindTextInput      QuestionKind = "text-input"
)

// Question represents a single question from the question bank
type Question struct {
	Kind          QuestionKind `json:"type"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options,omitempty"` // multiple-choice only
	CorrectAnswer string       `json:"-"`
}

// Choices returns the options the player picks from.
// Text input questions have none.
func (q Question) Choices() []string {
	switch q.Kind {
	case KindMultipleChoice:
		return q.Options
	case KindTrueFalse:
		return []string{"true", "false"}
	}
	return nil
}

// GameState is the state of a quiz session
type GameState string

const (
	StateStart         GameState = "start"
	StatePlaying       GameState = "playing"
	StateLevelComplete GameState = "level-complete"
	StateGameOver      GameState = "game-over"
)

// FeedbackType is the severity of a feedback message
type FeedbackType string

const (
	FeedbackSuccess FeedbackType = "success"
	FeedbackError   FeedbackType = "error"
)

// Feedback is the outcome message shown after an answer, a timeout or a level end
type Feedback struct {
	Type    FeedbackType `json:"type"`
	Message string       `json:"message"`
}

// Snapshot is the read-only view of a session handed to the presentation layer
type Snapshot struct {
	SessionID      string    `json:"session_id"`
	State          GameState `json:"state"`
	Level          Level     `json:"level"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	QuestionNumber int       `json:"question_number"` // 1-based
	TotalQuestions int       `json:"total_questions"`
	Question       *Question `json:"question,omitempty"`
	Choices        []string  `json:"choices,omitempty"`
	Answer         string    `json:"answer"`
	Timer          int       `json:"timer"`
	TimerActive    bool      `json:"timer_active"`
	Feedback       *Feedback `json:"feedback,omitempty"`
	CanSubmit      bool      `json:"can_submit"`
	CanRetry       bool      `json:"can_retry"`
	CanAdvance     bool      `json:"can_advance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WebSocketMessage represents messages sent via WebSocket in both directions
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// AnswerInput is the payload of answer text updates and submissions
type AnswerInput struct {
	Answer string `json:"answer"`
}

// ErrorPayload is pushed to a client when one of its inputs was rejected
type ErrorPayload struct {
	Message string `json:"message"`
}
