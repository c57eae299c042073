package bank

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/rkrmr33/quizlevels/internal/models"
)

// DefaultMarkdown is the question bank shipped with the server
//
//go:embed default.md
var DefaultMarkdown string

// DefaultRequiredCorrect is the number of correct answers needed to clear a level
// when the bank does not override it
const DefaultRequiredCorrect = 2

// DefaultPoints are the points per correct answer used when a level omits them
var DefaultPoints = map[models.Level]int{
	models.LevelEasy:   10,
	models.LevelMedium: 20,
	models.LevelHard:   30,
}

// Bank is the read-only question bank, keyed by level
type Bank struct {
	Title           string
	Levels          map[models.Level][]models.Question
	Points          map[models.Level]int
	RequiredCorrect int
}

// New creates an empty bank with default scoring
func New() *Bank {
	points := make(map[models.Level]int, len(DefaultPoints))
	for l, p := range DefaultPoints {
		points[l] = p
	}
	return &Bank{
		Levels:          make(map[models.Level][]models.Question),
		Points:          points,
		RequiredCorrect: DefaultRequiredCorrect,
	}
}

// Questions returns a copy of the questions for a level
func (b *Bank) Questions(level models.Level) []models.Question {
	qs := b.Levels[level]
	out := make([]models.Question, len(qs))
	copy(out, qs)
	return out
}

// PointsFor returns the points awarded per correct answer on a level
func (b *Bank) PointsFor(level models.Level) int {
	return b.Points[level]
}

// Validate checks the bank satisfies the schema the quiz relies on.
// It runs once at load time; the quiz does not re-check questions while playing.
func (b *Bank) Validate() error {
	if b.RequiredCorrect <= 0 {
		return fmt.Errorf("required correct answers must be positive, got %d", b.RequiredCorrect)
	}

	for _, level := range models.Levels {
		qs := b.Levels[level]
		if len(qs) == 0 {
			return fmt.Errorf("level %s has no questions", level)
		}
		if b.Points[level] <= 0 {
			return fmt.Errorf("level %s: points must be positive, got %d", level, b.Points[level])
		}
		for i, q := range qs {
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("level %s question %d: %w", level, i+1, err)
			}
		}
	}

	for level := range b.Levels {
		if !level.Valid() {
			return fmt.Errorf("unknown level %q", level)
		}
	}

	return nil
}

func validateQuestion(q models.Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("question has no text")
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("question has no answer")
	}

	switch q.Kind {
	case models.KindMultipleChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("multiple-choice question has no options")
		}
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				return nil
			}
		}
		return fmt.Errorf("answer '%s' not found in options", q.CorrectAnswer)
	case models.KindTrueFalse:
		if a := strings.ToLower(q.CorrectAnswer); a != "true" && a != "false" {
			return fmt.Errorf("true-false answer must be 'true' or 'false', got '%s'", q.CorrectAnswer)
		}
	case models.KindTextInput:
	default:
		return fmt.Errorf("unknown question type '%s'", q.Kind)
	}
	return nil
}
