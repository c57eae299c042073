package quiz

import (
	"math/rand"

	"github.com/rkrmr33/quizlevels/internal/models"
)

// Shuffle returns the questions in random order, leaving the input untouched
func Shuffle(questions []models.Question) []models.Question {
	shuffled := make([]models.Question, len(questions))
	copy(shuffled, questions)

	// Fisher-Yates
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}
