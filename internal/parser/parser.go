package parser

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rkrmr33/quizlevels/internal/bank"
	"github.com/rkrmr33/quizlevels/internal/models"
)

// ParseBankMarkdown parses a markdown string into a question bank
func ParseBankMarkdown(markdown string) (*bank.Bank, error) {
	b := bank.New()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	var currentLevel models.Level
	var currentQuestion *models.Question
	inSettings := false
	lineNum := 0

	flush := func() {
		if currentQuestion != nil && currentQuestion.Prompt != "" {
			b.Levels[currentLevel] = append(b.Levels[currentLevel], *currentQuestion)
		}
		currentQuestion = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}

		// Settings section (check BEFORE title to avoid "Settings" being treated as title)
		if trimmed == "# Settings" {
			inSettings = true
			continue
		}

		if strings.HasPrefix(trimmed, "# ") && b.Title == "" && !inSettings {
			b.Title = strings.TrimPrefix(trimmed, "# ")
			continue
		}

		if inSettings {
			if strings.HasPrefix(trimmed, "#") {
				inSettings = false
			} else if key, value, ok := splitSetting(trimmed); ok {
				if key == "required_correct_answers" {
					n, err := strconv.Atoi(value)
					if err != nil {
						return nil, fmt.Errorf("line %d: invalid required_correct_answers %q", lineNum, value)
					}
					b.RequiredCorrect = n
				}
				continue
			}
		}

		// Question (### prefix); check before level headers since both start with ##
		if strings.HasPrefix(trimmed, "###") {
			if currentLevel == "" {
				return nil, fmt.Errorf("line %d: question outside of a level section", lineNum)
			}
			flush()
			currentQuestion = &models.Question{
				Prompt: strings.TrimSpace(strings.TrimPrefix(trimmed, "###")),
			}
			continue
		}

		// Level section (## prefix)
		if strings.HasPrefix(trimmed, "##") {
			flush()
			level := models.Level(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "##"))))
			if !level.Valid() {
				return nil, fmt.Errorf("line %d: unknown level %q", lineNum, level)
			}
			currentLevel = level
			continue
		}

		// Per-question attributes and per-level points
		if key, value, ok := splitSetting(trimmed); ok && !strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "-") {
			switch {
			case key == "type" && currentQuestion != nil:
				kind, err := parseKind(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				currentQuestion.Kind = kind
				continue
			case key == "points" && currentQuestion == nil && currentLevel != "":
				points, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid points %q", lineNum, value)
				}
				b.Points[currentLevel] = points
				continue
			}
		}

		// Options (- prefix)
		if strings.HasPrefix(trimmed, "-") && currentQuestion != nil {
			option := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
			currentQuestion.Options = append(currentQuestion.Options, option)
			continue
		}

		// Answer (* Answer: prefix)
		if strings.HasPrefix(trimmed, "*") && currentQuestion != nil {
			answerLine := strings.TrimSpace(strings.TrimPrefix(trimmed, "*"))
			if strings.HasPrefix(answerLine, "Answer:") {
				currentQuestion.CorrectAnswer = strings.TrimSpace(strings.TrimPrefix(answerLine, "Answer:"))
			}
			continue
		}
	}

	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading markdown: %w", err)
	}

	for level, qs := range b.Levels {
		for i := range qs {
			if qs[i].Kind == "" {
				qs[i].Kind = inferKind(qs[i])
			}
		}
		b.Levels[level] = qs
	}

	if b.Title == "" {
		return nil, fmt.Errorf("question bank must have a title")
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid question bank: %w", err)
	}

	return b, nil
}

// LoadFile reads and parses a question bank from disk
func LoadFile(path string) (*bank.Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	return ParseBankMarkdown(string(data))
}

// LoadDefault parses the bank embedded in the binary
func LoadDefault() (*bank.Bank, error) {
	return ParseBankMarkdown(bank.DefaultMarkdown)
}

func splitSetting(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

// parseKind accepts the canonical kind names and a few shorthands ("mc", "tf", "text")
func parseKind(s string) (models.QuestionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multiple-choice", "multiple_choice", "mc":
		return models.KindMultipleChoice, nil
	case "true-false", "true_false", "tf", "boolean":
		return models.KindTrueFalse, nil
	case "text-input", "text_input", "text":
		return models.KindTextInput, nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// inferKind guesses the variant of a question with no explicit type line
func inferKind(q models.Question) models.QuestionKind {
	if len(q.Options) > 0 {
		return models.KindMultipleChoice
	}
	if a := strings.ToLower(q.CorrectAnswer); a == "true" || a == "false" {
		return models.KindTrueFalse
	}
	return models.KindTextInput
}
