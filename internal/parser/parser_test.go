package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rkrmr33/quizlevels/internal/models"
)

const sampleBank = `# My Quiz Title

# Settings
required_correct_answers: 1

## easy
points: 5

### What is the capital of France?
type: multiple-choice
- Berlin
- Madrid
- Paris
- Rome
* Answer: Paris

### Water boils at 100 degrees Celsius at sea level.
type: true-false
* Answer: true

## medium

### What is 2 + 2?
* Answer: 4

## hard
points: 50

### What is the largest mammal in the world?
- Elephant
- Blue Whale
* Answer: Blue Whale

### The Earth is flat.
* Answer: false
`

func TestParseBankMarkdown(t *testing.T) {
	b, err := ParseBankMarkdown(sampleBank)
	if err != nil {
		t.Fatalf("Failed to parse bank: %v", err)
	}

	if b.Title != "My Quiz Title" {
		t.Errorf("Expected title 'My Quiz Title', got '%s'", b.Title)
	}
	if b.RequiredCorrect != 1 {
		t.Errorf("Expected required correct answers 1, got %d", b.RequiredCorrect)
	}

	if len(b.Levels[models.LevelEasy]) != 2 {
		t.Fatalf("Expected 2 easy questions, got %d", len(b.Levels[models.LevelEasy]))
	}
	if len(b.Levels[models.LevelMedium]) != 1 {
		t.Fatalf("Expected 1 medium question, got %d", len(b.Levels[models.LevelMedium]))
	}
	if len(b.Levels[models.LevelHard]) != 2 {
		t.Fatalf("Expected 2 hard questions, got %d", len(b.Levels[models.LevelHard]))
	}

	q1 := b.Levels[models.LevelEasy][0]
	if q1.Prompt != "What is the capital of France?" {
		t.Errorf("Expected question text 'What is the capital of France?', got '%s'", q1.Prompt)
	}
	if q1.Kind != models.KindMultipleChoice {
		t.Errorf("Expected multiple-choice, got '%s'", q1.Kind)
	}
	if len(q1.Options) != 4 {
		t.Errorf("Expected 4 options, got %d", len(q1.Options))
	}
	if q1.CorrectAnswer != "Paris" {
		t.Errorf("Expected answer 'Paris', got '%s'", q1.CorrectAnswer)
	}

	if b.PointsFor(models.LevelEasy) != 5 {
		t.Errorf("Expected 5 easy points, got %d", b.PointsFor(models.LevelEasy))
	}
	if b.PointsFor(models.LevelMedium) != 20 {
		t.Errorf("Expected default 20 medium points, got %d", b.PointsFor(models.LevelMedium))
	}
	if b.PointsFor(models.LevelHard) != 50 {
		t.Errorf("Expected 50 hard points, got %d", b.PointsFor(models.LevelHard))
	}
}

func TestParseBankMarkdown_InfersKinds(t *testing.T) {
	b, err := ParseBankMarkdown(sampleBank)
	if err != nil {
		t.Fatalf("Failed to parse bank: %v", err)
	}

	tests := []struct {
		level    models.Level
		index    int
		expected models.QuestionKind
	}{
		{models.LevelMedium, 0, models.KindTextInput},
		{models.LevelHard, 0, models.KindMultipleChoice},
		{models.LevelHard, 1, models.KindTrueFalse},
	}

	for _, tt := range tests {
		got := b.Levels[tt.level][tt.index].Kind
		if got != tt.expected {
			t.Errorf("%s question %d: expected kind '%s', got '%s'", tt.level, tt.index+1, tt.expected, got)
		}
	}
}

func TestParseBankMarkdown_NoTitle(t *testing.T) {
	markdown := `## easy
### Question 1?
- Option A
- Option B
* Answer: Option A`

	_, err := ParseBankMarkdown(markdown)
	if err == nil {
		t.Error("Expected error for missing title, got nil")
	}
}

func TestParseBankMarkdown_MissingLevel(t *testing.T) {
	markdown := `# My Quiz

## easy
### Question 1?
* Answer: yes`

	_, err := ParseBankMarkdown(markdown)
	if err == nil {
		t.Error("Expected error for missing medium and hard levels, got nil")
	}
}

func TestParseBankMarkdown_UnknownLevel(t *testing.T) {
	markdown := `# My Quiz

## expert
### Question 1?
* Answer: yes`

	_, err := ParseBankMarkdown(markdown)
	if err == nil {
		t.Error("Expected error for unknown level, got nil")
	}
}

func TestParseBankMarkdown_QuestionOutsideLevel(t *testing.T) {
	markdown := `# My Quiz

### Question 1?
* Answer: yes`

	_, err := ParseBankMarkdown(markdown)
	if err == nil {
		t.Error("Expected error for question outside of a level, got nil")
	}
}

func TestParseBankMarkdown_InvalidAnswer(t *testing.T) {
	markdown := `# My Quiz

## easy
### Question 1?
- Option A
- Option B
* Answer: Option C`

	_, err := ParseBankMarkdown(markdown)
	if err == nil {
		t.Error("Expected error for invalid answer, got nil")
	}
}

func TestLoadDefault(t *testing.T) {
	b, err := LoadDefault()
	if err != nil {
		t.Fatalf("Failed to load default bank: %v", err)
	}

	for _, level := range models.Levels {
		if len(b.Levels[level]) != 3 {
			t.Errorf("Expected 3 %s questions, got %d", level, len(b.Levels[level]))
		}
	}

	hard := b.Levels[models.LevelHard]
	if hard[2].Kind != models.KindTextInput || hard[2].CorrectAnswer != "false" {
		t.Errorf("Expected last hard question to be text input answered 'false', got %s '%s'", hard[2].Kind, hard[2].CorrectAnswer)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.md")
	if err := os.WriteFile(path, []byte(sampleBank), 0o644); err != nil {
		t.Fatalf("Failed to write bank file: %v", err)
	}

	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load bank file: %v", err)
	}
	if b.Title != "My Quiz Title" {
		t.Errorf("Expected title 'My Quiz Title', got '%s'", b.Title)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected models.QuestionKind
		hasError bool
	}{
		{"multiple-choice", models.KindMultipleChoice, false},
		{"MC", models.KindMultipleChoice, false},
		{"true-false", models.KindTrueFalse, false},
		{"tf", models.KindTrueFalse, false},
		{"text-input", models.KindTextInput, false},
		{"text", models.KindTextInput, false},
		{"essay", "", true},
	}

	for _, tt := range tests {
		result, err := parseKind(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("Expected error for input '%s', got nil", tt.input)
			}
		} else {
			if err != nil {
				t.Errorf("Unexpected error for input '%s': %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("For input '%s', expected %s, got %s", tt.input, tt.expected, result)
			}
		}
	}
}
