package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	QuestionMinLength = 5
	QuestionMaxLength = 500
)

// FillerText is returned by the random endpoint when an owner has no questions.
const FillerText = "Add some questions to get started!"

// DefaultQuestions are seeded, in this order, for an owner whose list is empty.
var DefaultQuestions = []string{
	"What's something you've always wanted to try but haven't yet?",
	"If you could travel anywhere right now, where would you go?",
	"What's the most spontaneous thing you've ever done?",
	"What's a skill you wish you could instantly master?",
	"What's the best piece of advice you've ever received?",
	"If you could have dinner with anyone, living or dead, who would it be?",
	"What's a movie you can watch over and over again?",
	"What's something that always makes you laugh?",
	"What's on your bucket list that you haven't told many people?",
	"If you could switch lives with anyone for a day, who would it be?",
}

type Question struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Order selects how an owner's questions are listed.
type Order int

const (
	// OrderInserted lists questions in the order they were created.
	OrderInserted Order = iota
	// OrderNewest lists the most recently created question first.
	OrderNewest
)

// NormalizeQuestionText trims surrounding whitespace and enforces the length bounds.
// Length is counted in characters, not bytes.
func NormalizeQuestionText(text string) (string, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n < QuestionMinLength || n > QuestionMaxLength {
		return "", &ValidationError{
			Field:   "text",
			Message: fmt.Sprintf("must be between %d and %d characters", QuestionMinLength, QuestionMaxLength),
		}
	}
	return text, nil
}
