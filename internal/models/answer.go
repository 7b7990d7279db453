package models

import "time"

type Answer struct {
	ID         int64
	ChatID     int64
	QuestionID string
	TextAnswer string
	IsCorrect  bool
	CreatedAt  time.Time
}

type AnswerSummary struct {
	Total   int
	Correct int
}
