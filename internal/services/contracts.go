package services

import (
	"context"

	"github.com/ad/go-telegram-quiz/internal/models"
)

// QuestionRepository persists the whole question collection as one value.
// Load returns an empty collection when nothing is stored yet and wraps
// models.ErrCorruptCollection when the stored value cannot be decoded.
type QuestionRepository interface {
	Load(ctx context.Context) (models.Collection, error)
	Save(ctx context.Context, questions models.Collection) error
}

type AnswerRecorder interface {
	Record(ctx context.Context, answer *models.Answer) (int64, error)
	Summary(ctx context.Context, chatID int64) (*models.AnswerSummary, error)
}
