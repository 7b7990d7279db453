package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ad/go-telegram-quiz/internal/models"
)

const DefaultQuestionsKey = "quizQuestions"

// QuestionRepository keeps the whole question collection as one JSON value
// in a single row of the storage table.
type QuestionRepository struct {
	queue *DBQueue
	key   string
}

func NewQuestionRepository(queue *DBQueue) *QuestionRepository {
	return &QuestionRepository{queue: queue, key: DefaultQuestionsKey}
}

func NewQuestionRepositoryWithKey(queue *DBQueue, key string) *QuestionRepository {
	return &QuestionRepository{queue: queue, key: key}
}

func (r *QuestionRepository) Load(ctx context.Context) (models.Collection, error) {
	result, err := r.queue.Execute(ctx, func(ctx context.Context, db *sql.DB) (interface{}, error) {
		var raw string
		err := db.QueryRowContext(ctx, `SELECT value FROM storage WHERE key = ?`, r.key).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return raw, err
	})
	if err != nil {
		return nil, err
	}

	raw := result.(string)
	if raw == "" {
		return models.Collection{}, nil
	}

	var questions models.Collection
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return models.Collection{}, fmt.Errorf("%w: %v", models.ErrCorruptCollection, err)
	}
	if questions == nil {
		questions = models.Collection{}
	}
	return questions, nil
}

func (r *QuestionRepository) Save(ctx context.Context, questions models.Collection) error {
	if questions == nil {
		questions = models.Collection{}
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}

	_, err = r.queue.Execute(ctx, func(ctx context.Context, db *sql.DB) (interface{}, error) {
		_, err := db.ExecContext(ctx, `
			INSERT INTO storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, r.key, string(data))
		return nil, err
	})
	return err
}

// SetRaw overwrites the slot with an arbitrary value. Used by tooling and
// tests that need to simulate a damaged slot.
func (r *QuestionRepository) SetRaw(ctx context.Context, value string) error {
	_, err := r.queue.Execute(ctx, func(ctx context.Context, db *sql.DB) (interface{}, error) {
		_, err := db.ExecContext(ctx, `
			INSERT INTO storage (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, r.key, value)
		return nil, err
	})
	return err
}
