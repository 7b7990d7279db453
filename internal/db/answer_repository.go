package db

import (
	"context"
	"database/sql"

	"github.com/ad/go-telegram-quiz/internal/models"
)

type AnswerRepository struct {
	queue *DBQueue
}

func NewAnswerRepository(queue *DBQueue) *AnswerRepository {
	return &AnswerRepository{queue: queue}
}

func (r *AnswerRepository) Record(ctx context.Context, answer *models.Answer) (int64, error) {
	result, err := r.queue.Execute(ctx, func(ctx context.Context, db *sql.DB) (interface{}, error) {
		res, err := db.ExecContext(ctx, `
			INSERT INTO answers (chat_id, question_id, text_answer, is_correct)
			VALUES (?, ?, ?, ?)
		`, answer.ChatID, answer.QuestionID, answer.TextAnswer, answer.IsCorrect)
		if err != nil {
			return nil, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

func (r *AnswerRepository) Summary(ctx context.Context, chatID int64) (*models.AnswerSummary, error) {
	result, err := r.queue.Execute(ctx, func(ctx context.Context, db *sql.DB) (interface{}, error) {
		var summary models.AnswerSummary
		var correct sql.NullInt64
		err := db.QueryRowContext(ctx, `
			SELECT COUNT(*), SUM(CASE WHEN is_correct THEN 1 ELSE 0 END)
			FROM answers WHERE chat_id = ?
		`, chatID).Scan(&summary.Total, &correct)
		if err != nil {
			return nil, err
		}
		summary.Correct = int(correct.Int64)
		return &summary, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.AnswerSummary), nil
}

func (r *AnswerRepository) ListByChat(ctx context.Context, chatID int64) ([]*models.Answer, error) {
	result, err := r.queue.Execute(ctx, func(ctx context.Context, db *sql.DB) (interface{}, error) {
		rows, err := db.QueryContext(ctx, `
			SELECT id, chat_id, question_id, text_answer, is_correct, created_at
			FROM answers WHERE chat_id = ? ORDER BY id
		`, chatID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var answers []*models.Answer
		for rows.Next() {
			var a models.Answer
			if err := rows.Scan(&a.ID, &a.ChatID, &a.QuestionID, &a.TextAnswer, &a.IsCorrect, &a.CreatedAt); err != nil {
				return nil, err
			}
			answers = append(answers, &a)
		}
		return answers, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Answer), nil
}
