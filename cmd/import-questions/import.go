package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/ad/go-telegram-quiz/internal/config"
	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/ad/go-telegram-quiz/internal/redisstore"
	"github.com/ad/go-telegram-quiz/internal/services"
)

// openStore opens the question slot the bot reads. Redis is pinged before
// anything is written.
func openStore(ctx context.Context, storage config.Storage) (services.QuestionRepository, func(), error) {
	switch storage.Driver {
	case config.StorageRedis:
		client := redisstore.NewClient(storage.RedisAddr, storage.RedisPassword, storage.RedisDB)
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", storage.RedisAddr, err)
		}
		return client, func() { _ = client.Close() }, nil
	case config.StorageSQLite:
		sqlDB, err := db.Open(storage.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open database %s: %w", storage.DBPath, err)
		}
		queue := db.NewDBQueue(sqlDB)
		return db.NewQuestionRepository(queue), func() {
			queue.Close()
			_ = sqlDB.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidStorageDriver, storage.Driver)
	}
}

// readQuestions accepts either [ ... ] or { "questions": [ ... ] }.
func readQuestions(path string) (models.Collection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseQuestions(raw)
}

func parseQuestions(raw []byte) (models.Collection, error) {
	var wrapper struct {
		Questions models.Collection `json:"questions"`
	}
	var arr models.Collection

	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Questions) > 0 {
		arr = wrapper.Questions
	} else if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}

	seen := map[string]bool{}
	var errs []error
	for i := range arr {
		q := &arr[i]
		if q.Type == "" {
			q.Type = models.QuestionTypeText
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Errorf("question %d: duplicate id %q", i+1, q.ID))
			continue
		}
		seen[q.ID] = true

		form := services.QuestionForm{Type: q.Type, Question: q.Question, CorrectAnswer: q.CorrectAnswer, Image: q.Image}
		if err := form.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("question %d (%s): %w", i+1, q.ID, err))
		}
		if q.Image != "" {
			if _, _, err := services.DecodeImage(q.Image); err != nil {
				errs = append(errs, fmt.Errorf("question %d (%s): %w", i+1, q.ID, err))
			}
		}
		if q.Type == models.QuestionTypeText {
			q.Image = ""
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return arr, nil
}

// importQuestions writes the collection and returns how many questions are
// stored afterwards. In append mode ids already stored are rejected.
func importQuestions(ctx context.Context, store services.QuestionRepository, imported models.Collection, appendNew bool) (int, error) {
	next := imported.Clone()
	if appendNew {
		existing, err := store.Load(ctx)
		if err != nil {
			return 0, err
		}
		for _, q := range imported {
			if existing.IndexOf(q.ID) >= 0 {
				return 0, fmt.Errorf("question %q already stored", q.ID)
			}
		}
		next = append(existing.Clone(), imported...)
	}

	if err := store.Save(ctx, next); err != nil {
		return 0, err
	}
	return len(next), nil
}
