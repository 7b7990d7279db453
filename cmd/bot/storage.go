package main

import (
	"context"
	"fmt"

	"github.com/ad/go-telegram-quiz/internal/config"
	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/ad/go-telegram-quiz/internal/redisstore"
	"github.com/ad/go-telegram-quiz/internal/services"
)

// openQuestionStore returns the backend holding the question slot. Answers
// always stay in SQLite.
func openQuestionStore(ctx context.Context, cfg *config.Config, queue *db.DBQueue) (services.QuestionRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		client := redisstore.NewClient(cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB)
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Storage.RedisAddr, err)
		}
		return client, func() { _ = client.Close() }, nil
	case config.StorageSQLite:
		return db.NewQuestionRepository(queue), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidStorageDriver, cfg.Storage.Driver)
	}
}
