package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ad/go-telegram-quiz/internal/models"
)

const DefaultKey = "quizQuestions"

// Client keeps the question collection in a single Redis string key.
type Client struct {
	rdb *redis.Client
	key string
}

func NewClient(addr, password string, db int) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Client{rdb: rdb, key: DefaultKey}
}

func (c *Client) WithKey(key string) *Client {
	return &Client{rdb: c.rdb, key: key}
}

func (c *Client) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) Load(ctx context.Context) (models.Collection, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Collection{}, nil
	}
	if err != nil {
		return nil, err
	}

	var questions models.Collection
	if err := json.Unmarshal(raw, &questions); err != nil {
		return models.Collection{}, fmt.Errorf("%w: %v", models.ErrCorruptCollection, err)
	}
	if questions == nil {
		questions = models.Collection{}
	}
	return questions, nil
}

func (c *Client) Save(ctx context.Context, questions models.Collection) error {
	if questions == nil {
		questions = models.Collection{}
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key, data, 0).Err()
}
