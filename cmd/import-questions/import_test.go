package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ad/go-telegram-quiz/internal/config"
	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/ad/go-telegram-quiz/internal/redisstore"
	"github.com/ad/go-telegram-quiz/internal/services"
)

func TestParseQuestionsFormats(t *testing.T) {
	arr, err := parseQuestions([]byte(`[{"id":"a","question":"2+2?","correctAnswer":"4"}]`))
	require.NoError(t, err)
	require.Len(t, arr, 1)
	require.Equal(t, models.QuestionTypeText, arr[0].Type)

	wrapped, err := parseQuestions([]byte(`{"questions":[{"question":"Capital of France?","correctAnswer":"Paris","type":"text"}]}`))
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	require.NotEmpty(t, wrapped[0].ID)
}

func TestParseQuestionsValidation(t *testing.T) {
	_, err := parseQuestions([]byte(`[{"id":"a","question":"q","correctAnswer":"a"},{"id":"a","question":"q2","correctAnswer":"b"}]`))
	require.ErrorContains(t, err, "duplicate id")

	_, err = parseQuestions([]byte(`[{"id":"a","question":" ","correctAnswer":"a"}]`))
	require.ErrorIs(t, err, services.ErrEmptyQuestion)

	_, err = parseQuestions([]byte(`[{"id":"a","type":"image","question":"q","correctAnswer":"a","image":"nope"}]`))
	require.ErrorIs(t, err, services.ErrMalformedImage)

	_, err = parseQuestions([]byte(`not json`))
	require.Error(t, err)
}

func TestImportQuestionsIntoRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := redisstore.NewClient(mr.Addr(), "", 0)
	defer store.Close()

	first := models.Collection{{ID: "a", Type: models.QuestionTypeText, Question: "q", CorrectAnswer: "a"}}
	count, err := importQuestions(ctx, store, first, false)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	second := models.Collection{{ID: "b", Type: models.QuestionTypeText, Question: "q2", CorrectAnswer: "b"}}
	count, err = importQuestions(ctx, store, second, true)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	_, err = importQuestions(ctx, store, first, true)
	require.ErrorContains(t, err, "already stored")

	count, err = importQuestions(ctx, store, second, false)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", stored[0].ID)
}

func TestOpenStoreUsesRedisDB(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, closeStore, err := openStore(ctx, config.Storage{Driver: config.StorageRedis, RedisAddr: mr.Addr(), RedisDB: 3})
	require.NoError(t, err)
	defer closeStore()

	_, err = importQuestions(ctx, store, models.Collection{{ID: "a", Type: models.QuestionTypeText, Question: "q", CorrectAnswer: "a"}}, false)
	require.NoError(t, err)
	require.True(t, mr.DB(3).Exists(redisstore.DefaultKey))
	require.False(t, mr.DB(0).Exists(redisstore.DefaultKey))
}

func TestOpenStoreRedisUnreachable(t *testing.T) {
	_, _, err := openStore(context.Background(), config.Storage{Driver: config.StorageRedis, RedisAddr: "127.0.0.1:1"})
	require.ErrorContains(t, err, "ping redis")
}

func TestOpenStoreSQLite(t *testing.T) {
	store, closeStore, err := openStore(context.Background(), config.Storage{Driver: config.StorageSQLite, DBPath: ":memory:"})
	require.NoError(t, err)
	defer closeStore()
	require.IsType(t, &db.QuestionRepository{}, store)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, _, err := openStore(context.Background(), config.Storage{Driver: "etcd"})
	require.ErrorIs(t, err, config.ErrInvalidStorageDriver)
}
