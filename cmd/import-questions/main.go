package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/config"
	"github.com/ad/go-telegram-quiz/internal/logger"
)

func main() {
	var (
		file      = pflag.StringP("file", "f", "questions.json", "JSON file with questions")
		driver    = pflag.String("driver", envOr("STORAGE_DRIVER", "sqlite"), "storage driver: sqlite or redis")
		dbPath    = pflag.String("db", envOr("DB_PATH", "quiz.db"), "SQLite database path")
		redisAddr = pflag.String("redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address")
		redisDB   = pflag.Int("redis-db", envInt("REDIS_DB", 0), "Redis database index")
		appendNew = pflag.Bool("append", false, "append to the stored questions instead of replacing them")
		dryRun    = pflag.Bool("dry-run", false, "validate the file without writing")
	)
	pflag.Parse()

	log, err := logger.New(&config.Config{Env: os.Getenv("APP_ENV")})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	imported, err := readQuestions(*file)
	if err != nil {
		log.Fatal("failed to read questions", zap.String("file", *file), zap.Error(err))
	}
	log.Info("questions parsed", zap.String("file", *file), zap.Int("count", len(imported)))
	if *dryRun {
		return
	}

	storage := config.Storage{
		Driver:        *driver,
		DBPath:        *dbPath,
		RedisAddr:     *redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       *redisDB,
	}
	store, closeStore, err := openStore(ctx, storage)
	if err != nil {
		log.Fatal("failed to open storage", zap.String("driver", *driver), zap.Error(err))
	}
	defer closeStore()

	count, err := importQuestions(ctx, store, imported, *appendNew)
	if err != nil {
		log.Fatal("import failed", zap.Error(err))
	}
	log.Info("questions imported", zap.Int("stored", count), zap.Bool("append", *appendNew))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
