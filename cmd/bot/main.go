package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/api"
	"github.com/ad/go-telegram-quiz/internal/config"
	"github.com/ad/go-telegram-quiz/internal/db"
	"github.com/ad/go-telegram-quiz/internal/handlers"
	"github.com/ad/go-telegram-quiz/internal/logger"
	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/ad/go-telegram-quiz/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sqlDB, err := db.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("failed to open database", zap.String("path", cfg.Storage.DBPath), zap.Error(err))
	}
	defer sqlDB.Close()

	dbQueue := db.NewDBQueue(sqlDB)
	defer dbQueue.Close()

	store, closeStore, err := openQuestionStore(ctx, cfg, dbQueue)
	if err != nil {
		log.Fatal("failed to open question store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeStore()
	answerRepo := db.NewAnswerRepository(dbQueue)

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	b, err := bot.New(cfg.BotToken, bot.WithHTTPClient(15*time.Second, httpClient))
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	botInfo, err := connect(ctx, b, log)
	if err != nil {
		log.Fatal("failed to get bot info after 3 attempts", zap.Error(err))
	}

	errorManager := services.NewErrorManager(b, cfg.AdminID, log)
	msgManager := services.NewMessageManager(b, errorManager, log)

	editor := services.NewAdminEditor(store, log,
		func(q models.Question) {
			log.Info("question added", zap.String("question_id", q.ID), zap.String("type", string(q.Type)))
		},
		func() {
			log.Info("admin logged out")
		},
	)
	if err := editor.Load(ctx); err != nil {
		log.Fatal("failed to load questions", zap.Error(err))
	}

	runnerCfg := services.RunnerConfig{
		FeedbackDelay: cfg.FeedbackDelay,
		ConfettiDelay: cfg.ConfettiDelay,
	}
	quizHandler := handlers.NewQuizHandler(msgManager, store, answerRepo, clockwork.NewRealClock(), runnerCfg, log)
	defer quizHandler.Close()

	adminHandler := handlers.NewAdminHandler(b, cfg.AdminID, editor, handlers.NewTelegramFiles(b, httpClient), log)
	handler := handlers.NewBotHandler(cfg.AdminID, errorManager, adminHandler, quizHandler, log)

	b.RegisterHandlerMatchFunc(func(update *tgmodels.Update) bool {
		return true
	}, handler.HandleUpdate, handlers.LogMiddleware(log.Named("updates")))

	if cfg.HTTP.Addr != "" {
		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewRouter(editor, log, cfg.HTTP.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("http api listening", zap.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server failed", zap.Error(err))
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Info("bot started",
		zap.String("username", botInfo.Username),
		zap.Int64("admin_id", cfg.AdminID),
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("questions", len(editor.Questions())),
	)

	b.Start(ctx)
}

func connect(ctx context.Context, b *bot.Bot, log *zap.Logger) (*tgmodels.User, error) {
	var (
		botInfo *tgmodels.User
		err     error
	)
	for i := 0; i < 3; i++ {
		log.Info("connecting to Telegram API", zap.Int("attempt", i+1))
		getMeCtx, getMeCancel := context.WithTimeout(ctx, 10*time.Second)
		botInfo, err = b.GetMe(getMeCtx)
		getMeCancel()
		if err == nil {
			return botInfo, nil
		}
		log.Warn("failed to get bot info", zap.Int("attempt", i+1), zap.Error(err))
		if i < 2 {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, err
}
