package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/services"
)

type BotHandler struct {
	adminID      int64
	errorManager *services.ErrorManager
	adminHandler *AdminHandler
	quizHandler  *QuizHandler
	logger       *zap.Logger
}

func NewBotHandler(
	adminID int64,
	errorManager *services.ErrorManager,
	adminHandler *AdminHandler,
	quizHandler *QuizHandler,
	logger *zap.Logger,
) *BotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotHandler{
		adminID:      adminID,
		errorManager: errorManager,
		adminHandler: adminHandler,
		quizHandler:  quizHandler,
		logger:       logger.Named("bot_handler"),
	}
}

func (h *BotHandler) HandleUpdate(ctx context.Context, _ *bot.Bot, update *tgmodels.Update) {
	h.Dispatch(ctx, update)
}

// Dispatch routes one update to the admin or quiz side.
func (h *BotHandler) Dispatch(ctx context.Context, update *tgmodels.Update) {
	defer h.recoverPanic(ctx, update)

	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *BotHandler) recoverPanic(ctx context.Context, update *tgmodels.Update) {
	if r := recover(); r != nil {
		if h.errorManager != nil {
			h.errorManager.NotifyAdmin(ctx, r, update)
			return
		}
		h.logger.Error("panic in handler", zap.Any("panic", r))
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgmodels.Message) {
	if msg.From == nil {
		return
	}

	if msg.From.ID == h.adminID && h.adminHandler != nil {
		if h.adminHandler.HandleCommand(ctx, msg) {
			return
		}
	}

	if h.quizHandler != nil {
		h.quizHandler.HandleMessage(ctx, msg)
	}
}

func (h *BotHandler) handleCallback(ctx context.Context, callback *tgmodels.CallbackQuery) {
	if callback.From.ID != h.adminID || h.adminHandler == nil {
		return
	}
	h.adminHandler.HandleCallback(ctx, callback)
}

func FormatUser(u tgmodels.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if u.Username != "" {
		name += " @" + u.Username
	}
	return fmt.Sprintf("%s [%d]", name, u.ID)
}

// LogMiddleware logs incoming messages and callbacks.
func LogMiddleware(logger *zap.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
			if update.Message != nil && update.Message.From != nil {
				logger.Debug("message", zap.String("from", FormatUser(*update.Message.From)), zap.String("text", update.Message.Text))
			}
			if update.CallbackQuery != nil {
				logger.Debug("callback", zap.String("from", FormatUser(update.CallbackQuery.From)), zap.String("data", update.CallbackQuery.Data))
			}
			next(ctx, b, update)
		}
	}
}
