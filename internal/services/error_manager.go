package services

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const maxAdminReportLength = 4000

type ErrorManager struct {
	sender  TelegramSender
	adminID int64
	logger  *zap.Logger
}

func NewErrorManager(sender TelegramSender, adminID int64, logger *zap.Logger) *ErrorManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorManager{
		sender:  sender,
		adminID: adminID,
		logger:  logger.Named("error_manager"),
	}
}

func (e *ErrorManager) NotifyAdmin(ctx context.Context, panicValue interface{}, update *tgmodels.Update) {
	userInfo := describeSender(update)
	stack := string(debug.Stack())

	e.logger.Error("panic in handler",
		zap.String("user", userInfo),
		zap.Any("panic", panicValue),
		zap.String("stack", stack),
	)

	msg := fmt.Sprintf("🚨 Panic in handler\nUser: %s\nError: %v\n\nStack trace:\n%s",
		userInfo, panicValue, stack)
	e.report(ctx, msg)
}

func (e *ErrorManager) NotifyAdminWithCurl(ctx context.Context, chatID int64, request interface{}, err error) {
	e.logger.Warn("telegram request failed", zap.Int64("chat_id", chatID), zap.Error(err))

	msg := fmt.Sprintf("❌ Failed to send message\nUser: [%d]\nError: %v\n\nCurl:\n%s",
		chatID, err, e.buildCurlCommand(request))
	e.report(ctx, msg)
}

func (e *ErrorManager) report(ctx context.Context, msg string) {
	if e.sender == nil || e.adminID == 0 {
		return
	}
	if len(msg) > maxAdminReportLength {
		msg = msg[:maxAdminReportLength] + "\n... (truncated)"
	}
	_, _ = e.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: e.adminID,
		Text:   msg,
	})
}

func (e *ErrorManager) buildCurlCommand(request interface{}) string {
	method := "sendMessage"
	if _, ok := request.(*bot.SendPhotoParams); ok {
		method = "sendPhoto"
	}

	jsonData, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		return fmt.Sprintf("# Failed to serialize request: %v", err)
	}

	return fmt.Sprintf("curl -X POST 'https://api.telegram.org/bot[BOT_TOKEN]/%s' \\\n  -H 'Content-Type: application/json' \\\n  -d '%s'",
		method, string(jsonData))
}

func describeSender(update *tgmodels.Update) string {
	if update == nil {
		return "unknown"
	}

	var user *tgmodels.User
	switch {
	case update.Message != nil && update.Message.From != nil:
		user = update.Message.From
	case update.CallbackQuery != nil && update.CallbackQuery.From.ID != 0:
		user = &update.CallbackQuery.From
	default:
		return "unknown"
	}

	info := fmt.Sprintf("[%d]", user.ID)
	if user.FirstName != "" {
		info = user.FirstName + " " + info
	}
	if user.Username != "" {
		info = info + " @" + user.Username
	}
	return info
}
