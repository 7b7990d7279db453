package services

import (
	"bytes"
	"context"
	"errors"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/models"
)

// ConfettiEffectID is Telegram's 🎉 message effect.
const ConfettiEffectID = "5046509860389126442"

var ErrSendFailed = errors.New("failed to send message after retry")

type MessageManager struct {
	sender   TelegramSender
	errMgr   *ErrorManager
	logger   *zap.Logger
	maxRetry int
}

func NewMessageManager(sender TelegramSender, errMgr *ErrorManager, logger *zap.Logger) *MessageManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageManager{
		sender:   sender,
		errMgr:   errMgr,
		logger:   logger.Named("message_manager"),
		maxRetry: 2,
	}
}

func (m *MessageManager) SendWithRetry(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	var lastErr error
	for attempt := 0; attempt < m.maxRetry; attempt++ {
		msg, err := m.sender.SendMessage(ctx, params)
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	chatID, _ := params.ChatID.(int64)
	m.reportFailure(ctx, chatID, params, lastErr)
	return nil, errors.Join(ErrSendFailed, lastErr)
}

func (m *MessageManager) SendWithRetryAndEffect(ctx context.Context, params *bot.SendMessageParams, effectID string) (*tgmodels.Message, error) {
	if effectID != "" {
		params.MessageEffectID = effectID
	}
	return m.SendWithRetry(ctx, params)
}

func (m *MessageManager) SendPhotoWithRetry(ctx context.Context, params *bot.SendPhotoParams) (*tgmodels.Message, error) {
	var lastErr error
	for attempt := 0; attempt < m.maxRetry; attempt++ {
		msg, err := m.sender.SendPhoto(ctx, params)
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	chatID, _ := params.ChatID.(int64)
	m.reportFailure(ctx, chatID, params, lastErr)
	return nil, errors.Join(ErrSendFailed, lastErr)
}

// SendQuestion sends the prompt with its "Question i of n" header, as a photo
// when the question carries a decodable image.
func (m *MessageManager) SendQuestion(ctx context.Context, chatID int64, q models.Question, current, total int) (*tgmodels.Message, error) {
	text := FormatQuestion(q, current, total)

	if q.Type == models.QuestionTypeImage && q.HasImage() {
		data, mediaType, err := DecodeImage(q.Image)
		if err == nil {
			return m.SendPhotoWithRetry(ctx, &bot.SendPhotoParams{
				ChatID:  chatID,
				Photo:   &tgmodels.InputFileUpload{Filename: ImageFilename(mediaType), Data: bytes.NewReader(data)},
				Caption: text,
			})
		}
		m.logger.Warn("question image is unreadable, sending text only", zap.String("question_id", q.ID), zap.Error(err))
	}

	return m.SendWithRetry(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

func (m *MessageManager) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := m.sender.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		m.logger.Debug("delete message failed", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
	}
	return err
}

func (m *MessageManager) reportFailure(ctx context.Context, chatID int64, params interface{}, err error) {
	if m.errMgr != nil {
		m.errMgr.NotifyAdminWithCurl(ctx, chatID, params, err)
		return
	}
	m.logger.Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
}
