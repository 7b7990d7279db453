package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/fsm"
	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/ad/go-telegram-quiz/internal/services"
)

// AdminBot is what the admin menus need beyond plain sending.
type AdminBot interface {
	services.TelegramSender
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*tgmodels.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type AdminHandler struct {
	bot     AdminBot
	adminID int64
	editor  *services.AdminEditor
	files   FileFetcher
	logger  *zap.Logger

	mu    sync.Mutex
	state string
}

func NewAdminHandler(b AdminBot, adminID int64, editor *services.AdminEditor, files FileFetcher, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		bot:     b,
		adminID: adminID,
		editor:  editor,
		files:   files,
		logger:  logger.Named("admin_handler"),
	}
}

func (h *AdminHandler) State() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *AdminHandler) setState(state string) {
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
}

func (h *AdminHandler) HandleCommand(ctx context.Context, msg *tgmodels.Message) bool {
	if msg.From == nil || msg.From.ID != h.adminID {
		return false
	}

	switch msg.Text {
	case "/admin":
		h.showAdminMenu(ctx, msg.Chat.ID, 0)
		return true
	case "/cancel":
		h.cancelOperation(ctx, msg.Chat.ID)
		return true
	}

	state := h.State()
	if !fsm.IsFormState(state) {
		return false
	}
	h.handleStateInput(ctx, msg, state)
	return true
}

func (h *AdminHandler) HandleCallback(ctx context.Context, callback *tgmodels.CallbackQuery) bool {
	if callback.From.ID != h.adminID || !strings.HasPrefix(callback.Data, "admin:") {
		return false
	}

	msg := callback.Message.Message
	if msg == nil {
		return false
	}

	_, _ = h.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
	})

	chatID := msg.Chat.ID
	messageID := msg.ID
	data := callback.Data

	switch {
	case data == "admin:menu":
		h.showAdminMenu(ctx, chatID, messageID)
	case data == "admin:add:text":
		h.startAddQuestion(ctx, chatID, messageID, models.QuestionTypeText)
	case data == "admin:add:image":
		h.startAddQuestion(ctx, chatID, messageID, models.QuestionTypeImage)
	case data == "admin:list":
		h.showQuestionList(ctx, chatID, messageID)
	case data == "admin:logout":
		h.logout(ctx, chatID, messageID)
	case strings.HasPrefix(data, "admin:q:"):
		h.showQuestion(ctx, chatID, messageID, strings.TrimPrefix(data, "admin:q:"))
	case strings.HasPrefix(data, "admin:edit:"):
		h.startEditQuestion(ctx, chatID, messageID, strings.TrimPrefix(data, "admin:edit:"))
	case strings.HasPrefix(data, "admin:delete:"):
		h.deleteQuestion(ctx, chatID, messageID, strings.TrimPrefix(data, "admin:delete:"))
	default:
		return false
	}

	return true
}

func (h *AdminHandler) editOrSend(ctx context.Context, chatID int64, messageID int, text string, keyboard *tgmodels.InlineKeyboardMarkup) {
	if messageID > 0 {
		params := &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      text,
		}
		if keyboard != nil {
			params.ReplyMarkup = keyboard
		}
		_, err := h.bot.EditMessageText(ctx, params)
		if err == nil {
			return
		}
		h.logger.Debug("edit message failed, sending a new one", zap.Error(err))
	}
	h.sendMessage(ctx, chatID, text, keyboard)
}

func (h *AdminHandler) sendMessage(ctx context.Context, chatID int64, text string, keyboard *tgmodels.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	if _, err := h.bot.SendMessage(ctx, params); err != nil {
		h.logger.Warn("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func backKeyboard(data string) *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{{Text: "« Back", CallbackData: data}},
		},
	}
}

func (h *AdminHandler) showAdminMenu(ctx context.Context, chatID int64, messageID int) {
	h.editor.Reset()
	h.setState(fsm.StateAdminMenu)

	keyboard := &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{{Text: "📝 Add text question", CallbackData: "admin:add:text"}},
			{{Text: "🖼 Add image question", CallbackData: "admin:add:image"}},
			{{Text: "📋 Questions", CallbackData: "admin:list"}},
			{{Text: "🚪 Logout", CallbackData: "admin:logout"}},
		},
	}

	h.editOrSend(ctx, chatID, messageID, "🔧 Quiz editor", keyboard)
}

func (h *AdminHandler) cancelOperation(ctx context.Context, chatID int64) {
	h.editor.Reset()
	h.setState(fsm.StateAdminIdle)
	h.sendMessage(ctx, chatID, "❌ Cancelled", nil)
	h.showAdminMenu(ctx, chatID, 0)
}

func (h *AdminHandler) startAddQuestion(ctx context.Context, chatID int64, messageID int, questionType models.QuestionType) {
	h.editor.Reset()
	if err := h.editor.SetType(questionType); err != nil {
		h.editOrSend(ctx, chatID, messageID, "⚠️ "+err.Error(), backKeyboard("admin:menu"))
		return
	}
	h.setState(fsm.StateAdminQuestionText)

	h.editOrSend(ctx, chatID, messageID, "📝 Send the question text:\n\n/cancel - cancel", nil)
}

func (h *AdminHandler) startEditQuestion(ctx context.Context, chatID int64, messageID int, id string) {
	if err := h.editor.Edit(id); err != nil {
		h.editOrSend(ctx, chatID, messageID, "⚠️ Question not found", backKeyboard("admin:list"))
		return
	}
	h.setState(fsm.StateAdminQuestionText)

	form := h.editor.Form()
	h.editOrSend(ctx, chatID, messageID,
		"✏️ Current question:\n"+form.Question+"\n\nSend the new text or /skip to keep it.\n/cancel - cancel", nil)
}

func (h *AdminHandler) showQuestionList(ctx context.Context, chatID int64, messageID int) {
	h.setState(fsm.StateAdminMenu)
	questions := h.editor.Questions()

	if len(questions) == 0 {
		h.editOrSend(ctx, chatID, messageID, "📋 No questions yet", backKeyboard("admin:menu"))
		return
	}

	buttons := make([][]tgmodels.InlineKeyboardButton, 0, len(questions)+1)
	for _, q := range questions {
		buttons = append(buttons, []tgmodels.InlineKeyboardButton{
			{Text: services.FormatQuestionPreview(q), CallbackData: "admin:q:" + q.ID},
		})
	}
	buttons = append(buttons, []tgmodels.InlineKeyboardButton{
		{Text: "« Back", CallbackData: "admin:menu"},
	})

	h.editOrSend(ctx, chatID, messageID, "📋 Choose a question:", &tgmodels.InlineKeyboardMarkup{InlineKeyboard: buttons})
}

func (h *AdminHandler) showQuestion(ctx context.Context, chatID int64, messageID int, id string) {
	q, ok := h.editor.Questions().Find(id)
	if !ok {
		h.editOrSend(ctx, chatID, messageID, "⚠️ Question not found", backKeyboard("admin:list"))
		return
	}

	keyboard := &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "✏️ Edit", CallbackData: "admin:edit:" + q.ID},
				{Text: "🗑 Delete", CallbackData: "admin:delete:" + q.ID},
			},
			{{Text: "« Back", CallbackData: "admin:list"}},
		},
	}
	h.editOrSend(ctx, chatID, messageID, services.FormatQuestionDetails(q), keyboard)
}

func (h *AdminHandler) deleteQuestion(ctx context.Context, chatID int64, messageID int, id string) {
	err := h.editor.Delete(ctx, id)
	switch {
	case errors.Is(err, models.ErrQuestionNotFound):
		h.editOrSend(ctx, chatID, messageID, "⚠️ Question not found", backKeyboard("admin:list"))
		return
	case errors.Is(err, services.ErrPersistFailed):
		h.sendMessage(ctx, chatID, "⚠️ Question deleted, but saving failed. The change will be written with the next save.", nil)
	case err != nil:
		h.logger.Error("delete question failed", zap.String("question_id", id), zap.Error(err))
		h.editOrSend(ctx, chatID, messageID, "⚠️ Could not delete the question", backKeyboard("admin:list"))
		return
	}

	h.showQuestionList(ctx, chatID, messageID)
}

func (h *AdminHandler) logout(ctx context.Context, chatID int64, messageID int) {
	h.editor.Reset()
	h.setState(fsm.StateAdminIdle)
	h.editor.Logout()
	h.editOrSend(ctx, chatID, messageID, "👋 Logged out. Send /admin to open the editor again.", nil)
}

func (h *AdminHandler) handleStateInput(ctx context.Context, msg *tgmodels.Message, state string) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	skip := text == "/skip"
	imageQuestion := h.editor.Form().Type == models.QuestionTypeImage

	switch state {
	case fsm.StateAdminQuestionText:
		if skip && h.editor.EditingID() != "" {
			h.advance(ctx, chatID, state, imageQuestion)
			return
		}
		if text == "" || skip {
			h.sendMessage(ctx, chatID, "⚠️ The question text cannot be empty. Send it again:", nil)
			return
		}
		h.editor.SetQuestion(msg.Text)
		h.advance(ctx, chatID, state, imageQuestion)

	case fsm.StateAdminQuestionImage:
		if skip {
			h.advance(ctx, chatID, state, imageQuestion)
			return
		}
		h.handleImageInput(ctx, msg)

	case fsm.StateAdminCorrectAnswer:
		if skip && h.editor.EditingID() != "" {
			h.submit(ctx, chatID)
			return
		}
		if text == "" || skip {
			h.sendMessage(ctx, chatID, "⚠️ The correct answer cannot be empty. Send it again:", nil)
			return
		}
		h.editor.SetCorrectAnswer(msg.Text)
		h.submit(ctx, chatID)
	}
}

func (h *AdminHandler) advance(ctx context.Context, chatID int64, state string, imageQuestion bool) {
	next := fsm.Next(state, imageQuestion)
	h.setState(next)

	editing := h.editor.EditingID() != ""
	switch next {
	case fsm.StateAdminQuestionImage:
		prompt := "🖼 Send the image as a photo or file, or /skip."
		if editing && h.editor.Form().Image != "" {
			prompt = "🖼 Send a new image, or /skip to keep the current one."
		}
		h.sendMessage(ctx, chatID, prompt, nil)
	case fsm.StateAdminCorrectAnswer:
		prompt := "✅ Send the correct answer:"
		if editing {
			prompt = "✅ Current answer: " + h.editor.Form().CorrectAnswer + "\n\nSend the new answer or /skip to keep it."
		}
		h.sendMessage(ctx, chatID, prompt, nil)
	}
}

func (h *AdminHandler) handleImageInput(ctx context.Context, msg *tgmodels.Message) {
	chatID := msg.Chat.ID
	fileID := attachedFileID(msg)
	if fileID == "" || h.files == nil {
		h.sendMessage(ctx, chatID, "🖼 Please send an image, or /skip.", nil)
		return
	}

	body, err := h.files.Fetch(ctx, fileID)
	if err != nil {
		h.logger.Warn("fetch image failed", zap.String("file_id", fileID), zap.Error(err))
		h.sendMessage(ctx, chatID, "⚠️ Could not download the file. Try again or /skip.", nil)
		return
	}
	defer body.Close()

	_, err = h.editor.UploadImage(body).Wait(ctx)
	switch {
	case errors.Is(err, services.ErrNotAnImage):
		h.sendMessage(ctx, chatID, "⚠️ That file is not an image. Send another one or /skip.", nil)
		return
	case err != nil:
		h.logger.Warn("image upload failed", zap.Error(err))
		h.sendMessage(ctx, chatID, "⚠️ Could not read the image. Try again or /skip.", nil)
		return
	}

	h.advance(ctx, chatID, fsm.StateAdminQuestionImage, true)
}

func (h *AdminHandler) submit(ctx context.Context, chatID int64) {
	q, err := h.editor.Submit(ctx)
	switch {
	case err == nil:
		h.sendMessage(ctx, chatID, "✅ Question saved\n\n"+services.FormatQuestionDetails(q), backKeyboard("admin:menu"))
	case errors.Is(err, services.ErrPersistFailed):
		h.sendMessage(ctx, chatID, "⚠️ Question kept, but saving failed: "+err.Error(), backKeyboard("admin:menu"))
	case errors.Is(err, models.ErrQuestionNotFound):
		h.sendMessage(ctx, chatID, "⚠️ The question was deleted while you were editing it.", backKeyboard("admin:menu"))
		h.editor.Reset()
	default:
		h.sendMessage(ctx, chatID, "⚠️ "+err.Error(), backKeyboard("admin:menu"))
		h.editor.Reset()
	}
	h.setState(fsm.StateAdminIdle)
}
