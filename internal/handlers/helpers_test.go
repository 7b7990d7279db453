package handlers

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/ad/go-telegram-quiz/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type sentMessage struct {
	ChatID   int64
	Text     string
	EffectID string
	Photo    bool
	Keyboard *tgmodels.InlineKeyboardMarkup
}

type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	edited   []sentMessage
	deleted  []int
	answered int

	// hold, when set before use, runs ahead of every send.
	hold func(text string)
}

func (f *fakeBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	if f.hold != nil {
		f.hold(params.Text)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	chatID, _ := params.ChatID.(int64)
	keyboard, _ := params.ReplyMarkup.(*tgmodels.InlineKeyboardMarkup)
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: params.Text, EffectID: params.MessageEffectID, Keyboard: keyboard})
	return &tgmodels.Message{ID: f.nextID}, nil
}

func (f *fakeBot) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*tgmodels.Message, error) {
	if f.hold != nil {
		f.hold(params.Caption)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	chatID, _ := params.ChatID.(int64)
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: params.Caption, Photo: true})
	return &tgmodels.Message{ID: f.nextID}, nil
}

func (f *fakeBot) DeleteMessage(_ context.Context, params *bot.DeleteMessageParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, params.MessageID)
	return true, nil
}

func (f *fakeBot) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*tgmodels.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chatID, _ := params.ChatID.(int64)
	keyboard, _ := params.ReplyMarkup.(*tgmodels.InlineKeyboardMarkup)
	f.edited = append(f.edited, sentMessage{ChatID: chatID, Text: params.Text, Keyboard: keyboard})
	return &tgmodels.Message{ID: params.MessageID}, nil
}

func (f *fakeBot) AnswerCallbackQuery(_ context.Context, _ *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered++
	return true, nil
}

func (f *fakeBot) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeBot) edits() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.edited...)
}

func (f *fakeBot) deletedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.deleted...)
}

// lastText returns the most recent sent or edited text.
func (f *fakeBot) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

func (f *fakeBot) findSent(substr string) (sentMessage, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.sent {
		if strings.Contains(m.Text, substr) {
			return m, i + 1, true
		}
	}
	return sentMessage{}, 0, false
}

type memoryQuestions struct {
	mu        sync.Mutex
	questions models.Collection
	loadErr   error
	panicLoad bool
}

func (r *memoryQuestions) Load(_ context.Context) (models.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicLoad {
		panic("storage exploded")
	}
	if r.loadErr != nil {
		return models.Collection{}, r.loadErr
	}
	return r.questions.Clone(), nil
}

func (r *memoryQuestions) Save(_ context.Context, questions models.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = questions.Clone()
	return nil
}

func (r *memoryQuestions) stored() models.Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.questions.Clone()
}

type memoryAnswers struct {
	mu      sync.Mutex
	answers []models.Answer
}

func (r *memoryAnswers) Record(_ context.Context, answer *models.Answer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, *answer)
	return int64(len(r.answers)), nil
}

func (r *memoryAnswers) Summary(_ context.Context, chatID int64) (*models.AnswerSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := &models.AnswerSummary{}
	for _, a := range r.answers {
		if a.ChatID != chatID {
			continue
		}
		summary.Total++
		if a.IsCorrect {
			summary.Correct++
		}
	}
	return summary, nil
}

func (r *memoryAnswers) all() []models.Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Answer(nil), r.answers...)
}

type fakeFiles struct {
	files map[string][]byte
}

func (f *fakeFiles) Fetch(_ context.Context, fileID string) (io.ReadCloser, error) {
	data, ok := f.files[fileID]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func textMessage(chatID int64, text string) *tgmodels.Message {
	return &tgmodels.Message{
		From: &tgmodels.User{ID: chatID},
		Chat: tgmodels.Chat{ID: chatID},
		Text: text,
	}
}

func callback(userID int64, data string) *tgmodels.CallbackQuery {
	return &tgmodels.CallbackQuery{
		ID:   "cb",
		From: tgmodels.User{ID: userID},
		Data: data,
		Message: tgmodels.MaybeInaccessibleMessage{
			Message: &tgmodels.Message{ID: 100, Chat: tgmodels.Chat{ID: userID}},
		},
	}
}

func waitFor(t testing.TB, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func settle() {
	time.Sleep(20 * time.Millisecond)
}
