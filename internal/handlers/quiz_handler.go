package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/ad/go-telegram-quiz/internal/services"
)

// QuizHandler runs one quiz per chat. Each chat gets its own runner and
// session; feedback and celebration messages are removed when the runner's
// timers expire.
type QuizHandler struct {
	msgManager *services.MessageManager
	questions  services.QuestionRepository
	answers    services.AnswerRecorder
	clock      clockwork.Clock
	cfg        services.RunnerConfig
	logger     *zap.Logger

	mu      sync.Mutex
	quizzes map[int64]*chatQuiz
}

type chatQuiz struct {
	chatID  int64
	ctx     context.Context
	runner  *services.QuizRunner
	session *services.QuizSession

	mu            sync.Mutex
	feedbackMsgID int
	confettiMsgID int
}

func NewQuizHandler(
	msgManager *services.MessageManager,
	questions services.QuestionRepository,
	answers services.AnswerRecorder,
	clock clockwork.Clock,
	cfg services.RunnerConfig,
	logger *zap.Logger,
) *QuizHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizHandler{
		msgManager: msgManager,
		questions:  questions,
		answers:    answers,
		clock:      clock,
		cfg:        cfg,
		logger:     logger.Named("quiz_handler"),
		quizzes:    make(map[int64]*chatQuiz),
	}
}

// HandleMessage reports whether the message belonged to the quiz.
func (h *QuizHandler) HandleMessage(ctx context.Context, msg *tgmodels.Message) bool {
	switch msg.Text {
	case "/start", "/quiz":
		h.Start(ctx, msg.Chat.ID)
		return true
	case "/stats":
		h.sendStats(ctx, msg.Chat.ID)
		return true
	case "/stop":
		h.Stop(ctx, msg.Chat.ID)
		return true
	}

	if msg.Text == "" {
		return false
	}

	quiz := h.quiz(msg.Chat.ID)
	if quiz == nil {
		return false
	}
	h.answer(ctx, quiz, msg.Text)
	return true
}

// Start begins a new quiz over the stored collection, replacing any quiz
// already running in the chat.
func (h *QuizHandler) Start(ctx context.Context, chatID int64) {
	h.closeQuiz(chatID)

	questions, err := h.questions.Load(ctx)
	if err != nil && !errors.Is(err, models.ErrCorruptCollection) {
		h.logger.Error("load questions failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.send(ctx, chatID, "⚠️ Questions are not available right now, try again later.")
		return
	}
	if len(questions) == 0 {
		h.send(ctx, chatID, "There are no questions yet.")
		return
	}

	quiz := &chatQuiz{
		chatID:  chatID,
		ctx:     ctx,
		session: services.NewQuizSession(questions),
	}
	quiz.runner = services.NewQuizRunner(h.clock, h.cfg, func(string) {
		h.next(quiz)
	})
	quiz.runner.OnChange(func(ev services.RunnerEvent, view services.RunnerView) {
		h.render(quiz, ev, view)
	})

	h.mu.Lock()
	h.quizzes[chatID] = quiz
	h.mu.Unlock()

	h.logger.Info("quiz started", zap.Int64("chat_id", chatID), zap.Int("questions", len(questions)))
	h.present(quiz)
}

func (h *QuizHandler) Stop(ctx context.Context, chatID int64) {
	if h.closeQuiz(chatID) {
		h.send(ctx, chatID, "Quiz stopped. Send /quiz to start again.")
	}
}

// Close stops every running quiz.
func (h *QuizHandler) Close() {
	h.mu.Lock()
	quizzes := h.quizzes
	h.quizzes = make(map[int64]*chatQuiz)
	h.mu.Unlock()

	for _, quiz := range quizzes {
		quiz.runner.Close()
	}
}

// discard closes the runner and removes messages its timers would have
// removed.
func (h *QuizHandler) discard(quiz *chatQuiz) {
	quiz.runner.Close()

	quiz.mu.Lock()
	ids := []int{quiz.feedbackMsgID, quiz.confettiMsgID}
	quiz.feedbackMsgID, quiz.confettiMsgID = 0, 0
	quiz.mu.Unlock()

	for _, id := range ids {
		if id != 0 {
			_ = h.msgManager.DeleteMessage(quiz.ctx, quiz.chatID, id)
		}
	}
}

func (h *QuizHandler) quiz(chatID int64) *chatQuiz {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.quizzes[chatID]
}

func (h *QuizHandler) closeQuiz(chatID int64) bool {
	h.mu.Lock()
	quiz, ok := h.quizzes[chatID]
	delete(h.quizzes, chatID)
	h.mu.Unlock()

	if ok {
		h.discard(quiz)
	}
	return ok
}

func (h *QuizHandler) answer(ctx context.Context, quiz *chatQuiz, text string) {
	_, err := quiz.runner.SubmitAnswer(text)
	switch {
	case errors.Is(err, services.ErrInputDisabled), errors.Is(err, services.ErrRunnerClosed):
	case errors.Is(err, services.ErrEmptyAnswer):
		h.send(ctx, quiz.chatID, "Please type an answer.")
	case err != nil:
		h.logger.Warn("submit answer failed", zap.Int64("chat_id", quiz.chatID), zap.Error(err))
	}
}

// recordAnswer runs under quiz.mu when feedback is shown.
func (h *QuizHandler) recordAnswer(quiz *chatQuiz, view services.RunnerView) {
	quiz.session.Record(view.Correct)
	if h.answers == nil {
		return
	}
	_, err := h.answers.Record(quiz.ctx, &models.Answer{
		ChatID:     quiz.chatID,
		QuestionID: view.Question.ID,
		TextAnswer: view.Answer,
		IsCorrect:  view.Correct,
	})
	if err != nil {
		h.logger.Warn("record answer failed", zap.Int64("chat_id", quiz.chatID), zap.Error(err))
	}
}

// next runs after the feedback window closes.
func (h *QuizHandler) next(quiz *chatQuiz) {
	quiz.mu.Lock()
	hasNext := quiz.session.Advance()
	correct, answered := quiz.session.Score()
	quiz.mu.Unlock()

	if hasNext {
		h.present(quiz)
		return
	}

	h.mu.Lock()
	if h.quizzes[quiz.chatID] == quiz {
		delete(h.quizzes, quiz.chatID)
	}
	h.mu.Unlock()

	h.send(quiz.ctx, quiz.chatID, services.FormatScore(correct, answered))
	h.logger.Info("quiz finished", zap.Int64("chat_id", quiz.chatID), zap.Int("correct", correct), zap.Int("answered", answered))

	// The runner stays open until the celebration message is gone.
	if !quiz.runner.View().Celebrating {
		quiz.runner.Close()
	}
}

func (h *QuizHandler) present(quiz *chatQuiz) {
	quiz.mu.Lock()
	q, ok := quiz.session.Current()
	current, total := quiz.session.Position(), quiz.session.Total()
	quiz.mu.Unlock()
	if !ok {
		return
	}

	// Input arriving while the question is being sent belongs to it.
	if err := quiz.runner.Present(q, current, total); err != nil {
		if !errors.Is(err, services.ErrRunnerClosed) {
			h.logger.Warn("present question failed", zap.Int64("chat_id", quiz.chatID), zap.Error(err))
		}
		return
	}
	if _, err := h.msgManager.SendQuestion(quiz.ctx, quiz.chatID, q, current, total); err != nil {
		h.logger.Warn("send question failed", zap.Int64("chat_id", quiz.chatID), zap.String("question_id", q.ID), zap.Error(err))
	}
}

func (h *QuizHandler) render(quiz *chatQuiz, ev services.RunnerEvent, view services.RunnerView) {
	quiz.mu.Lock()
	defer quiz.mu.Unlock()

	ctx := quiz.ctx
	switch ev {
	case services.EventFeedbackShown:
		h.recordAnswer(quiz, view)
		text := services.FormatFeedback(view.Correct, view.Question.CorrectAnswer)
		if msg := h.send(ctx, quiz.chatID, text); msg != nil {
			quiz.feedbackMsgID = msg.ID
		}

	case services.EventFeedbackHidden:
		if quiz.feedbackMsgID != 0 {
			_ = h.msgManager.DeleteMessage(ctx, quiz.chatID, quiz.feedbackMsgID)
			quiz.feedbackMsgID = 0
		}

	case services.EventCelebrationStarted:
		msg, err := h.msgManager.SendWithRetryAndEffect(ctx, &bot.SendMessageParams{
			ChatID: quiz.chatID,
			Text:   services.CelebrationText(),
		}, services.ConfettiEffectID)
		if err == nil {
			quiz.confettiMsgID = msg.ID
		}

	case services.EventCelebrationEnded:
		if quiz.confettiMsgID != 0 {
			_ = h.msgManager.DeleteMessage(ctx, quiz.chatID, quiz.confettiMsgID)
			quiz.confettiMsgID = 0
		}
		if quiz.session.Finished() {
			quiz.runner.Close()
		}
	}
}

func (h *QuizHandler) sendStats(ctx context.Context, chatID int64) {
	if h.answers == nil {
		h.send(ctx, chatID, services.FormatStats(nil))
		return
	}
	summary, err := h.answers.Summary(ctx, chatID)
	if err != nil {
		h.logger.Warn("load stats failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.send(ctx, chatID, "⚠️ Statistics are not available right now.")
		return
	}
	h.send(ctx, chatID, services.FormatStats(summary))
}

func (h *QuizHandler) send(ctx context.Context, chatID int64, text string) *tgmodels.Message {
	msg, err := h.msgManager.SendWithRetry(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return nil
	}
	return msg
}
