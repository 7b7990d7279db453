package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/models"
)

var (
	ErrPersistFailed = errors.New("questions were changed but could not be saved")
	ErrUploadStale   = errors.New("image upload finished after the form was reset")
)

// AdminEditor authors the question collection. It holds a snapshot of the
// stored collection plus one create/update form.
type AdminEditor struct {
	mu            sync.Mutex
	repo          QuestionRepository
	logger        *zap.Logger
	onAddQuestion func(models.Question)
	onLogout      func()
	newID         func() string

	questions models.Collection
	form      QuestionForm
	editingID string
	formGen   uint64
}

func NewAdminEditor(repo QuestionRepository, logger *zap.Logger, onAddQuestion func(models.Question), onLogout func()) *AdminEditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminEditor{
		repo:          repo,
		logger:        logger.Named("admin_editor"),
		onAddQuestion: onAddQuestion,
		onLogout:      onLogout,
		newID:         uuid.NewString,
		questions:     models.Collection{},
		form:          emptyForm(),
	}
}

// Load replaces the in-memory snapshot with the stored collection. A corrupt
// slot is treated as empty.
func (e *AdminEditor) Load(ctx context.Context) error {
	questions, err := e.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrCorruptCollection) {
			return fmt.Errorf("load questions: %w", err)
		}
		e.logger.Warn("stored questions are unreadable, starting with an empty collection", zap.Error(err))
		questions = models.Collection{}
	}

	e.mu.Lock()
	e.questions = questions.Clone()
	e.mu.Unlock()

	e.logger.Debug("questions loaded", zap.Int("count", len(questions)))
	return nil
}

func (e *AdminEditor) Questions() models.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questions.Clone()
}

func (e *AdminEditor) Form() QuestionForm {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

func (e *AdminEditor) EditingID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editingID
}

func (e *AdminEditor) SetType(t models.QuestionType) error {
	if !t.Valid() {
		return ErrInvalidQuestionType
	}
	e.mu.Lock()
	e.form.Type = t
	e.mu.Unlock()
	return nil
}

func (e *AdminEditor) SetQuestion(text string) {
	e.mu.Lock()
	e.form.Question = text
	e.mu.Unlock()
}

func (e *AdminEditor) SetCorrectAnswer(text string) {
	e.mu.Lock()
	e.form.CorrectAnswer = text
	e.mu.Unlock()
}

// SetImage stores an already encoded data URI in the form.
func (e *AdminEditor) SetImage(dataURI string) error {
	if dataURI != "" {
		if _, _, err := DecodeImage(dataURI); err != nil {
			return err
		}
	}
	e.mu.Lock()
	e.form.Image = dataURI
	e.mu.Unlock()
	return nil
}

// UploadImage reads and encodes the file in the background. Only the form's
// image field is touched when it completes; payloads that are not images are
// ignored.
func (e *AdminEditor) UploadImage(src io.Reader) *ImageUpload {
	e.mu.Lock()
	gen := e.formGen
	e.mu.Unlock()

	upload := &ImageUpload{done: make(chan struct{})}
	go func() {
		defer close(upload.done)

		data, err := io.ReadAll(src)
		if err != nil {
			upload.err = fmt.Errorf("read image: %w", err)
			e.logger.Warn("image upload failed", zap.Error(err))
			return
		}

		uri, err := EncodeImage(data)
		if err != nil {
			upload.err = err
			e.logger.Info("ignoring non-image upload", zap.Error(err))
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.formGen != gen {
			upload.err = ErrUploadStale
			return
		}
		e.form.Image = uri
		upload.image = uri
	}()
	return upload
}

// Submit validates the form and creates or updates a question. When the
// change cannot be persisted the in-memory collection keeps it and the
// returned error wraps ErrPersistFailed alongside the saved question.
func (e *AdminEditor) Submit(ctx context.Context) (models.Question, error) {
	e.mu.Lock()
	q, created, saveErr, err := e.applyLocked(ctx, e.editingID, e.form)
	if err == nil {
		e.resetLocked()
	}
	e.mu.Unlock()

	return e.finish(q, created, saveErr, err)
}

// Apply creates (empty id) or updates a question from a form without
// touching the interactive form state.
func (e *AdminEditor) Apply(ctx context.Context, id string, form QuestionForm) (models.Question, error) {
	e.mu.Lock()
	q, created, saveErr, err := e.applyLocked(ctx, id, form)
	e.mu.Unlock()

	return e.finish(q, created, saveErr, err)
}

func (e *AdminEditor) applyLocked(ctx context.Context, id string, form QuestionForm) (q models.Question, created bool, saveErr, err error) {
	if err = form.Validate(); err != nil {
		return models.Question{}, false, nil, err
	}

	q = models.Question{
		ID:            id,
		Type:          form.Type,
		Question:      form.Question,
		CorrectAnswer: form.CorrectAnswer,
		Image:         form.Image,
	}
	if q.Type == models.QuestionTypeText {
		q.Image = ""
	}

	created = q.ID == ""
	var next models.Collection
	if created {
		q.ID = e.freshIDLocked()
		next = e.questions.Append(q)
	} else {
		if existing, ok := e.questions.Find(q.ID); ok && existing.Type != q.Type {
			return models.Question{}, false, nil, fmt.Errorf("update question %s: %w", q.ID, ErrTypeChanged)
		}
		next, err = e.questions.Replace(q)
		if err != nil {
			return models.Question{}, false, nil, fmt.Errorf("update question %s: %w", q.ID, err)
		}
	}

	e.questions = next
	return q, created, e.repo.Save(ctx, next.Clone()), nil
}

func (e *AdminEditor) finish(q models.Question, created bool, saveErr, err error) (models.Question, error) {
	if err != nil {
		return models.Question{}, err
	}

	if created && e.onAddQuestion != nil {
		e.onAddQuestion(q)
	}

	if saveErr != nil {
		e.logger.Warn("failed to save questions", zap.String("question_id", q.ID), zap.Error(saveErr))
		return q, fmt.Errorf("%w: %v", ErrPersistFailed, saveErr)
	}

	e.logger.Info("question saved", zap.String("question_id", q.ID), zap.Bool("created", created))
	return q, nil
}

// Edit copies an existing question into the form. The question stays in
// the list until the next Submit replaces it.
func (e *AdminEditor) Edit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.questions.Find(id)
	if !ok {
		return models.ErrQuestionNotFound
	}

	e.formGen++
	e.editingID = q.ID
	e.form = QuestionForm{
		Type:          q.Type,
		Question:      q.Question,
		CorrectAnswer: q.CorrectAnswer,
		Image:         q.Image,
	}
	return nil
}

// Delete removes a question and saves immediately.
func (e *AdminEditor) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.questions.Without(id)
	if err != nil {
		return err
	}

	e.questions = next
	if e.editingID == id {
		e.resetLocked()
	}

	if err := e.repo.Save(ctx, next.Clone()); err != nil {
		e.logger.Warn("failed to save questions after delete", zap.String("question_id", id), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	e.logger.Info("question deleted", zap.String("question_id", id))
	return nil
}

func (e *AdminEditor) Reset() {
	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()
}

func (e *AdminEditor) Logout() {
	if e.onLogout != nil {
		e.onLogout()
	}
}

func (e *AdminEditor) resetLocked() {
	e.formGen++
	e.form = emptyForm()
	e.editingID = ""
}

func (e *AdminEditor) freshIDLocked() string {
	for {
		id := e.newID()
		if e.questions.IndexOf(id) < 0 {
			return id
		}
	}
}

// ImageUpload tracks one background image decode.
type ImageUpload struct {
	done  chan struct{}
	image string
	err   error
}

func (u *ImageUpload) Done() <-chan struct{} {
	return u.done
}

// Wait blocks until the upload finishes and returns the data URI placed in
// the form.
func (u *ImageUpload) Wait(ctx context.Context) (string, error) {
	select {
	case <-u.done:
		return u.image, u.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
