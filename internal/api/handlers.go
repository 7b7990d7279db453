package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/ad/go-telegram-quiz/internal/services"
)

type QuestionRequest struct {
	Type          models.QuestionType `json:"type"`
	Question      string              `json:"question"`
	CorrectAnswer string              `json:"correctAnswer"`
	Image         string              `json:"image"`
}

type QuestionResponse struct {
	Question models.Question `json:"question"`
	Warning  string          `json:"warning,omitempty"`
}

type CheckRequest struct {
	Answer string `json:"answer"`
}

type CheckResponse struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
}

func (r QuestionRequest) form() (services.QuestionForm, error) {
	if r.Image != "" {
		if _, _, err := services.DecodeImage(r.Image); err != nil {
			return services.QuestionForm{}, err
		}
	}
	return services.QuestionForm{
		Type:          r.Type,
		Question:      r.Question,
		CorrectAnswer: r.CorrectAnswer,
		Image:         r.Image,
	}, nil
}

func (s *Server) ListQuestions() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.editor.Questions())
	}
}

func (s *Server) CreateQuestion() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.saveQuestion(c, "", http.StatusCreated)
	}
}

func (s *Server) UpdateQuestion() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.saveQuestion(c, c.Param("id"), http.StatusOK)
	}
}

func (s *Server) saveQuestion(c *gin.Context, id string, status int) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Type == "" {
		req.Type = models.QuestionTypeText
		if existing, ok := s.editor.Questions().Find(id); ok {
			req.Type = existing.Type
		}
	}
	form, err := req.form()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := s.editor.Apply(c.Request.Context(), id, form)
	switch {
	case err == nil:
		c.JSON(status, QuestionResponse{Question: q})
	case errors.Is(err, services.ErrPersistFailed):
		c.JSON(status, QuestionResponse{Question: q, Warning: err.Error()})
	case errors.Is(err, models.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("save question failed", zap.String("question_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, services.ErrEmptyQuestion) ||
		errors.Is(err, services.ErrEmptyCorrectAnswer) ||
		errors.Is(err, services.ErrInvalidQuestionType) ||
		errors.Is(err, services.ErrTypeChanged)
}

func (s *Server) DeleteQuestion() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.editor.Delete(c.Request.Context(), c.Param("id"))
		switch {
		case err == nil:
			c.Status(http.StatusNoContent)
		case errors.Is(err, services.ErrPersistFailed):
			c.JSON(http.StatusOK, gin.H{"warning": err.Error()})
		case errors.Is(err, models.ErrQuestionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
		default:
			s.logger.Error("delete question failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
	}
}

func (s *Server) CheckAnswer() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Answer) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrEmptyAnswer.Error()})
			return
		}

		q, ok := s.editor.Questions().Find(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
			return
		}

		c.JSON(http.StatusOK, CheckResponse{
			IsCorrect:     services.MatchAnswer(req.Answer, q.CorrectAnswer),
			CorrectAnswer: q.CorrectAnswer,
		})
	}
}

// UploadImage converts a multipart "file" field into a data URI. It does not
// touch any question; the client sends the URI back with create or update.
func (s *Server) UploadImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if header.Size > maxImageSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return
		}

		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
			return
		}

		uri, err := services.EncodeImage(data)
		if err != nil {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"image": uri})
	}
}

func (s *Server) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.editor.Logout()
		c.Status(http.StatusNoContent)
	}
}
