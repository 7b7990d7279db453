package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ad/go-telegram-quiz/internal/models"
)

var (
	ErrEmptyQuestion       = errors.New("question text is required")
	ErrEmptyCorrectAnswer  = errors.New("correct answer is required")
	ErrInvalidQuestionType = errors.New("question type must be text or image")
	ErrTypeChanged         = errors.New("question type is fixed at creation")
)

// QuestionForm holds the editor's input fields.
type QuestionForm struct {
	Type          models.QuestionType `validate:"questiontype"`
	Question      string              `validate:"notblank"`
	CorrectAnswer string              `validate:"notblank"`
	Image         string
}

func emptyForm() QuestionForm {
	return QuestionForm{Type: models.QuestionTypeText}
}

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("questiontype", func(fl validator.FieldLevel) bool {
		return models.QuestionType(fl.Field().String()).Valid()
	})
	return v
}

var formValidator = newFormValidator()

func (f QuestionForm) Validate() error {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Type":
			errs = append(errs, ErrInvalidQuestionType)
		case "Question":
			errs = append(errs, ErrEmptyQuestion)
		case "CorrectAnswer":
			errs = append(errs, ErrEmptyCorrectAnswer)
		}
	}
	return errors.Join(errs...)
}
