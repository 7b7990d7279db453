package models

type QuestionType string

const (
	QuestionTypeText  QuestionType = "text"
	QuestionTypeImage QuestionType = "image"
)

func (t QuestionType) Valid() bool {
	return t == QuestionTypeText || t == QuestionTypeImage
}
