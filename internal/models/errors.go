package models

import "errors"

var (
	ErrQuestionNotFound  = errors.New("question not found")
	ErrCorruptCollection = errors.New("stored question collection is corrupt")
)
