package services

import "github.com/ad/go-telegram-quiz/internal/models"

// QuizSession walks a fixed snapshot of the collection in order and keeps
// the score. It is the sequencing side of a quiz that QuizRunner leaves to
// its caller.
type QuizSession struct {
	questions models.Collection
	index     int
	answered  int
	correct   int
}

func NewQuizSession(questions models.Collection) *QuizSession {
	return &QuizSession{questions: questions.Clone()}
}

func (s *QuizSession) Current() (models.Question, bool) {
	if s.Finished() {
		return models.Question{}, false
	}
	return s.questions[s.index], true
}

// Position is the 1-based number of the current question.
func (s *QuizSession) Position() int {
	return s.index + 1
}

func (s *QuizSession) Total() int {
	return len(s.questions)
}

func (s *QuizSession) Record(correct bool) {
	s.answered++
	if correct {
		s.correct++
	}
}

// Advance moves to the next question and reports whether one exists.
func (s *QuizSession) Advance() bool {
	if s.index < len(s.questions) {
		s.index++
	}
	return !s.Finished()
}

func (s *QuizSession) Finished() bool {
	return s.index >= len(s.questions)
}

func (s *QuizSession) Score() (correct, answered int) {
	return s.correct, s.answered
}
