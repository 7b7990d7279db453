package services

import (
	"fmt"
	"strings"

	"github.com/ad/go-telegram-quiz/internal/models"
)

const (
	feedbackCorrect = "✅ Correct!"
	celebrationText = "🎉"
	previewLength   = 40
)

func FormatQuestion(q models.Question, current, total int) string {
	return fmt.Sprintf("Question %d of %d\n\n%s", current, total, q.Question)
}

// FormatFeedback is the text shown while the feedback window is open.
func FormatFeedback(correct bool, correctAnswer string) string {
	if correct {
		return feedbackCorrect
	}
	return "❌ Incorrect. The correct answer is: " + correctAnswer
}

func CelebrationText() string {
	return celebrationText
}

func FormatScore(correct, answered int) string {
	if answered == 0 {
		return "Quiz finished. No answers were given."
	}
	return fmt.Sprintf("🏁 Quiz finished! You answered %d of %d correctly.", correct, answered)
}

func FormatStats(summary *models.AnswerSummary) string {
	if summary == nil || summary.Total == 0 {
		return "No answers recorded yet. Send /quiz to start."
	}
	percent := summary.Correct * 100 / summary.Total
	return fmt.Sprintf("📊 Answers: %d\nCorrect: %d (%d%%)", summary.Total, summary.Correct, percent)
}

// FormatQuestionPreview is a one-line label for admin lists and buttons.
func FormatQuestionPreview(q models.Question) string {
	icon := "📝"
	if q.Type == models.QuestionTypeImage {
		icon = "🖼"
	}
	text := strings.Join(strings.Fields(q.Question), " ")
	if r := []rune(text); len(r) > previewLength {
		text = string(r[:previewLength-1]) + "…"
	}
	return icon + " " + text
}

func FormatQuestionDetails(q models.Question) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Type: %s\n", q.Type)
	fmt.Fprintf(&sb, "Question: %s\n", q.Question)
	fmt.Fprintf(&sb, "Answer: %s", q.CorrectAnswer)
	if q.HasImage() {
		sb.WriteString("\nImage: attached")
	}
	return sb.String()
}
