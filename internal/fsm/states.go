package fsm

// Admin conversation states. The empty state means no form is being filled.
const (
	StateAdminIdle          = ""
	StateAdminMenu          = "admin_menu"
	StateAdminQuestionText  = "admin_question_text"
	StateAdminQuestionImage = "admin_question_image"
	StateAdminCorrectAnswer = "admin_correct_answer"
)

// Next returns the state that follows a completed form step.
func Next(state string, imageQuestion bool) string {
	switch state {
	case StateAdminQuestionText:
		if imageQuestion {
			return StateAdminQuestionImage
		}
		return StateAdminCorrectAnswer
	case StateAdminQuestionImage:
		return StateAdminCorrectAnswer
	default:
		return StateAdminIdle
	}
}

// IsFormState reports whether the admin is in the middle of filling a question.
func IsFormState(state string) bool {
	switch state {
	case StateAdminQuestionText, StateAdminQuestionImage, StateAdminCorrectAnswer:
		return true
	}
	return false
}
