package fsm

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		state string
		image bool
		want  string
	}{
		{StateAdminQuestionText, false, StateAdminCorrectAnswer},
		{StateAdminQuestionText, true, StateAdminQuestionImage},
		{StateAdminQuestionImage, true, StateAdminCorrectAnswer},
		{StateAdminCorrectAnswer, false, StateAdminIdle},
		{StateAdminMenu, true, StateAdminIdle},
	}

	for _, tt := range tests {
		if got := Next(tt.state, tt.image); got != tt.want {
			t.Errorf("Next(%q, %v) = %q, want %q", tt.state, tt.image, got, tt.want)
		}
	}
}

func TestIsFormState(t *testing.T) {
	if IsFormState(StateAdminIdle) || IsFormState(StateAdminMenu) {
		t.Errorf("idle and menu are not form states")
	}
	if !IsFormState(StateAdminQuestionImage) {
		t.Errorf("image step is a form state")
	}
}
