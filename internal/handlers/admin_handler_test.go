package handlers

import (
	"context"
	"strings"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"pgregory.net/rapid"

	"github.com/ad/go-telegram-quiz/internal/fsm"
	"github.com/ad/go-telegram-quiz/internal/models"
	"github.com/ad/go-telegram-quiz/internal/services"
)

const adminChat int64 = 42

type adminFixture struct {
	handler *AdminHandler
	bot     *fakeBot
	repo    *memoryQuestions
	editor  *services.AdminEditor
	added   []models.Question
	logouts int
}

func newAdminFixture(t testing.TB, files FileFetcher) *adminFixture {
	f := &adminFixture{bot: &fakeBot{}, repo: &memoryQuestions{}}
	f.editor = services.NewAdminEditor(f.repo, nil,
		func(q models.Question) { f.added = append(f.added, q) },
		func() { f.logouts++ },
	)
	if err := f.editor.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.handler = NewAdminHandler(f.bot, adminChat, f.editor, files, nil)
	return f
}

func (f *adminFixture) say(text string) bool {
	return f.handler.HandleCommand(context.Background(), textMessage(adminChat, text))
}

func (f *adminFixture) press(data string) bool {
	return f.handler.HandleCallback(context.Background(), callback(adminChat, data))
}

func TestProperty_AdminAccessControl(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		adminID := rapid.Int64Range(1, 1000000).Draw(rt, "adminID")
		otherID := rapid.Int64Range(1, 1000000).Filter(func(id int64) bool { return id != adminID }).Draw(rt, "otherID")
		command := rapid.SampledFrom([]string{"/admin", "/cancel", "hello"}).Draw(rt, "command")
		data := rapid.SampledFrom([]string{"admin:menu", "admin:list", "admin:logout", "admin:add:text"}).Draw(rt, "data")

		fb := &fakeBot{}
		editor := services.NewAdminEditor(&memoryQuestions{}, nil, nil, nil)
		handler := NewAdminHandler(fb, adminID, editor, nil, nil)

		if handler.HandleCommand(context.Background(), textMessage(otherID, command)) {
			rt.Fatalf("non-admin command %q was handled", command)
		}
		if handler.HandleCallback(context.Background(), callback(otherID, data)) {
			rt.Fatalf("non-admin callback %q was handled", data)
		}
		if len(fb.messages())+len(fb.edits()) != 0 {
			rt.Fatalf("non-admin triggered output")
		}
	})
}

func TestAdminMenu(t *testing.T) {
	f := newAdminFixture(t, nil)

	if !f.say("/admin") {
		t.Fatal("/admin not handled")
	}
	msgs := f.bot.messages()
	if len(msgs) != 1 || msgs[0].Keyboard == nil || len(msgs[0].Keyboard.InlineKeyboard) != 4 {
		t.Fatalf("expected menu with four rows, got %+v", msgs)
	}
	if f.say("just chatting") {
		t.Errorf("free text outside a form must fall through to the quiz")
	}
}

func TestAdminAddTextQuestion(t *testing.T) {
	f := newAdminFixture(t, nil)

	f.press("admin:add:text")
	if f.handler.State() != fsm.StateAdminQuestionText {
		t.Fatalf("expected question text state, got %q", f.handler.State())
	}

	f.say("   ")
	if f.handler.State() != fsm.StateAdminQuestionText || !strings.Contains(f.bot.lastText(), "cannot be empty") {
		t.Fatalf("blank question must be rejected")
	}

	f.say("2+2?")
	if f.handler.State() != fsm.StateAdminCorrectAnswer {
		t.Fatalf("expected answer state, got %q", f.handler.State())
	}

	f.say("4")
	if f.handler.State() != fsm.StateAdminIdle {
		t.Errorf("expected idle after submit, got %q", f.handler.State())
	}

	stored := f.repo.stored()
	if len(stored) != 1 || stored[0].Question != "2+2?" || stored[0].CorrectAnswer != "4" || stored[0].Type != models.QuestionTypeText {
		t.Fatalf("unexpected stored questions %+v", stored)
	}
	if len(f.added) != 1 || f.added[0].ID != stored[0].ID {
		t.Errorf("expected onAddQuestion once, got %+v", f.added)
	}
	if !strings.HasPrefix(f.bot.lastText(), "✅ Question saved") {
		t.Errorf("unexpected confirmation %q", f.bot.lastText())
	}
}

func TestAdminAddImageQuestion(t *testing.T) {
	files := &fakeFiles{files: map[string][]byte{
		"photo": pngHeader,
		"notes": []byte("plain text file"),
	}}
	f := newAdminFixture(t, files)

	f.press("admin:add:image")
	f.say("What is this?")
	if f.handler.State() != fsm.StateAdminQuestionImage {
		t.Fatalf("expected image state, got %q", f.handler.State())
	}

	doc := textMessage(adminChat, "")
	doc.Document = &tgmodels.Document{FileID: "notes"}
	f.handler.HandleCommand(context.Background(), doc)
	if f.handler.State() != fsm.StateAdminQuestionImage || !strings.Contains(f.bot.lastText(), "not an image") {
		t.Fatalf("non-image file must be ignored, state %q, reply %q", f.handler.State(), f.bot.lastText())
	}
	if f.editor.Form().Image != "" {
		t.Fatalf("non-image file set the image field")
	}

	photo := textMessage(adminChat, "")
	photo.Photo = []tgmodels.PhotoSize{{FileID: "small"}, {FileID: "photo"}}
	f.handler.HandleCommand(context.Background(), photo)
	if f.handler.State() != fsm.StateAdminCorrectAnswer {
		t.Fatalf("expected answer state after photo, got %q", f.handler.State())
	}

	f.say("dot")
	stored := f.repo.stored()
	if len(stored) != 1 || stored[0].Type != models.QuestionTypeImage || !strings.HasPrefix(stored[0].Image, "data:image/png;base64,") {
		t.Fatalf("unexpected stored image question %+v", stored)
	}
}

func TestAdminEditWithSkip(t *testing.T) {
	f := newAdminFixture(t, nil)
	f.press("admin:add:text")
	f.say("2+2?")
	f.say("4")
	id := f.repo.stored()[0].ID

	f.press("admin:edit:" + id)
	if f.editor.EditingID() != id {
		t.Fatalf("editor is not editing %s", id)
	}
	f.say("/skip")
	f.say("four")

	stored := f.repo.stored()
	if len(stored) != 1 || stored[0].ID != id || stored[0].Question != "2+2?" || stored[0].CorrectAnswer != "four" {
		t.Fatalf("unexpected collection after edit %+v", stored)
	}
	if len(f.added) != 1 {
		t.Errorf("edit must not call onAddQuestion")
	}
}

func TestAdminListAndDelete(t *testing.T) {
	f := newAdminFixture(t, nil)
	f.press("admin:list")
	if edits := f.bot.edits(); !strings.Contains(edits[len(edits)-1].Text, "No questions yet") {
		t.Fatalf("expected empty list, got %+v", edits)
	}

	f.press("admin:add:text")
	f.say("Capital of France?")
	f.say("Paris")
	id := f.repo.stored()[0].ID

	f.press("admin:list")
	edits := f.bot.edits()
	list := edits[len(edits)-1]
	if list.Keyboard == nil || list.Keyboard.InlineKeyboard[0][0].CallbackData != "admin:q:"+id {
		t.Fatalf("question missing from list: %+v", list)
	}

	f.press("admin:q:" + id)
	edits = f.bot.edits()
	if !strings.Contains(edits[len(edits)-1].Text, "Answer: Paris") {
		t.Errorf("unexpected details %q", edits[len(edits)-1].Text)
	}

	f.press("admin:delete:" + id)
	if len(f.repo.stored()) != 0 {
		t.Fatalf("question was not deleted")
	}

	f.press("admin:delete:" + id)
	edits = f.bot.edits()
	if !strings.Contains(edits[len(edits)-1].Text, "not found") {
		t.Errorf("deleting twice should report not found")
	}
}

func TestAdminCancelAndLogout(t *testing.T) {
	f := newAdminFixture(t, nil)

	f.press("admin:add:text")
	f.say("draft")
	f.say("/cancel")
	if f.handler.State() != fsm.StateAdminMenu || f.editor.Form().Question != "" {
		t.Fatalf("cancel must clear the form, state %q", f.handler.State())
	}

	f.press("admin:logout")
	if f.logouts != 1 {
		t.Errorf("expected onLogout once, got %d", f.logouts)
	}
	if f.handler.State() != fsm.StateAdminIdle {
		t.Errorf("logout must leave the form")
	}
}
