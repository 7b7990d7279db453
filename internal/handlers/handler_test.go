package handlers

import (
	"context"
	"strings"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"

	"github.com/ad/go-telegram-quiz/internal/services"
)

func TestBotHandlerRecoversPanics(t *testing.T) {
	fb := &fakeBot{}
	errMgr := services.NewErrorManager(fb, adminChat, nil)
	quiz := NewQuizHandler(services.NewMessageManager(fb, errMgr, nil), &memoryQuestions{panicLoad: true}, nil, clockwork.NewFakeClock(), services.DefaultRunnerConfig(), nil)
	handler := NewBotHandler(adminChat, errMgr, nil, quiz, nil)

	handler.Dispatch(context.Background(), &tgmodels.Update{Message: textMessage(playerChat, "/quiz")})

	msgs := fb.messages()
	if len(msgs) != 1 || msgs[0].ChatID != adminChat || !strings.Contains(msgs[0].Text, "storage exploded") {
		t.Fatalf("expected panic report to admin, got %+v", msgs)
	}
}

func TestBotHandlerRoutesAdminFirst(t *testing.T) {
	fb := &fakeBot{}
	msgManager := services.NewMessageManager(fb, nil, nil)
	repo := &memoryQuestions{}
	editor := services.NewAdminEditor(repo, nil, nil, nil)
	admin := NewAdminHandler(fb, adminChat, editor, nil, nil)
	quiz := NewQuizHandler(msgManager, repo, nil, clockwork.NewFakeClock(), services.DefaultRunnerConfig(), nil)
	handler := NewBotHandler(adminChat, nil, admin, quiz, nil)
	defer quiz.Close()

	handler.Dispatch(context.Background(), &tgmodels.Update{CallbackQuery: callback(adminChat, "admin:add:text")})
	handler.Dispatch(context.Background(), &tgmodels.Update{Message: textMessage(adminChat, "2+2?")})
	handler.Dispatch(context.Background(), &tgmodels.Update{Message: textMessage(adminChat, "4")})

	if len(repo.stored()) != 1 {
		t.Fatalf("admin conversation did not create a question")
	}

	handler.Dispatch(context.Background(), &tgmodels.Update{Message: textMessage(playerChat, "/quiz")})
	if got := fb.lastText(); got != "Question 1 of 1\n\n2+2?" {
		t.Errorf("player did not get the new question, got %q", got)
	}

	handler.Dispatch(context.Background(), &tgmodels.Update{CallbackQuery: callback(playerChat, "admin:menu")})
	if n := len(fb.edits()); n != 1 {
		t.Errorf("player callback reached the admin menu, %d edits", n)
	}
}

func TestFormatUser(t *testing.T) {
	got := FormatUser(tgmodels.User{ID: 7, FirstName: "Ann", LastName: "Lee", Username: "ann"})
	if got != "Ann Lee @ann [7]" {
		t.Errorf("unexpected user label %q", got)
	}
}
