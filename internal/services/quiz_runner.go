package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ad/go-telegram-quiz/internal/models"
)

const (
	DefaultFeedbackDelay = 1500 * time.Millisecond
	DefaultConfettiDelay = 3000 * time.Millisecond
)

var (
	ErrNoQuestion    = errors.New("no question presented")
	ErrInputDisabled = errors.New("answer input is disabled while feedback is shown")
	ErrEmptyAnswer   = errors.New("answer is empty")
	ErrRunnerClosed  = errors.New("quiz runner is closed")
)

type RunnerPhase int

const (
	PhaseIdle RunnerPhase = iota
	PhaseAnswering
	PhaseShowingFeedback
	PhaseAnswered
)

func (p RunnerPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAnswering:
		return "answering"
	case PhaseShowingFeedback:
		return "showing_feedback"
	case PhaseAnswered:
		return "answered"
	default:
		return "unknown"
	}
}

// AcceptsInput is true only while a presented question waits for its
// answer. Answered stays closed until the next Present.
func (p RunnerPhase) AcceptsInput() bool {
	return p == PhaseAnswering
}

type RunnerEvent int

const (
	EventPresented RunnerEvent = iota
	EventFeedbackShown
	EventFeedbackHidden
	EventCelebrationStarted
	EventCelebrationEnded
)

// RunnerView is a consistent snapshot of the runner for renderers.
type RunnerView struct {
	Phase       RunnerPhase
	Question    models.Question
	Current     int
	Total       int
	Answer      string
	Correct     bool
	Celebrating bool
}

func (v RunnerView) InputEnabled() bool {
	return v.Phase.AcceptsInput()
}

type RunnerConfig struct {
	FeedbackDelay time.Duration
	ConfettiDelay time.Duration
}

func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		FeedbackDelay: DefaultFeedbackDelay,
		ConfettiDelay: DefaultConfettiDelay,
	}
}

// QuizRunner presents one question at a time and reports the typed answer
// through onAnswer once the feedback delay has passed. Both timers belong
// to the runner and are released by Close.
type QuizRunner struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	cfg      RunnerConfig
	onAnswer func(string)
	onChange func(RunnerEvent, RunnerView)

	phase       RunnerPhase
	question    models.Question
	current     int
	total       int
	answer      string
	submitted   string
	correct     bool
	celebrating bool
	closed      bool

	feedbackTimer clockwork.Timer
	feedbackGen   uint64
	confettiTimer clockwork.Timer
	confettiGen   uint64
}

func NewQuizRunner(clock clockwork.Clock, cfg RunnerConfig, onAnswer func(string)) *QuizRunner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.FeedbackDelay <= 0 {
		cfg.FeedbackDelay = DefaultFeedbackDelay
	}
	if cfg.ConfettiDelay <= 0 {
		cfg.ConfettiDelay = DefaultConfettiDelay
	}
	return &QuizRunner{
		clock:    clock,
		cfg:      cfg,
		onAnswer: onAnswer,
		phase:    PhaseIdle,
	}
}

// OnChange registers a listener called after every transition, outside the
// runner's lock.
func (r *QuizRunner) OnChange(fn func(RunnerEvent, RunnerView)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Present installs the next question. A pending feedback timer for the
// previous question is dropped; a running celebration keeps going.
func (r *QuizRunner) Present(q models.Question, current, total int) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRunnerClosed
	}

	r.stopFeedbackLocked()
	r.phase = PhaseAnswering
	r.question = q
	r.current = current
	r.total = total
	r.answer = ""
	r.submitted = ""
	r.correct = false

	view := r.viewLocked()
	listener := r.onChange
	r.mu.Unlock()

	notify(listener, EventPresented, view)
	return nil
}

// SetAnswer updates the draft answer. Ignored while input is disabled.
func (r *QuizRunner) SetAnswer(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.phase.AcceptsInput() {
		return false
	}
	r.answer = text
	return true
}

// Submit checks the draft answer against the current question.
func (r *QuizRunner) Submit() (bool, error) {
	r.mu.Lock()
	switch {
	case r.closed:
		r.mu.Unlock()
		return false, ErrRunnerClosed
	case r.phase == PhaseIdle:
		r.mu.Unlock()
		return false, ErrNoQuestion
	case !r.phase.AcceptsInput():
		r.mu.Unlock()
		return false, ErrInputDisabled
	case strings.TrimSpace(r.answer) == "":
		r.mu.Unlock()
		return false, ErrEmptyAnswer
	}

	correct := MatchAnswer(r.answer, r.question.CorrectAnswer)
	r.phase = PhaseShowingFeedback
	r.correct = correct
	r.submitted = r.answer

	r.feedbackGen++
	gen := r.feedbackGen
	r.feedbackTimer = r.clock.AfterFunc(r.cfg.FeedbackDelay, func() {
		r.finishFeedback(gen)
	})

	startedCelebration := false
	if correct && !r.celebrating {
		r.celebrating = true
		startedCelebration = true
		r.confettiGen++
		cgen := r.confettiGen
		r.confettiTimer = r.clock.AfterFunc(r.cfg.ConfettiDelay, func() {
			r.finishCelebration(cgen)
		})
	}

	view := r.viewLocked()
	listener := r.onChange
	r.mu.Unlock()

	notify(listener, EventFeedbackShown, view)
	if startedCelebration {
		notify(listener, EventCelebrationStarted, view)
	}
	return correct, nil
}

// SubmitAnswer is SetAnswer followed by Submit.
func (r *QuizRunner) SubmitAnswer(text string) (bool, error) {
	r.mu.Lock()
	if !r.closed && r.phase.AcceptsInput() {
		r.answer = text
	}
	r.mu.Unlock()
	return r.Submit()
}

func (r *QuizRunner) View() RunnerView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// Close cancels both timers. Nothing fires or changes after Close returns.
func (r *QuizRunner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.stopFeedbackLocked()
	r.stopConfettiLocked()
	r.celebrating = false
}

func (r *QuizRunner) finishFeedback(gen uint64) {
	r.mu.Lock()
	if r.closed || gen != r.feedbackGen || r.phase != PhaseShowingFeedback {
		r.mu.Unlock()
		return
	}

	raw := r.submitted
	r.phase = PhaseAnswered
	r.answer = ""
	r.feedbackTimer = nil

	view := r.viewLocked()
	listener := r.onChange
	onAnswer := r.onAnswer
	r.mu.Unlock()

	notify(listener, EventFeedbackHidden, view)
	if onAnswer != nil {
		onAnswer(raw)
	}
}

func (r *QuizRunner) finishCelebration(gen uint64) {
	r.mu.Lock()
	if r.closed || gen != r.confettiGen || !r.celebrating {
		r.mu.Unlock()
		return
	}

	r.celebrating = false
	r.confettiTimer = nil

	view := r.viewLocked()
	listener := r.onChange
	r.mu.Unlock()

	notify(listener, EventCelebrationEnded, view)
}

func (r *QuizRunner) stopFeedbackLocked() {
	r.feedbackGen++
	if r.feedbackTimer != nil {
		r.feedbackTimer.Stop()
		r.feedbackTimer = nil
	}
}

func (r *QuizRunner) stopConfettiLocked() {
	r.confettiGen++
	if r.confettiTimer != nil {
		r.confettiTimer.Stop()
		r.confettiTimer = nil
	}
}

func (r *QuizRunner) viewLocked() RunnerView {
	v := RunnerView{
		Phase:       r.phase,
		Question:    r.question,
		Current:     r.current,
		Total:       r.total,
		Answer:      r.answer,
		Celebrating: r.celebrating,
	}
	if r.phase == PhaseShowingFeedback || r.phase == PhaseAnswered {
		v.Correct = r.correct
	}
	return v
}

func notify(fn func(RunnerEvent, RunnerView), ev RunnerEvent, view RunnerView) {
	if fn != nil {
		fn(ev, view)
	}
}
