package delivery

import (
	"context"
	"errors"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/result"
	"time"
)

// State of a delivery session. Transitions only move forward.
type State int

const (
	NotStarted State = iota
	InstructionsShown
	InProgress
	Submitted
	ResultsViewable
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InstructionsShown:
		return "instructions_shown"
	case InProgress:
		return "in_progress"
	case Submitted:
		return "submitted"
	case ResultsViewable:
		return "results_viewable"
	}
	return "unknown"
}

// Trigger records why a submission was sent.
type Trigger string

const (
	TriggerManual  Trigger = "manual"
	TriggerTimeout Trigger = "timeout"
)

var (
	ErrInvalidState      = errors.New("action not allowed in the current session state")
	ErrSubmitInProgress  = errors.New("submission already in progress")
	ErrAlreadySubmitted  = errors.New("exam already submitted")
	ErrUnknownQuestion   = errors.New("question is not part of this exam")
	ErrWrongQuestionKind = errors.New("answer does not match the question type")
	ErrOutOfRange        = errors.New("index out of range")
	ErrNoResultFetcher   = errors.New("results are not available")
)

// SubmitRequest is the payload posted to the submission endpoint.
type SubmitRequest struct {
	ExamID      string        `json:"examId"`
	StudentID   string        `json:"studentId"`
	Answers     model.Answers `json:"answers"`
	TimeSpent   int           `json:"timeSpent"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty"`
}

// Draft is the periodically flushed session state.
type Draft struct {
	Answers          model.Answers `json:"answers"`
	Flagged          []string      `json:"flagged"`
	CurrentIndex     int           `json:"currentIndex"`
	RemainingSeconds int           `json:"remainingSeconds"`
}

type ExamLoader interface {
	LoadPaper(ctx context.Context, examID string) (*model.Paper, error)
}

// AttemptStarter tells the server the attempt began and returns the server's start time.
type AttemptStarter interface {
	StartAttempt(ctx context.Context, examID, studentID string) (time.Time, error)
}

type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*model.ExamSubmission, error)
}

type DraftStore interface {
	SaveDraft(ctx context.Context, examID, studentID string, d Draft) error
	// LoadDraft returns nil, nil when there is no draft.
	LoadDraft(ctx context.Context, examID, studentID string) (*Draft, error)
}

type ResultFetcher interface {
	FetchResult(ctx context.Context, submissionID string) (*result.Result, error)
}

// EventKind classifies an entry of the answer log.
type EventKind string

const (
	EventOption EventKind = "option"
	EventPart   EventKind = "part"
	EventClear  EventKind = "clear"
)

// AnswerEvent is one entry of the append-only answer log.
type AnswerEvent struct {
	At         time.Time `json:"at"`
	QuestionID string    `json:"questionId"`
	Kind       EventKind `json:"kind"`
	Option     int       `json:"option,omitempty"`
	Label      string    `json:"label,omitempty"`
	Text       string    `json:"text,omitempty"`
}

// Summary feeds the confirmation prompt shown before a manual submit.
type Summary struct {
	Total      int `json:"total"`
	Answered   int `json:"answered"`
	Unanswered int `json:"unanswered"`
	Flagged    int `json:"flagged"`
}
