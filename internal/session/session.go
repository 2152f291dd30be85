package session

import (
	"context"
	"errors"

	"github.com/unisphere/exam-gateway/internal/model"
)

// State is the lifecycle phase of one exam attempt.
type State string

const (
	// StateLoading — exam content requested but not yet installed. No clock,
	// no answers.
	StateLoading State = "LOADING"
	// StateReady — clock running, cursor valid, answers mutable.
	StateReady State = "READY"
	// StateSubmitting — submission in flight. This state is the mutual
	// exclusion that keeps a second submission from ever being issued.
	StateSubmitting State = "SUBMITTING"
	// StateCompleted — submission acknowledged. Terminal.
	StateCompleted State = "COMPLETED"
	// StateFailed — content fetch failed or the payload was invalid. Terminal.
	StateFailed State = "FAILED"
	// StateSubmitFailed — the forced submission retry budget was exhausted
	// (or the upstream rejected the submission outright). Terminal.
	StateSubmitFailed State = "SUBMIT_FAILED"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateSubmitFailed
}

// ContentProvider fetches the immutable exam snapshot an attempt runs against.
type ContentProvider interface {
	FetchExam(ctx context.Context, token, examID string) (*model.Exam, error)
}

// SubmissionSink durably records a completed answer set. Idempotency and
// scoring are its responsibility, not the controller's.
type SubmissionSink interface {
	SubmitExam(ctx context.Context, token, examID string, answers []model.Answer) error
}

// Errors surfaced by controller operations.
var (
	ErrNotReady        = errors.New("session: attempt is not accepting input")
	ErrSubmitInFlight  = errors.New("session: submission already in flight")
	ErrAlreadyDone     = errors.New("session: attempt already finished")
	ErrUnknownQuestion = errors.New("session: question does not exist in this exam")
	ErrUnknownOption   = errors.New("session: option does not belong to this question")
	ErrInvalidExam     = errors.New("session: invalid exam content")
)
