package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unisphere/exam-gateway/internal/model"
	"github.com/unisphere/exam-gateway/internal/upstream"
)

// ─── Fakes ─────────────────────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type fakeProvider struct {
	exam  *model.Exam
	err   error
	calls int
}

func (f *fakeProvider) FetchExam(_ context.Context, _, _ string) (*model.Exam, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.exam, nil
}

type fakeSink struct {
	mu      sync.Mutex
	calls   int
	errs    []error // consumed per call; nil entry means success
	got     [][]model.Answer
	entered chan struct{} // if set, signalled when a call begins
	release chan struct{} // if set, call blocks until closed
}

func (f *fakeSink) SubmitExam(_ context.Context, _, _ string, answers []model.Answer) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	cp := make([]model.Answer, len(answers))
	copy(cp, answers)
	f.got = append(f.got, cp)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if n-1 < len(f.errs) {
		return f.errs[n-1]
	}
	return nil
}

func (f *fakeSink) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func twoQuestionExam() *model.Exam {
	return &model.Exam{
		ID:              "exam-1",
		Title:           "Midterm",
		DurationMinutes: 1,
		Questions: []model.Question{
			{ID: "Q1", Text: "First?", Options: []model.Option{{ID: "A", Text: "a"}, {ID: "B", Text: "b"}}},
			{ID: "Q2", Text: "Second?", Options: []model.Option{{ID: "C", Text: "c"}, {ID: "D", Text: "d"}}},
		},
	}
}

func newTestController(t *testing.T, clk *fakeClock, prov ContentProvider, sink SubmissionSink) *Controller {
	t.Helper()
	return NewController("exam-1", "student-token", prov, sink, zerolog.Nop(), Options{
		Now:               clk.Now,
		Sleep:             func(time.Duration) {},
		SubmitMaxAttempts: 3,
		SubmitBackoff:     time.Millisecond,
		ManualClock:       true,
	})
}

func transientErr() error {
	return fmt.Errorf("submit exam: %w", upstream.ErrUnavailable)
}

// ─── Load ──────────────────────────────────────────────────────────────────

func TestLoadInstallsSnapshotAndStartsClock(t *testing.T) {
	clk := newFakeClock()
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, &fakeSink{})

	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, StateReady, c.StateNow())
	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, 0, c.AnsweredCount())
	assert.Equal(t, 2, c.RemainingCount())
	assert.Equal(t, time.Minute, c.Remaining())
	assert.Equal(t, "01:00", c.FormattedRemaining())
}

func TestLoadProviderFailureIsFatal(t *testing.T) {
	clk := newFakeClock()
	prov := &fakeProvider{err: fmt.Errorf("fetch exam: %w", upstream.ErrMalformedPayload)}
	c := newTestController(t, clk, prov, &fakeSink{})

	err := c.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream.ErrMalformedPayload)
	assert.Equal(t, StateFailed, c.StateNow())

	// Clock never starts for a failed load.
	assert.False(t, c.Tick(context.Background()))
	assert.Equal(t, time.Duration(0), c.Remaining())
}

func TestLoadRejectsInvalidContent(t *testing.T) {
	cases := []struct {
		name string
		exam *model.Exam
	}{
		{"zero questions", &model.Exam{ID: "e", DurationMinutes: 10, Questions: []model.Question{}}},
		{"non-positive duration", &model.Exam{ID: "e", DurationMinutes: 0, Questions: twoQuestionExam().Questions}},
		{"question without options", &model.Exam{ID: "e", DurationMinutes: 10, Questions: []model.Question{{ID: "Q1", Options: nil}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clk := newFakeClock()
			c := newTestController(t, clk, &fakeProvider{exam: tc.exam}, &fakeSink{})

			err := c.Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidExam)
			assert.Equal(t, StateFailed, c.StateNow())
		})
	}
}

// ─── Answer set ────────────────────────────────────────────────────────────

func TestSelectOptionRecordsAnswer(t *testing.T) {
	clk := newFakeClock()
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, &fakeSink{})
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.SelectOption("Q1", "A"))

	assert.True(t, c.IsAnswered("Q1"))
	assert.False(t, c.IsAnswered("Q2"))
	assert.Equal(t, 1, c.AnsweredCount())
	assert.Equal(t, 1, c.RemainingCount())
}

func TestSelectOptionOverwritesNotAccumulates(t *testing.T) {
	clk := newFakeClock()
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, &fakeSink{})
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.SelectOption("Q1", "A"))
	require.NoError(t, c.SelectOption("Q1", "B"))

	assert.Equal(t, 1, c.AnsweredCount())
	assert.Equal(t, "B", c.Snapshot().Answers["Q1"])
}

func TestSelectOptionValidatesIdentifiers(t *testing.T) {
	clk := newFakeClock()
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, &fakeSink{})
	require.NoError(t, c.Load(context.Background()))

	assert.ErrorIs(t, c.SelectOption("nope", "A"), ErrUnknownQuestion)
	// C belongs to Q2, not Q1.
	assert.ErrorIs(t, c.SelectOption("Q1", "C"), ErrUnknownOption)
	assert.Equal(t, 0, c.AnsweredCount())
}

// ─── Navigation ────────────────────────────────────────────────────────────

func TestNavigationBounds(t *testing.T) {
	clk := newFakeClock()
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, &fakeSink{})
	require.NoError(t, c.Load(context.Background()))

	c.Previous() // at first question: no-op
	assert.Equal(t, 0, c.Cursor())

	c.Next()
	assert.Equal(t, 1, c.Cursor())

	c.Next() // at last question: no-op
	assert.Equal(t, 1, c.Cursor())

	c.MoveTo(0)
	assert.Equal(t, 0, c.Cursor())

	c.MoveTo(5) // out of range: no-op
	assert.Equal(t, 0, c.Cursor())
	c.MoveTo(-1)
	assert.Equal(t, 0, c.Cursor())
}

func TestProgressFraction(t *testing.T) {
	clk := newFakeClock()
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, &fakeSink{})
	require.NoError(t, c.Load(context.Background()))

	assert.InDelta(t, 0.5, c.ProgressFraction(), 1e-9)
	c.Next()
	assert.InDelta(t, 1.0, c.ProgressFraction(), 1e-9)
}

// ─── Clock ─────────────────────────────────────────────────────────────────

func TestTickBeforeDeadlineKeepsTicking(t *testing.T) {
	clk := newFakeClock()
	sink := &fakeSink{}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))

	clk.Advance(30 * time.Second)
	assert.True(t, c.Tick(context.Background()))
	assert.Equal(t, 0, sink.callCount())
	assert.Equal(t, 30*time.Second, c.Remaining())
	assert.Equal(t, "00:30", c.FormattedRemaining())
}

func TestExpiryForcesExactlyOneSubmission(t *testing.T) {
	// 1-minute exam, Q1 answered A at t=0, Q2 unanswered. Crossing t=60s
	// submits [{Q1, A}] exactly once.
	clk := newFakeClock()
	sink := &fakeSink{}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.SelectOption("Q1", "A"))

	clk.Advance(time.Minute)
	assert.False(t, c.Tick(context.Background()), "driver must stop at expiry")

	require.Equal(t, 1, sink.callCount())
	assert.Equal(t, []model.Answer{{QuestionID: "Q1", SelectedOptionID: "A"}}, sink.got[0])
	assert.Equal(t, StateCompleted, c.StateNow())

	// Further ticks are inert.
	assert.False(t, c.Tick(context.Background()))
	assert.Equal(t, 1, sink.callCount())
}

func TestRemainingClampsAtZero(t *testing.T) {
	clk := newFakeClock()
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, &fakeSink{})
	require.NoError(t, c.Load(context.Background()))

	clk.Advance(5 * time.Minute)
	assert.Equal(t, time.Duration(0), c.Remaining())
	assert.Equal(t, "00:00", c.FormattedRemaining())
}

// ─── Submission ────────────────────────────────────────────────────────────

func TestManualSubmitProjectsAnswersInQuestionOrder(t *testing.T) {
	clk := newFakeClock()
	sink := &fakeSink{}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))

	// Answer second question first: payload order follows the exam, not
	// insertion.
	require.NoError(t, c.SelectOption("Q2", "D"))
	require.NoError(t, c.SelectOption("Q1", "B"))

	require.NoError(t, c.Submit(context.Background()))
	require.Equal(t, 1, sink.callCount())
	assert.Equal(t, []model.Answer{
		{QuestionID: "Q1", SelectedOptionID: "B"},
		{QuestionID: "Q2", SelectedOptionID: "D"},
	}, sink.got[0])
	assert.Equal(t, StateCompleted, c.StateNow())
}

func TestSubmitAfterCompletionIsRejected(t *testing.T) {
	clk := newFakeClock()
	sink := &fakeSink{}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Submit(context.Background()))

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyDone)
	assert.Equal(t, 1, sink.callCount())
}

func TestManualSubmitFailureResumesWithSameDeadline(t *testing.T) {
	clk := newFakeClock()
	sink := &fakeSink{errs: []error{transientErr()}}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.SelectOption("Q1", "A"))

	clk.Advance(40 * time.Second)
	err := c.Submit(context.Background())
	require.Error(t, err)

	// Answers retained, state back to READY, no extra time granted.
	assert.Equal(t, StateReady, c.StateNow())
	assert.True(t, c.IsAnswered("Q1"))
	assert.Equal(t, 20*time.Second, c.Remaining())

	// Retry succeeds against the same answer set.
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, 2, sink.callCount())
	assert.Equal(t, sink.got[0], sink.got[1])
}

func TestForcedSubmitRetriesTransientFailures(t *testing.T) {
	clk := newFakeClock()
	var slept []time.Duration
	sink := &fakeSink{errs: []error{transientErr(), transientErr(), nil}}
	c := NewController("exam-1", "tok", &fakeProvider{exam: twoQuestionExam()}, sink, zerolog.Nop(), Options{
		Now:               clk.Now,
		Sleep:             func(d time.Duration) { slept = append(slept, d) },
		SubmitMaxAttempts: 3,
		SubmitBackoff:     2 * time.Second,
		ManualClock:       true,
	})
	require.NoError(t, c.Load(context.Background()))

	clk.Advance(time.Minute)
	assert.False(t, c.Tick(context.Background()))

	assert.Equal(t, 3, sink.callCount())
	assert.Equal(t, StateCompleted, c.StateNow())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, slept)
}

func TestForcedSubmitExhaustedBudgetIsTerminal(t *testing.T) {
	clk := newFakeClock()
	sink := &fakeSink{errs: []error{transientErr(), transientErr(), transientErr()}}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))

	clk.Advance(time.Minute)
	assert.False(t, c.Tick(context.Background()))

	assert.Equal(t, 3, sink.callCount())
	assert.Equal(t, StateSubmitFailed, c.StateNow())
	assert.NotEmpty(t, c.Snapshot().Error)

	// The failure is terminal: no further ticks, no further submissions.
	assert.False(t, c.Tick(context.Background()))
	assert.ErrorIs(t, c.Submit(context.Background()), ErrAlreadyDone)
	assert.Equal(t, 3, sink.callCount())
}

func TestForcedSubmitDoesNotRetryRejection(t *testing.T) {
	clk := newFakeClock()
	rejected := fmt.Errorf("submit exam: %w", upstream.ErrRejected)
	sink := &fakeSink{errs: []error{rejected, rejected, rejected}}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))

	clk.Advance(time.Minute)
	assert.False(t, c.Tick(context.Background()))

	assert.Equal(t, 1, sink.callCount(), "a rejection is final, not retryable")
	assert.Equal(t, StateSubmitFailed, c.StateNow())
}

func TestConcurrentManualAndForcedSubmitIssueOneCall(t *testing.T) {
	clk := newFakeClock()
	sink := &fakeSink{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.SelectOption("Q1", "A"))

	clk.Advance(time.Minute)

	// Manual submit enters the sink and blocks there, holding SUBMITTING.
	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-sink.entered

	// The expiry tick fires while the manual call is in flight: no second
	// sink call, and the driver stays alive in case the manual call fails.
	assert.True(t, c.Tick(context.Background()))
	assert.Equal(t, 1, sink.callCount())

	close(sink.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, sink.callCount())
	assert.Equal(t, StateCompleted, c.StateNow())
	assert.False(t, c.Tick(context.Background()))
}

func TestFailedManualSubmitPastDeadlineStillForcesSubmission(t *testing.T) {
	clk := newFakeClock()
	sink := &fakeSink{
		errs:    []error{transientErr(), nil},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.SelectOption("Q1", "A"))

	// Manual submit enters the sink and blocks; the deadline passes while
	// it is in flight.
	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-sink.entered
	clk.Advance(2 * time.Minute)

	assert.True(t, c.Tick(context.Background()), "driver must outlive an in-flight manual submit")

	// The manual call fails transiently and the attempt returns to READY.
	close(sink.release)
	require.Error(t, <-done)
	require.Equal(t, StateReady, c.StateNow())

	// The next tick past the deadline forces the submission.
	assert.False(t, c.Tick(context.Background()))
	assert.Equal(t, 2, sink.callCount())
	assert.Equal(t, StateCompleted, c.StateNow())
	assert.Equal(t, []model.Answer{{QuestionID: "Q1", SelectedOptionID: "A"}}, sink.got[1])
}

func TestInputRejectedOutsideReady(t *testing.T) {
	clk := newFakeClock()
	sink := &fakeSink{}
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, sink)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Submit(context.Background()))

	assert.ErrorIs(t, c.SelectOption("Q1", "A"), ErrNotReady)
	c.Next() // silently ignored
	assert.Equal(t, 0, c.Cursor())
}

// ─── Snapshot ──────────────────────────────────────────────────────────────

func TestSnapshotReflectsState(t *testing.T) {
	clk := newFakeClock()
	c := newTestController(t, clk, &fakeProvider{exam: twoQuestionExam()}, &fakeSink{})
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.SelectOption("Q1", "A"))
	c.Next()
	clk.Advance(15 * time.Second)

	snap := c.Snapshot()
	assert.Equal(t, c.ID(), snap.AttemptID)
	assert.Equal(t, "exam-1", snap.ExamID)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 1, snap.Cursor)
	assert.Equal(t, 2, snap.QuestionCount)
	assert.Equal(t, 1, snap.AnsweredCount)
	assert.Equal(t, 1, snap.RemainingCount)
	assert.Equal(t, 45, snap.RemainingSeconds)
	assert.Equal(t, "00:45", snap.FormattedRemaining)
	assert.Equal(t, map[string]string{"Q1": "A"}, snap.Answers)
	assert.Empty(t, snap.Error)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", formatClock(-3*time.Second))
	assert.Equal(t, "00:59", formatClock(59*time.Second))
	// Fractional seconds truncate; the display never shows more time than
	// is actually left.
	assert.Equal(t, "00:59", formatClock(59*time.Second+500*time.Millisecond))
	assert.Equal(t, "01:00", formatClock(time.Minute))
	assert.Equal(t, "90:00", formatClock(90*time.Minute))
}

// Guard against accidental interface drift between the upstream client and
// the controller's collaborator contracts.
var (
	_ ContentProvider = (*upstream.Client)(nil)
	_ SubmissionSink  = (*upstream.Client)(nil)
)
