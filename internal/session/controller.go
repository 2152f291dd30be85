package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-gateway/internal/model"
	"github.com/unisphere/exam-gateway/internal/upstream"
)

// Options tunes a controller. Zero values fall back to production defaults;
// tests inject a fake clock and disable the background driver.
type Options struct {
	Now               func() time.Time
	Sleep             func(time.Duration)
	TickInterval      time.Duration
	SubmitMaxAttempts int
	SubmitBackoff     time.Duration

	// ManualClock skips starting the background tick driver. The caller
	// drives the clock through Tick directly.
	ManualClock bool
}

func (o *Options) applyDefaults() {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.SubmitMaxAttempts <= 0 {
		o.SubmitMaxAttempts = 3
	}
	if o.SubmitBackoff <= 0 {
		o.SubmitBackoff = 2 * time.Second
	}
}

// Controller owns the lifecycle of one exam attempt: the fetched snapshot,
// the evolving answer set and cursor, the wall-clock deadline, and the
// exactly-once submission protocol. All exported methods are safe for
// concurrent use; network calls never run under the lock.
type Controller struct {
	id     string
	examID string
	token  string // student bearer, forwarded on submission

	provider ContentProvider
	sink     SubmissionSink
	log      zerolog.Logger
	opts     Options

	mu         sync.Mutex
	state      State
	exam       *model.Exam
	answers    map[string]string
	cursor     int
	startedAt  time.Time
	deadline   time.Time
	finishedAt time.Time
	lastErr    error

	clockCancel context.CancelFunc
}

// NewController creates a controller in the LOADING state. Call Load to
// install content and start the clock.
func NewController(examID, token string, provider ContentProvider, sink SubmissionSink, log zerolog.Logger, opts Options) *Controller {
	opts.applyDefaults()
	id := uuid.New().String()
	return &Controller{
		id:       id,
		examID:   examID,
		token:    token,
		provider: provider,
		sink:     sink,
		log:      log.With().Str("component", "session").Str("attempt_id", id).Str("exam_id", examID).Logger(),
		opts:     opts,
		state:    StateLoading,
		answers:  make(map[string]string),
	}
}

// ID returns the attempt identifier.
func (c *Controller) ID() string { return c.id }

// ExamID returns the exam this attempt runs against.
func (c *Controller) ExamID() string { return c.examID }

// Exam returns the installed snapshot, nil until Load succeeds.
func (c *Controller) Exam() *model.Exam {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exam
}

// Load fetches the exam snapshot, validates it, fixes the deadline at
// now + duration and transitions to READY. A provider failure or an invalid
// payload is fatal: the attempt lands in FAILED and cannot be retried.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateLoading {
		c.mu.Unlock()
		return fmt.Errorf("%w: load from %s", ErrAlreadyDone, c.state)
	}
	c.mu.Unlock()

	exam, err := c.provider.FetchExam(ctx, c.token, c.examID)
	if err == nil {
		err = validateExam(exam)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateFailed
		c.lastErr = err
		c.finishedAt = c.opts.Now()
		c.log.Error().Err(err).Msg("Exam load failed")
		return err
	}

	now := c.opts.Now()
	c.exam = exam
	c.startedAt = now
	c.deadline = now.Add(time.Duration(exam.DurationMinutes) * time.Minute)
	c.cursor = 0
	c.state = StateReady

	if !c.opts.ManualClock {
		c.startClockLocked()
	}

	c.log.Info().
		Int("questions", len(exam.Questions)).
		Time("deadline", c.deadline).
		Msg("Attempt started")
	return nil
}

func validateExam(exam *model.Exam) error {
	if exam.DurationMinutes <= 0 {
		return fmt.Errorf("%w: non-positive duration %d", ErrInvalidExam, exam.DurationMinutes)
	}
	if len(exam.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidExam)
	}
	for i := range exam.Questions {
		if len(exam.Questions[i].Options) == 0 {
			return fmt.Errorf("%w: question %s has no options", ErrInvalidExam, exam.Questions[i].ID)
		}
	}
	return nil
}

// ─── Answer set ────────────────────────────────────────────────────────────

// SelectOption records the student's choice for a question, overwriting any
// previous choice (single-select). The answer set never shrinks.
func (c *Controller) SelectOption(questionID, optionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return fmt.Errorf("%w: state %s", ErrNotReady, c.state)
	}

	q := c.exam.QuestionByID(questionID)
	if q == nil {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if !q.HasOption(optionID) {
		return fmt.Errorf("%w: %s for question %s", ErrUnknownOption, optionID, questionID)
	}

	c.answers[questionID] = optionID
	return nil
}

// ─── Navigation ────────────────────────────────────────────────────────────

// MoveTo jumps the cursor to any valid index. Out-of-range input is a no-op.
func (c *Controller) MoveTo(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return
	}
	if index < 0 || index >= len(c.exam.Questions) {
		return
	}
	c.cursor = index
}

// Next advances the cursor, stopping at the last question.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return
	}
	if c.cursor < len(c.exam.Questions)-1 {
		c.cursor++
	}
}

// Previous moves the cursor back, stopping at the first question.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return
	}
	if c.cursor > 0 {
		c.cursor--
	}
}

// ─── Clock ─────────────────────────────────────────────────────────────────

// startClockLocked launches the tick driver. Caller holds c.mu.
func (c *Controller) startClockLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.clockCancel = cancel
	go c.runClock(ctx)
}

// runClock fires Tick on a fixed cadence until the attempt reaches a
// terminal state or the driver is cancelled by teardown.
func (c *Controller) runClock(ctx context.Context) {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.Tick(ctx) {
				return
			}
		}
	}
}

// Tick recomputes remaining time from the fixed deadline. When the clock
// crosses zero it funnels exactly one forced submission and reports false so
// the driver stops. Remaining time is always deadline − now, never a
// decremented counter, so missed ticks self-correct.
func (c *Controller) Tick(ctx context.Context) bool {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		// A manual submission is in flight. Keep the driver alive: if it
		// fails transiently the attempt returns to READY and the deadline
		// still has to be enforced by a later tick.
		c.mu.Unlock()
		return true
	case StateReady:
	default:
		c.mu.Unlock()
		return false
	}
	if c.opts.Now().Before(c.deadline) {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	c.forceSubmit(ctx)
	return false
}

// Remaining returns the time left on the clock, clamped at zero.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked()
}

func (c *Controller) remainingLocked() time.Duration {
	if c.deadline.IsZero() {
		return 0
	}
	rem := c.deadline.Sub(c.opts.Now())
	if rem < 0 {
		return 0
	}
	return rem
}

// ─── Submission ────────────────────────────────────────────────────────────

// Submit is the manual submission path. It shares the SUBMITTING guard with
// the forced path: whichever trigger wins the transition issues the one and
// only network call. On failure the attempt returns to READY with its answer
// set intact and its deadline untouched.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		// proceed
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	default:
		st := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrAlreadyDone, st)
	}
	c.state = StateSubmitting
	answers := c.projectAnswersLocked()
	c.mu.Unlock()

	err := c.sink.SubmitExam(ctx, c.token, c.examID, answers)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateReady
		c.lastErr = err
		c.log.Warn().Err(err).Msg("Manual submission failed")
		return err
	}

	c.completeLocked()
	return nil
}

// forceSubmit is the timer-expiry path. Transient failures are retried with
// exponential backoff up to the configured budget; a rejection or an
// exhausted budget strands the attempt in SUBMIT_FAILED rather than looping
// silently.
func (c *Controller) forceSubmit(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateReady {
		// A manual submit won the race; nothing to do.
		c.mu.Unlock()
		return
	}
	c.state = StateSubmitting
	answers := c.projectAnswersLocked()
	c.mu.Unlock()

	c.log.Info().Int("answered", len(answers)).Msg("Time expired, forcing submission")

	var err error
	for attempt := 0; attempt < c.opts.SubmitMaxAttempts; attempt++ {
		if attempt > 0 {
			c.opts.Sleep(c.opts.SubmitBackoff << (attempt - 1))
		}

		err = c.sink.SubmitExam(ctx, c.token, c.examID, answers)
		if err == nil {
			c.mu.Lock()
			c.completeLocked()
			c.mu.Unlock()
			return
		}
		if !upstream.IsTransient(err) {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt+1).Msg("Forced submission failed, will retry")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateSubmitFailed
	c.lastErr = err
	c.finishedAt = c.opts.Now()
	c.stopClockLocked()
	c.log.Error().Err(err).Msg("Forced submission exhausted retries")
}

// completeLocked finalizes a successful submission. Caller holds c.mu.
func (c *Controller) completeLocked() {
	c.state = StateCompleted
	c.lastErr = nil
	c.finishedAt = c.opts.Now()
	c.stopClockLocked()
	c.log.Info().Int("answered", len(c.answers)).Msg("Attempt completed")
}

// projectAnswersLocked builds the submission payload in question order.
// Unanswered questions are omitted entirely. Caller holds c.mu.
func (c *Controller) projectAnswersLocked() []model.Answer {
	answers := make([]model.Answer, 0, len(c.answers))
	for _, q := range c.exam.Questions {
		if opt, ok := c.answers[q.ID]; ok {
			answers = append(answers, model.Answer{QuestionID: q.ID, SelectedOptionID: opt})
		}
	}
	return answers
}

// ─── Teardown ──────────────────────────────────────────────────────────────

// Close cancels the clock driver. Called when the attempt is abandoned or
// the gateway shuts down; a dead clock must never fire a submission.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopClockLocked()
}

func (c *Controller) stopClockLocked() {
	if c.clockCancel != nil {
		c.clockCancel()
		c.clockCancel = nil
	}
}

// FinishedAt reports when the attempt reached a terminal state.
func (c *Controller) FinishedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishedAt, c.state.Terminal()
}
