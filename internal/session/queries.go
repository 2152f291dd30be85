package session

import (
	"fmt"
	"time"
)

// Derived queries: pure functions of controller state.

// AnsweredCount returns the number of questions with a recorded selection.
func (c *Controller) AnsweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.answers)
}

// RemainingCount returns how many questions are still unanswered.
func (c *Controller) RemainingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exam == nil {
		return 0
	}
	return len(c.exam.Questions) - len(c.answers)
}

// IsAnswered reports whether a selection exists for the question.
func (c *Controller) IsAnswered(questionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.answers[questionID]
	return ok
}

// Cursor returns the index of the currently presented question.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// ProgressFraction returns (cursor+1)/questionCount.
func (c *Controller) ProgressFraction() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exam == nil || len(c.exam.Questions) == 0 {
		return 0
	}
	return float64(c.cursor+1) / float64(len(c.exam.Questions))
}

// FormattedRemaining renders the clock as MM:SS, clamped at 00:00.
func (c *Controller) FormattedRemaining() string {
	return formatClock(c.Remaining())
}

// formatClock truncates to whole seconds so the display never over-reports
// the time left.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Snapshot is a point-in-time view of an attempt for transport to the
// browser over REST or WebSocket.
type Snapshot struct {
	AttemptID          string            `json:"attempt_id"`
	ExamID             string            `json:"exam_id"`
	State              State             `json:"state"`
	Cursor             int               `json:"cursor"`
	QuestionCount      int               `json:"question_count"`
	AnsweredCount      int               `json:"answered_count"`
	RemainingCount     int               `json:"remaining_count"`
	RemainingSeconds   int               `json:"remaining_seconds"`
	FormattedRemaining string            `json:"formatted_remaining"`
	ProgressFraction   float64           `json:"progress_fraction"`
	Answers            map[string]string `json:"answers"`
	Error              string            `json:"error,omitempty"`
}

// Snapshot captures the attempt's current state under one lock acquisition.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		AttemptID: c.id,
		ExamID:    c.examID,
		State:     c.state,
		Cursor:    c.cursor,
		Answers:   make(map[string]string, len(c.answers)),
	}
	for q, o := range c.answers {
		snap.Answers[q] = o
	}
	if c.exam != nil {
		snap.QuestionCount = len(c.exam.Questions)
		snap.AnsweredCount = len(c.answers)
		snap.RemainingCount = snap.QuestionCount - snap.AnsweredCount
		if snap.QuestionCount > 0 {
			snap.ProgressFraction = float64(c.cursor+1) / float64(snap.QuestionCount)
		}
	}
	rem := c.remainingLocked()
	snap.RemainingSeconds = int(rem / time.Second)
	snap.FormattedRemaining = formatClock(rem)
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	return snap
}

// StateNow returns the current lifecycle state.
func (c *Controller) StateNow() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
