package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/unisphere/exam-gateway/internal/config"
)

// Registry holds every live attempt controller, keyed by attempt ID. One
// controller exists per (student token, exam) at a time; starting a second
// attempt for the same pair re-attaches to the running one, which is what
// lets a reloaded browser resume against the same fixed deadline.
//
// The registry is purely in-memory: a gateway restart loses in-progress
// attempts.
type Registry struct {
	cfg  *config.Config
	prov ContentProvider
	sink SubmissionSink
	log  zerolog.Logger

	mu      sync.Mutex
	byID    map[string]*Controller
	ownerOf map[string]string // owner key → attempt ID
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg *config.Config, prov ContentProvider, sink SubmissionSink, log zerolog.Logger) *Registry {
	return &Registry{
		cfg:     cfg,
		prov:    prov,
		sink:    sink,
		log:     log.With().Str("component", "session_registry").Logger(),
		byID:    make(map[string]*Controller),
		ownerOf: make(map[string]string),
	}
}

// ownerKey derives the idempotency key for a (token, exam) pair. Hashed so
// bearer tokens never sit in map keys in their raw form.
func ownerKey(token, examID string) string {
	sum := sha256.Sum256([]byte(token + "\x00" + examID))
	return hex.EncodeToString(sum[:])
}

// Start opens an attempt for the student against the exam, or re-attaches to
// the running one. A load failure is returned without registering anything.
func (r *Registry) Start(ctx context.Context, token, examID string) (*Controller, error) {
	key := ownerKey(token, examID)

	r.mu.Lock()
	if id, ok := r.ownerOf[key]; ok {
		if ctrl, live := r.byID[id]; live && !ctrl.StateNow().Terminal() {
			r.mu.Unlock()
			r.log.Debug().Str("attempt_id", id).Msg("Re-attached to running attempt")
			return ctrl, nil
		}
		// Previous attempt finished; let the student start over and let the
		// upstream decide whether a second submission is acceptable.
		delete(r.ownerOf, key)
	}
	r.mu.Unlock()

	ctrl := NewController(examID, token, r.prov, r.sink, r.log, Options{
		TickInterval:      r.cfg.TickInterval,
		SubmitMaxAttempts: r.cfg.SubmitMaxAttempts,
		SubmitBackoff:     r.cfg.SubmitBackoff,
	})

	if err := ctrl.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A concurrent Start for the same pair may have won while we were
	// loading; prefer the registered one and discard ours.
	if id, ok := r.ownerOf[key]; ok {
		if existing, live := r.byID[id]; live && !existing.StateNow().Terminal() {
			ctrl.Close()
			return existing, nil
		}
	}

	r.byID[ctrl.ID()] = ctrl
	r.ownerOf[key] = ctrl.ID()
	return ctrl, nil
}

// Get returns the controller for an attempt ID.
func (r *Registry) Get(attemptID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctrl, ok := r.byID[attemptID]
	return ctrl, ok
}

// Abandon tears an attempt down without submitting: the clock is cancelled
// and the answer set discarded. Reports whether the attempt existed.
func (r *Registry) Abandon(attemptID string) bool {
	r.mu.Lock()
	ctrl, ok := r.byID[attemptID]
	if ok {
		delete(r.byID, attemptID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	ctrl.Close()
	r.log.Info().Str("attempt_id", attemptID).Msg("Attempt abandoned")
	return true
}

// Janitor reaps terminal attempts after the configured grace period so
// clients have time to read the final snapshot. Call in a goroutine; stops
// when ctx is cancelled.
func (r *Registry) Janitor(ctx context.Context) {
	r.log.Info().Msg("Janitor started")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Janitor stopped")
			return
		case <-ticker.C:
			r.reap(time.Now())
		}
	}
}

// reap removes terminal attempts whose grace period has elapsed.
func (r *Registry) reap(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	for id, ctrl := range r.byID {
		finished, terminal := ctrl.FinishedAt()
		if terminal && now.Sub(finished) >= r.cfg.AttemptReapAfter {
			delete(r.byID, id)
			reaped++
		}
	}
	for key, id := range r.ownerOf {
		if _, live := r.byID[id]; !live {
			delete(r.ownerOf, key)
		}
	}
	if reaped > 0 {
		r.log.Info().Int("count", reaped).Msg("Reaped finished attempts")
	}
}

// Shutdown cancels every live clock. In-progress attempts are lost.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.byID))
	for _, ctrl := range r.byID {
		ctrls = append(ctrls, ctrl)
	}
	r.byID = make(map[string]*Controller)
	r.ownerOf = make(map[string]string)
	r.mu.Unlock()

	for _, ctrl := range ctrls {
		ctrl.Close()
	}
	r.log.Info().Int("count", len(ctrls)).Msg("Registry shut down")
}

// Count returns the number of live attempts, for monitoring.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
