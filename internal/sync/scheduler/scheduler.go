// Package scheduler provides the auto-sync timer: a periodic queue drain
// that is online-aware and reacts to connectivity transitions.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nualapos/backend/internal/logging"
	syncpkg "github.com/nualapos/backend/internal/sync"
)

// DefaultInterval is the auto-sync period when none is configured.
const DefaultInterval = 60 * time.Second

// Session resolves the identity a background drain runs under: the current
// user and their active organization. Both come from collaborators outside
// the sync subsystem.
type Session interface {
	CurrentUser() string
	CurrentOrganization() string
}

// Coordinator is the slice of the sync coordinator the scheduler drives.
type Coordinator interface {
	HasPendingSync(organizationID string) bool
	SyncAll(ctx context.Context, userID, organizationID string) (*syncpkg.Report, error)
}

// Scheduler runs periodic sync passes while online.
type Scheduler struct {
	coord   Coordinator
	session Session

	mu       sync.Mutex
	interval time.Duration
	running  bool
	online   bool
	stopCh   chan struct{}
	kick     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Scheduler. The scheduler assumes it is online until told
// otherwise.
func New(coord Coordinator, session Session) *Scheduler {
	return &Scheduler{
		coord:    coord,
		session:  session,
		interval: DefaultInterval,
		online:   true,
	}
}

// Start begins the periodic loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.kick = make(chan struct{}, 1)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	logging.Info("Auto-sync scheduler started", nil)
}

// Stop halts the loop and waits for any in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info("Auto-sync scheduler stopped", nil)
}

// SetInterval changes the auto-sync period. Takes effect from the next tick.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

// SetOnline records a connectivity change. The timer keeps firing while
// offline but ticks short-circuit; an offline-to-online transition triggers
// an immediate sync attempt.
func (s *Scheduler) SetOnline(online bool) {
	s.mu.Lock()
	wasOnline := s.online
	s.online = online
	running := s.running
	kick := s.kick
	s.mu.Unlock()

	if wasOnline != online {
		logging.Info("Online status changed",
			map[string]any{"was_online": wasOnline, "is_online": online})
	}

	if running && online && !wasOnline {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
}

// IsOnline reports the recorded connectivity state.
func (s *Scheduler) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		interval := s.interval
		stopCh := s.stopCh
		kick := s.kick
		s.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stopCh:
			timer.Stop()
			return
		case <-kick:
			timer.Stop()
		case <-timer.C:
		}

		s.tick(ctx)
	}
}

// tick runs one conditional sync pass: only when online, with a resolved
// session, and with work in the queue.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.IsOnline() {
		logging.Debug("Skipping sync tick - offline", nil)
		return
	}

	userID := s.session.CurrentUser()
	if userID == "" {
		logging.Debug("Skipping sync tick - no active user", nil)
		return
	}
	orgID := s.session.CurrentOrganization()

	if !s.coord.HasPendingSync(orgID) {
		return
	}

	report, err := s.coord.SyncAll(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, syncpkg.ErrSyncInProgress) {
			logging.Debug("Sync already in progress, skipping tick", nil)
			return
		}
		logging.Error("Auto-sync pass failed", err,
			map[string]any{"organization_id": orgID})
		return
	}

	logging.Info("Auto-sync pass finished",
		map[string]any{
			"organization_id": orgID,
			"total":           report.TotalOperations,
			"successful":      report.Successful,
			"failed":          report.Failed,
		})
}
