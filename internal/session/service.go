package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"colony-server/internal/colony"
	"colony-server/internal/history"

	"github.com/google/uuid"
)

// Recorder receives finished colonies.
type Recorder interface {
	RecordOutcome(ctx context.Context, rec history.Record) error
}

type Options struct {
	Engine      colony.Config
	Catalog     *colony.Catalog
	Clock       colony.Clock
	NewRand     func() colony.RandomSource
	Store       SnapshotStore
	Recorder    Recorder
	IdleTimeout time.Duration
	MaxSessions int
	Logger      *slog.Logger
}

type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg         colony.Config
	catalog     *colony.Catalog
	clock       colony.Clock
	newRand     func() colony.RandomSource
	store       SnapshotStore
	recorder    Recorder
	idleTimeout time.Duration
	maxSessions int
	logger      *slog.Logger
}

func NewService(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = colony.DefaultCatalog()
	}
	if opts.Clock == nil {
		opts.Clock = colony.SystemClock()
	}
	if opts.NewRand == nil {
		opts.NewRand = func() colony.RandomSource {
			return colony.NewRandomSource(time.Now().UnixNano())
		}
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore(opts.IdleTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	opts.Logger.Debug("Initializing session service",
		"max_sessions", opts.MaxSessions,
		"idle_timeout", opts.IdleTimeout)

	return &Service{
		sessions:    make(map[string]*Session),
		cfg:         opts.Engine,
		catalog:     opts.Catalog,
		clock:       opts.Clock,
		newRand:     opts.NewRand,
		store:       opts.Store,
		recorder:    opts.Recorder,
		idleTimeout: opts.IdleTimeout,
		maxSessions: opts.MaxSessions,
		logger:      opts.Logger,
	}
}

func (s *Service) Catalog() *colony.Catalog { return s.catalog }

func (s *Service) newSession(id string) (*Session, error) {
	engine := colony.NewEngine(s.cfg, s.catalog, s.clock, s.newRand(), s.logger.With("colony_id", id))
	return s.wrap(id, engine)
}

func (s *Service) wrap(id string, engine *colony.Engine) (*Session, error) {
	scheduler, err := engine.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to start colony scheduler: %w", err)
	}
	now := s.clock.Now()
	return &Session{
		ID:         id,
		engine:     engine,
		scheduler:  scheduler,
		createdAt:  now,
		lastActive: now,
		recorded:   engine.Failed(),
	}, nil
}

// Create starts a new colony and returns its first snapshot.
func (s *Service) Create(ctx context.Context) (string, colony.Snapshot, error) {
	logger := s.logger.With("component", "session_service", "operation", "create")

	if s.full() {
		return "", colony.Snapshot{}, ErrTooManySessions
	}

	id := uuid.New().String()
	sess, err := s.newSession(id)
	if err != nil {
		return "", colony.Snapshot{}, err
	}

	// Checked again under the write lock: concurrent creates may have
	// filled the last slots while the engine was built.
	s.mu.Lock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		sess.scheduler.Stop()
		return "", colony.Snapshot{}, ErrTooManySessions
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	snap := sess.engine.Snapshot(false)
	s.persist(ctx, sess)
	sess.mu.Unlock()

	logger.Info("Colony created", "colony_id", id)
	return id, snap, nil
}

// lookup returns the live session, rehydrating it from the snapshot store
// when this process has not seen it yet.
func (s *Service) lookup(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	snap, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	engine := colony.NewEngine(s.cfg, s.catalog, s.clock, s.newRand(), s.logger.With("colony_id", id))
	if err := engine.Restore(*snap); err != nil {
		return nil, fmt.Errorf("failed to restore colony %s: %w", id, err)
	}
	restored, err := s.wrap(id, engine)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	s.sessions[id] = restored
	s.logger.Info("Colony restored from snapshot cache", "component", "session_service", "colony_id", id)
	return restored, nil
}

// with runs fn on the session under its lock after catching the colony up
// to the current time.
func (s *Service) with(ctx context.Context, id string, fn func(sess *Session) error) error {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return ErrNotFound
	}

	now := s.clock.Now()
	s.catchUp(ctx, sess, now)
	sess.touch(now)

	return fn(sess)
}

func (s *Service) catchUp(ctx context.Context, sess *Session, now time.Time) {
	ticked, failedNow := sess.advance(now)
	if failedNow {
		s.record(ctx, sess, history.OutcomeFailed)
	}
	if ticked {
		s.persist(ctx, sess)
	}
}

func (s *Service) Snapshot(ctx context.Context, id string, withLog bool) (colony.Snapshot, error) {
	var snap colony.Snapshot
	err := s.with(ctx, id, func(sess *Session) error {
		snap = sess.engine.Snapshot(withLog)
		return nil
	})
	return snap, err
}

func (s *Service) Build(ctx context.Context, id, module string, cell colony.Cell) (colony.Placement, colony.Snapshot, error) {
	var (
		placement colony.Placement
		snap      colony.Snapshot
	)
	err := s.with(ctx, id, func(sess *Session) error {
		var err error
		placement, err = sess.engine.Build(module, cell)
		snap = sess.engine.Snapshot(false)
		if err != nil {
			return err
		}
		s.persist(ctx, sess)
		return nil
	})
	return placement, snap, err
}

func (s *Service) Explore(ctx context.Context, id string, biome colony.Biome) (*colony.Expedition, colony.Snapshot, error) {
	var (
		exp  *colony.Expedition
		snap colony.Snapshot
	)
	err := s.with(ctx, id, func(sess *Session) error {
		var err error
		exp, err = sess.engine.Explore(biome)
		snap = sess.engine.Snapshot(false)
		if err != nil {
			return err
		}
		s.persist(ctx, sess)
		return nil
	})
	return exp, snap, err
}

// Log returns the colony's event log, newest first.
func (s *Service) Log(ctx context.Context, id string) ([]colony.Event, error) {
	var events []colony.Event
	err := s.with(ctx, id, func(sess *Session) error {
		events = sess.engine.Log().Entries()
		return nil
	})
	return events, err
}

// SnapshotAndSubscribe takes a snapshot including the log and subscribes
// to later events under one session lock, so the stream continues exactly
// where the snapshot's log ends. The returned cancel func must be called.
func (s *Service) SnapshotAndSubscribe(ctx context.Context, id string, buffer int) (colony.Snapshot, <-chan colony.Event, func(), error) {
	var (
		snap colony.Snapshot
		ch   <-chan colony.Event
		log  *colony.EventLog
	)
	err := s.with(ctx, id, func(sess *Session) error {
		snap = sess.engine.Snapshot(true)
		log = sess.engine.Log()
		ch = log.Subscribe(buffer)
		return nil
	})
	if err != nil {
		return colony.Snapshot{}, nil, nil, err
	}
	return snap, ch, func() { log.Unsubscribe(ch) }, nil
}

// Abandon ends the colony and records it unless it already failed.
func (s *Service) Abandon(ctx context.Context, id string) (colony.Snapshot, error) {
	var snap colony.Snapshot
	err := s.with(ctx, id, func(sess *Session) error {
		snap = sess.engine.Snapshot(false)
		s.record(ctx, sess, history.OutcomeAbandoned)
		s.close(ctx, sess)
		return nil
	})
	if err != nil {
		return snap, err
	}

	s.logger.Info("Colony abandoned", "component", "session_service", "colony_id", id)
	return snap, nil
}

// close must be called with sess.mu held.
func (s *Service) close(ctx context.Context, sess *Session) {
	sess.closed = true
	sess.scheduler.Stop()
	sess.engine.Log().Close()

	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()

	if err := s.store.Delete(ctx, sess.ID); err != nil {
		s.logger.Warn("Failed to drop cached snapshot", "component", "session_service", "colony_id", sess.ID, "error", err)
	}
}

// record must be called with sess.mu held.
func (s *Service) record(ctx context.Context, sess *Session, outcome history.Outcome) {
	if sess.recorded || s.recorder == nil {
		sess.recorded = true
		return
	}
	sess.recorded = true

	rec := history.NewRecord(sess.ID, outcome, sess.engine.Snapshot(false))
	if err := s.recorder.RecordOutcome(ctx, rec); err != nil {
		s.logger.Error("Failed to record colony outcome",
			"component", "session_service",
			"colony_id", sess.ID,
			"outcome", outcome,
			"error", err)
	}
}

// persist must be called with sess.mu held.
func (s *Service) persist(ctx context.Context, sess *Session) {
	if err := s.store.Save(ctx, sess.ID, sess.engine.Snapshot(true)); err != nil {
		s.logger.Warn("Failed to cache colony snapshot",
			"component", "session_service",
			"colony_id", sess.ID,
			"error", err)
	}
}

// Tick advances every live colony to now and evicts idle ones.
func (s *Service) Tick(ctx context.Context) {
	now := s.clock.Now()

	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		if !sess.closed {
			s.catchUp(ctx, sess, now)
			if s.idleTimeout > 0 && now.Sub(sess.lastActive) > s.idleTimeout {
				s.logger.Info("Evicting idle colony", "component", "session_service", "colony_id", sess.ID, "age", now.Sub(sess.createdAt))
				s.record(ctx, sess, history.OutcomeExpired)
				s.close(ctx, sess)
			}
		}
		sess.mu.Unlock()
	}
}

// Run drives Tick every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	logger := s.logger.With("component", "session_driver")
	logger.Info("Colony driver started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Colony driver stopped")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func (s *Service) full() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSessions > 0 && len(s.sessions) >= s.maxSessions
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
