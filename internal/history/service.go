package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	memoryKeep       = 500
)

// Store persists colony outcomes.
type Store interface {
	Create(ctx context.Context, rec Record) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// RecordOutcome stores rec. A colony already recorded is not an error.
func (s *Service) RecordOutcome(ctx context.Context, rec Record) error {
	logger := s.logger.With("component", "history_service", "operation", "record_outcome", "colony_id", rec.ColonyID)

	if _, err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug("Colony outcome already recorded")
			return nil
		}
		return fmt.Errorf("failed to record outcome for colony %s: %w", rec.ColonyID, err)
	}
	return nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	records, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list colony history: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// MemoryStore keeps outcomes in process when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int
	records []Record
	seen    map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (m *MemoryStore) Create(_ context.Context, rec Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[rec.ColonyID]; ok {
		return nil, sql.ErrNoRows
	}
	m.nextID++
	rec.ID = m.nextID
	m.seen[rec.ColonyID] = struct{}{}
	m.records = append(m.records, rec)
	if len(m.records) > memoryKeep {
		m.records = m.records[len(m.records)-memoryKeep:]
	}
	return &rec, nil
}

func (m *MemoryStore) ListRecent(_ context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}
