package engine

import (
	"sort"
	"sync"
	"time"

	"PairPull/internal/domain/models"
)

// HistoryStore keeps a bounded rolling price history per symbol. Entries
// are created lazily on first observation and live for the process
// lifetime. A single writer mutates it (ingestion); selection reads a
// consistent snapshot under the same lock.
type HistoryStore struct {
	mu        sync.RWMutex
	histories map[string][]models.PricePoint
	maxPoints int
	now       func() time.Time
}

// NewHistoryStore creates a store bounded to maxPoints entries per symbol.
func NewHistoryStore(maxPoints int) *HistoryStore {
	if maxPoints <= 0 {
		maxPoints = MaxHistoryPoints
	}
	return &HistoryStore{
		histories: make(map[string][]models.PricePoint),
		maxPoints: maxPoints,
		now:       time.Now,
	}
}

// Update appends each observation to its symbol's history, stamping the
// ingestion time when the observation carries none, and evicts from the
// front once the history exceeds the cap. It never fails; unknown symbols
// simply become new keys.
func (s *HistoryStore) Update(points []*models.PricePoint) {
	if len(points) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if p == nil {
			continue
		}
		pt := *p
		if pt.Timestamp.IsZero() {
			pt.Timestamp = s.now()
		}
		h := append(s.histories[pt.Symbol], pt)
		if excess := len(h) - s.maxPoints; excess > 0 {
			h = h[excess:]
		}
		s.histories[pt.Symbol] = h
	}
}

// HistoryOf returns a copy of the symbol's history, empty when absent.
func (s *HistoryStore) HistoryOf(symbol string) []models.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.histories[symbol]
	out := make([]models.PricePoint, len(h))
	copy(out, h)
	return out
}

// Len returns the history length for a symbol.
func (s *HistoryStore) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories[symbol])
}

// CountEligible returns how many symbols have at least minPoints points.
func (s *HistoryStore) CountEligible(minPoints int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, h := range s.histories {
		if len(h) >= minPoints {
			n++
		}
	}
	return n
}

// snapshotEligible returns eligible symbols in deterministic order along
// with copies of their histories. Ordering follows the configured
// universe list first, then any stray symbols in lexical order, so pair
// enumeration is stable for a given snapshot.
func (s *HistoryStore) snapshotEligible(universe []string, minPoints int) ([]string, map[string][]models.PricePoint) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.histories))
	seen := make(map[string]bool, len(s.histories))
	for _, sym := range universe {
		if h, ok := s.histories[sym]; ok && len(h) >= minPoints {
			symbols = append(symbols, sym)
			seen[sym] = true
		}
	}
	var strays []string
	for sym, h := range s.histories {
		if !seen[sym] && len(h) >= minPoints {
			strays = append(strays, sym)
		}
	}
	sort.Strings(strays)
	symbols = append(symbols, strays...)

	copies := make(map[string][]models.PricePoint, len(symbols))
	for _, sym := range symbols {
		h := s.histories[sym]
		c := make([]models.PricePoint, len(h))
		copy(c, h)
		copies[sym] = c
	}
	return symbols, copies
}
