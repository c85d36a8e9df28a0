package view

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/seller-dashboard/pkg/logger"
)

type entry struct {
	view     *ProductView
	lastSeen time.Time
}

// Store keeps mounted views by id until they sit idle longer than the TTL
type Store struct {
	mu    sync.Mutex
	views map[string]*entry
	ttl   time.Duration
	now   func() time.Time
	gauge prometheus.Gauge
}

// NewStore registers a gauge of live views on reg when reg is not nil
func NewStore(ttl time.Duration, reg prometheus.Registerer) *Store {
	s := &Store{
		views: make(map[string]*entry),
		ttl:   ttl,
		now:   time.Now,
		gauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_mounted_views",
			Help: "Number of product pages currently held in memory",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.gauge)
	}
	return s
}

// Put stores v under a new random id
func (s *Store) Put(v *ProductView) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.views[id] = &entry{view: v, lastSeen: s.now()}
	s.gauge.Set(float64(len(s.views)))
	s.mu.Unlock()

	return id
}

// Get returns a live view and marks it as used
func (s *Store) Get(id string) (*ProductView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.views[id]
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		delete(s.views, id)
		s.gauge.Set(float64(len(s.views)))
		return nil, false
	}
	e.lastSeen = s.now()
	return e.view, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, id)
	s.gauge.Set(float64(len(s.views)))
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Sweep evicts idle views and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.views {
		if s.expired(e) {
			delete(s.views, id)
			removed++
		}
	}
	s.gauge.Set(float64(len(s.views)))
	return removed
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

// Run sweeps every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Logger.Debug().Int("evicted", n).Int("live", s.Len()).Msg("Idle views evicted")
			}
		}
	}
}
