/*
sweep.go - Background low-stock sweep

PURPOSE:
  Periodically scans for active medicines sitting at or below their
  warning threshold and re-emits low-stock notifications. Catches cases
  the write-path signal can miss: stock lowered by an update, a dropped
  notification, a restock that didn't clear the condition.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - The store query does the filtering; the sweep just fans out events
  - Failures are logged and retried on the next tick

USAGE:
  sweep := NewStockSweep(store, service, interval, log)
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - medicine/service.go: EmitLowStock
  - store/sqlite/sqlite.go: ListLowStockMedicines
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/medtrack-engine/medicine"
	"github.com/warp/medtrack-engine/schedule"
)

// LowStockLister is the slice of the store the sweep needs.
type LowStockLister interface {
	ListLowStockMedicines(ctx context.Context) ([]schedule.Medicine, error)
}

// StockSweep re-notifies low-stock medicines on a fixed interval.
type StockSweep struct {
	store    LowStockLister
	service  *medicine.Service
	interval time.Duration
	log      zerolog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewStockSweep creates a sweep with the given check interval.
func NewStockSweep(store LowStockLister, service *medicine.Service, interval time.Duration, log zerolog.Logger) *StockSweep {
	if interval <= 0 {
		interval = time.Hour
	}
	return &StockSweep{
		store:    store,
		service:  service,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *StockSweep) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)
	go s.run()

	s.log.Info().Dur("interval", s.interval).Msg("stock sweep started")
}

// Stop halts the sweep and waits for an in-flight pass.
func (s *StockSweep) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}

	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.log.Info().Msg("stock sweep stopped")
}

func (s *StockSweep) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// RunNow triggers an immediate pass (for testing/admin).
func (s *StockSweep) RunNow() {
	s.sweep()
}

func (s *StockSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	medicines, err := s.store.ListLowStockMedicines(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stock sweep: listing failed")
		return
	}

	for _, m := range medicines {
		s.service.EmitLowStock(ctx, m, *m.Stock)
	}
	if len(medicines) > 0 {
		s.log.Info().Int("medicines", len(medicines)).Msg("stock sweep: low-stock notifications sent")
	}
}
