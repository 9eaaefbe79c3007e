package service

import (
	"context"
	"sync"
	"time"

	"solana-vend-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// ExpirySweeper reclaims storage held by expired payment records. It is a
// supervised background task: compaction only, since the store already
// hides expired records from readers. A failing pass logs and reschedules
// at the shorter retry interval instead of terminating the loop.
type ExpirySweeper struct {
	store         ports.TransactionStore
	interval      time.Duration
	retryInterval time.Duration
	log           zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExpirySweeper creates a sweeper. Start must be called to begin
// sweeping and Stop to shut it down.
func NewExpirySweeper(store ports.TransactionStore, interval, retryInterval time.Duration, log zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		store:         store,
		interval:      interval,
		retryInterval: retryInterval,
		log:           log,
	}
}

// Start launches the sweep loop.
func (s *ExpirySweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop signals the loop to exit and waits for any pass in flight to
// finish, so teardown of the store can follow safely.
func (s *ExpirySweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

func (s *ExpirySweeper) run(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next := s.interval
		if err := s.sweep(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error().Err(err).Msg("sweep pass failed, backing off")
			next = s.retryInterval
		}
		timer.Reset(next)
	}
}

// sweep deletes every record whose TTL has elapsed. Deletes are
// idempotent, so a pass interrupted by shutdown leaves no inconsistency.
func (s *ExpirySweeper) sweep(ctx context.Context) error {
	expired, err := s.store.ScanExpired(ctx)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	deleted := 0
	for _, memo := range expired {
		if err := s.store.Delete(ctx, memo); err != nil {
			s.log.Warn().Err(err).Str("memo", memo).Msg("failed to delete expired record")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("expired", len(expired)).
		Int("deleted", deleted).
		Msg("expiry sweep completed")
	return nil
}
