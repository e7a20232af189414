package publish

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ticker periodically launches scheduled jobs whose run time has arrived
type Ticker struct {
	store        *Store
	orchestrator *Orchestrator
	interval     time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       *zap.SugaredLogger
}

// TickerConfig contains configuration for the schedule ticker
type TickerConfig struct {
	Interval time.Duration
}

// DefaultTickerConfig returns sensible defaults
func DefaultTickerConfig() TickerConfig {
	return TickerConfig{Interval: 1 * time.Second}
}

// NewTicker creates a new schedule ticker
func NewTicker(store *Store, orchestrator *Orchestrator, cfg TickerConfig, logger *zap.SugaredLogger) *Ticker {
	ctx, cancel := context.WithCancel(context.Background())
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultTickerConfig().Interval
	}
	return &Ticker{
		store:        store,
		orchestrator: orchestrator,
		interval:     interval,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// Start begins the ticker loop
func (t *Ticker) Start() {
	t.wg.Add(1)
	go t.run()
	t.logger.Infow("Schedule ticker started", "interval", t.interval)
}

// Stop gracefully stops the ticker
func (t *Ticker) Stop() {
	t.cancel()
	t.wg.Wait()
	t.logger.Infow("Schedule ticker stopped")
}

func (t *Ticker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case tickTime := <-ticker.C:
			if err := t.launchDue(tickTime); err != nil {
				t.logger.Warnw("Schedule tick error", "error", err)
			}
		}
	}
}

// launchDue promotes every scheduled job whose run time has passed
func (t *Ticker) launchDue(now time.Time) error {
	due, err := t.store.ListDue(now)
	if err != nil {
		return err
	}

	for _, sj := range due {
		if err := t.orchestrator.runScheduled(sj); err != nil {
			t.logger.Errorw("Failed to launch scheduled job",
				"job_id", sj.ID,
				"error", err,
			)
		}
	}
	return nil
}
