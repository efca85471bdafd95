package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"relaymark/internal/storage"
	"relaymark/internal/storage/models"
	pkgerrors "relaymark/pkg/errors"
)

// Outcome holds the result of probing a single relay. A nil LatencyMS means
// the relay was unreachable (or had no address) and is excluded from ranking.
type Outcome struct {
	Relay        *models.Relay
	LatencyMS    *float64
	ErrorMessage string
	Samples      int
	ProbedAt     time.Time
}

// Success reports whether the probe produced a usable latency measurement.
func (o *Outcome) Success() bool { return o.LatencyMS != nil }

// BatchResult holds the outcome of probing multiple relays.
type BatchResult struct {
	Outcomes  []*Outcome
	Tested    int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// ProgressFunc is called each time a single probe completes during batch probing.
type ProgressFunc func(outcome *Outcome, current, total int)

// ProberConfig holds configuration for the Prober.
type ProberConfig struct {
	Workers  int64
	Timeout  time.Duration // per connection attempt
	Samples  int
	Port     int
	Strategy Strategy

	// AllowPartial averages over the attempts that succeeded instead of
	// discarding the relay on the first failed attempt.
	AllowPartial bool
}

// Prober orchestrates latency probing.
type Prober struct {
	storage storage.Storage // may be nil, results are then not recorded
	config  ProberConfig
}

// NewProber creates a new Prober.
func NewProber(store storage.Storage, cfg ProberConfig) *Prober {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Samples <= 0 {
		cfg.Samples = 3
	}
	if cfg.Port <= 0 {
		cfg.Port = 443
	}
	if cfg.Strategy == nil {
		cfg.Strategy = &TCPStrategy{}
	}
	return &Prober{
		storage: store,
		config:  cfg,
	}
}

// ProbeOne probes a single relay and records the result.
func (p *Prober) ProbeOne(ctx context.Context, relay *models.Relay) *Outcome {
	outcome := &Outcome{
		Relay:    relay,
		Samples:  p.config.Samples,
		ProbedAt: time.Now(),
	}

	latencyMS, err := p.measure(ctx, relay)
	if err != nil {
		outcome.ErrorMessage = err.Error()
	} else {
		outcome.LatencyMS = &latencyMS
	}

	// Record to database (best-effort)
	if p.storage != nil {
		p.storage.RecordProbe(ctx, &models.ProbeResult{
			Hostname:     relay.Hostname,
			LatencyMS:    outcome.LatencyMS,
			Success:      outcome.Success(),
			ErrorMessage: outcome.ErrorMessage,
			Samples:      outcome.Samples,
			ProbedAt:     outcome.ProbedAt,
		})
	}

	return outcome
}

// measure runs the sample loop against the relay's ingress address and
// returns the mean latency rounded to 2 decimal places.
func (p *Prober) measure(ctx context.Context, relay *models.Relay) (float64, error) {
	if relay.IPv4AddrIn == "" {
		return 0, pkgerrors.ErrNoAddress
	}

	var sum float64
	var succeeded int
	var lastErr error

	for i := 0; i < p.config.Samples; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		elapsedMS, err := p.config.Strategy.Probe(attemptCtx, relay.IPv4AddrIn, p.config.Port)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
				err = fmt.Errorf("%w after %s", pkgerrors.ErrProbeTimeout, p.config.Timeout)
			}
			lastErr = err
			if !p.config.AllowPartial {
				// One failed attempt discards the relay.
				return 0, &pkgerrors.ProbeError{
					Hostname: relay.Hostname,
					Address:  relay.IPv4AddrIn,
					Port:     p.config.Port,
					Err:      err,
				}
			}
			continue
		}

		sum += elapsedMS
		succeeded++
	}

	if succeeded == 0 {
		return 0, &pkgerrors.ProbeError{
			Hostname: relay.Hostname,
			Address:  relay.IPv4AddrIn,
			Port:     p.config.Port,
			Err:      fmt.Errorf("all %d attempts failed: %w", p.config.Samples, lastErr),
		}
	}

	mean := sum / float64(succeeded)
	return math.Round(mean*100) / 100, nil
}

// ProbeBatch probes multiple relays concurrently using a semaphore-based
// worker pool. It always returns one outcome per input relay, in input
// order; per-relay failures never abort the batch.
func (p *Prober) ProbeBatch(ctx context.Context, relays []*models.Relay, progress ProgressFunc) *BatchResult {
	startTime := time.Now()

	batch := &BatchResult{}
	outcomes := make([]*Outcome, len(relays))
	var mu sync.Mutex
	var completed int

	sem := semaphore.NewWeighted(p.config.Workers)
	var wg sync.WaitGroup

	for i, relay := range relays {
		wg.Add(1)
		go func(idx int, r *models.Relay) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			outcome := p.ProbeOne(ctx, r)
			outcomes[idx] = outcome

			mu.Lock()
			completed++
			current := completed
			if outcome.Success() {
				batch.Succeeded++
			} else {
				batch.Failed++
			}
			mu.Unlock()

			if progress != nil {
				progress(outcome, current, len(relays))
			}
		}(i, relay)
	}

	wg.Wait()

	for _, o := range outcomes {
		if o != nil {
			batch.Outcomes = append(batch.Outcomes, o)
			batch.Tested++
		}
	}

	batch.Duration = time.Since(startTime)
	return batch
}
