package crawler

import (
	"log/slog"
	"sync"
	"time"
)

// Rate controller tuning. The controller is deliberately coarse: it
// only needs to trend toward the remote service's tolerance, not to
// measure it.
const (
	// delayGrowthFactor multiplies the delay on every failure.
	delayGrowthFactor = 1.5

	// delayDecayFactor shrinks the delay after sustained success.
	delayDecayFactor = 0.97

	// decaySuccessRatio is the minimum rolling success ratio required
	// before the delay is allowed to shrink.
	decaySuccessRatio = 0.85

	// decayMinSuccesses is the minimum sample size for a decay step.
	decayMinSuccesses = 30

	// baselineSuccesses and baselineFailures are retained after a
	// decay step instead of zeroing the counters, which would make
	// consecutive decays oscillate.
	baselineSuccesses = 15
	baselineFailures  = 2

	// longPrefixLen is the prefix length past which workers apply a
	// reduced share of the delay; deep prefixes draw few results and
	// rarely trip the remote limiter.
	longPrefixLen = 3

	// longPrefixFactor is that reduced share.
	longPrefixFactor = 0.8
)

// RateController maintains the process-wide adaptive inter-request
// delay, bounded to [min, max]. Every worker consults it between
// prefixes; the fetcher reports each success and failure occurrence.
type RateController struct {
	mu       sync.Mutex
	delay    time.Duration
	min      time.Duration
	max      time.Duration
	success  int
	failure  int
	totalOK  int64
	totalErr int64
	logger   *slog.Logger
	onChange func(delay time.Duration)
}

// NewRateController creates a controller starting at initial delay,
// clamped into [min, max].
func NewRateController(initial, min, max time.Duration, logger *slog.Logger) *RateController {
	if logger == nil {
		logger = slog.Default()
	}
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}
	return &RateController{delay: initial, min: min, max: max, logger: logger}
}

// SetOnChange installs a callback invoked with the new delay whenever
// it changes, used to keep the delay gauge current.
func (rc *RateController) SetOnChange(fn func(delay time.Duration)) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.onChange = fn
}

// ReportFailure grows the delay by delayGrowthFactor (capped at max)
// and resets the rolling success counter so a following decay needs a
// fresh run of successes.
func (rc *RateController) ReportFailure() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.failure++
	rc.totalErr++
	rc.success = 0

	grown := time.Duration(float64(rc.delay) * delayGrowthFactor)
	if grown > rc.max {
		grown = rc.max
	}
	if grown != rc.delay {
		rc.delay = grown
		rc.logger.Info("increased adaptive delay after failure", "delay", rc.delay)
		rc.notifyLocked()
	}
}

// ReportSuccess counts a success and, when the rolling success ratio
// clears decaySuccessRatio over a large enough sample, shrinks the
// delay by delayDecayFactor (floored at min). The counters keep a
// small baseline after a decay step.
func (rc *RateController) ReportSuccess() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.success++
	rc.totalOK++

	total := rc.success + rc.failure
	if total == 0 {
		return
	}
	ratio := float64(rc.success) / float64(total)
	if ratio <= decaySuccessRatio || rc.success <= decayMinSuccesses {
		return
	}

	shrunk := time.Duration(float64(rc.delay) * delayDecayFactor)
	if shrunk < rc.min {
		shrunk = rc.min
	}
	rc.success = baselineSuccesses
	rc.failure = baselineFailures
	if shrunk != rc.delay {
		rc.delay = shrunk
		rc.logger.Info("decreased adaptive delay after sustained success", "delay", rc.delay)
		rc.notifyLocked()
	}
}

// Delay returns the current shared delay.
func (rc *RateController) Delay() time.Duration {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.delay
}

// DelayFor returns the delay a worker should sleep after processing a
// prefix of the given length. Prefixes longer than longPrefixLen get a
// reduced share, never below the configured floor.
func (rc *RateController) DelayFor(prefixLen int) time.Duration {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	d := rc.delay
	if prefixLen > longPrefixLen {
		d = time.Duration(float64(d) * longPrefixFactor)
		if d < rc.min {
			d = rc.min
		}
	}
	return d
}

// Counters returns the cumulative success and failure totals for the
// run. These are diagnostic; the rolling counters behind the decay
// rule are internal.
func (rc *RateController) Counters() (successes, failures int64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.totalOK, rc.totalErr
}

func (rc *RateController) notifyLocked() {
	if rc.onChange != nil {
		rc.onChange(rc.delay)
	}
}
