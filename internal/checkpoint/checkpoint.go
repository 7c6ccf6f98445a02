package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/namesweep/namesweep/internal/model"
)

// Record is the durable snapshot of one crawl run.
type Record struct {
	DiscoveredNames   []string                 `json:"discovered_names"`
	ExploredPrefixes  []string                 `json:"explored_prefixes"`
	RequestCount      int64                    `json:"request_count"`
	Timestamp         float64                  `json:"timestamp"`
	PrefixLengthStats map[int]model.LengthStat `json:"prefix_length_stats"`
}

// Manager decides when a checkpoint is due and performs atomic saves
// and loads. Safe for concurrent use: exactly one worker wins each
// ShouldSave trigger.
type Manager struct {
	path     string
	requests int64
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	lastCount int64
	lastSave  time.Time
}

// NewManager creates a Manager writing to path. requestInterval
// triggers a save every that many completed requests; timeInterval
// triggers one after that much elapsed time since the last save.
// Either trigger may be zero to disable it.
func NewManager(path string, requestInterval int64, timeInterval time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		path:     path,
		requests: requestInterval,
		interval: timeInterval,
		logger:   logger,
		lastSave: time.Now(),
	}
}

// Path returns the checkpoint file location.
func (m *Manager) Path() string { return m.path }

// ShouldSave reports whether a checkpoint is due at the given request
// count. It arms at most one caller per trigger: the winner must
// follow up with Save.
func (m *Manager) ShouldSave(requestCount int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := false
	if m.requests > 0 && requestCount-m.lastCount >= m.requests {
		due = true
	}
	if m.interval > 0 && time.Since(m.lastSave) >= m.interval {
		due = true
	}
	if !due {
		return false
	}
	m.lastCount = requestCount
	m.lastSave = time.Now()
	return true
}

// Save writes the record atomically: a temporary file in the target
// directory is renamed over the checkpoint path.
func (m *Manager) Save(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	m.logger.Info("checkpoint saved",
		"path", m.path,
		"names", len(rec.DiscoveredNames),
		"explored", len(rec.ExploredPrefixes),
	)
	return nil
}

// Load reads the checkpoint. A missing file returns (nil, nil): a
// fresh start, not an error.
func (m *Manager) Load() (*Record, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", m.path, err)
	}
	return &rec, nil
}

// RebuildFrontier reconstructs an approximate frontier from a loaded
// record: for every explored prefix, every single-character extension
// not itself explored is pushed at a priority derived from the prefix
// length, shorter prefixes first. Returns the number of prefixes
// pushed. Fine-grained priorities from the original run are not
// recoverable; the expansion algorithm restores branch structure once
// these prefixes are queried.
func RebuildFrontier(rec *Record, charset model.Charset, push func(prefix string, priority int) bool) int {
	explored := make(map[string]struct{}, len(rec.ExploredPrefixes))
	for _, p := range rec.ExploredPrefixes {
		explored[p] = struct{}{}
	}

	byLength := append([]string(nil), rec.ExploredPrefixes...)
	sort.Slice(byLength, func(i, j int) bool {
		if len(byLength[i]) != len(byLength[j]) {
			return len(byLength[i]) < len(byLength[j])
		}
		return byLength[i] < byLength[j]
	})

	all := charset.All()
	queued := 0
	for _, prefix := range byLength {
		for i := 0; i < len(all); i++ {
			ext := prefix + string(all[i])
			if _, done := explored[ext]; done {
				continue
			}
			if push(ext, len(prefix)+1) {
				queued++
			}
		}
	}
	return queued
}
