package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/namesweep/namesweep/internal/checkpoint"
	"github.com/namesweep/namesweep/internal/client"
	"github.com/namesweep/namesweep/internal/config"
	"github.com/namesweep/namesweep/internal/model"
)

// fakeService simulates an autocomplete endpoint over a fixed sorted
// corpus and records how often each prefix is queried.
type fakeService struct {
	corpus []string

	mu   sync.Mutex
	hits map[string]int
}

func newFakeService(corpus []string) *fakeService {
	sorted := append([]string(nil), corpus...)
	sort.Strings(sorted)
	return &fakeService{corpus: sorted, hits: make(map[string]int)}
}

func (s *fakeService) handler(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("query")
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("max_results"))

	s.mu.Lock()
	s.hits[prefix]++
	s.mu.Unlock()

	results := []string{}
	for _, name := range s.corpus {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			results = append(results, name)
			if len(results) == maxResults {
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *fakeService) duplicateQueries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dups []string
	for prefix, n := range s.hits {
		if n > 1 {
			dups = append(dups, prefix)
		}
	}
	return dups
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestConfig returns a config tuned for fast in-process crawls.
func newTestConfig(baseURL string) *config.Config {
	cfg := config.NewConfig()
	cfg.BaseURL = baseURL
	cfg.APIVersion = 1
	cfg.MaxResults = 3
	cfg.Workers = 4
	cfg.InitialDelay = time.Millisecond
	cfg.MinDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.RequestJitter = 0
	cfg.PopTimeout = 30 * time.Millisecond
	cfg.StatusInterval = 0
	cfg.CheckpointPath = ""
	cfg.CacheSize = 0
	return cfg
}

func newTestFetcher(t *testing.T, srv *httptest.Server, cfg *config.Config) *client.Client {
	t.Helper()
	cl, err := client.New(srv.Client(), srv.URL,
		client.WithAPIVersion(cfg.APIVersion),
		client.WithMaxResults(cfg.EffectiveMaxResults()),
		client.WithMaxRetries(1),
		client.WithCacheSize(cfg.CacheSize),
		client.WithLogger(discardLogger()),
	)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return cl
}

func TestCrawlerDiscoversFullNamespace(t *testing.T) {
	t.Parallel()

	corpus := []string{
		"apple", "apply", "approve", "apricot",
		"banana", "band", "bandit", "bee",
		"cat", "can", "candle", "candy",
	}
	svc := newFakeService(corpus)
	srv := httptest.NewServer(http.HandlerFunc(svc.handler))
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	c := New(cfg, newTestFetcher(t, srv, cfg), WithLogger(discardLogger()))

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := append([]string(nil), corpus...)
	sort.Strings(want)
	if !reflect.DeepEqual(report.Names, want) {
		t.Errorf("Names = %v, want %v", report.Names, want)
	}
	if report.TotalNames != len(want) {
		t.Errorf("TotalNames = %d, want %d", report.TotalNames, len(want))
	}
	if report.Interrupted {
		t.Error("Interrupted = true for a run that reached quiescence")
	}
	if report.TotalRequests == 0 {
		t.Error("TotalRequests = 0, want > 0")
	}

	if dups := svc.duplicateQueries(); len(dups) != 0 {
		t.Errorf("prefixes queried more than once: %v", dups)
	}
}

func TestCrawlerPrunesKnownCompleteBranches(t *testing.T) {
	t.Parallel()

	// A single name: after the seeds, only its own prefix chain is ever
	// extended, so the request count stays near the charset size.
	svc := newFakeService([]string{"zebra"})
	srv := httptest.NewServer(http.HandlerFunc(svc.handler))
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	c := New(cfg, newTestFetcher(t, srv, cfg), WithLogger(discardLogger()))

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !reflect.DeepEqual(report.Names, []string{"zebra"}) {
		t.Errorf("Names = %v, want [zebra]", report.Names)
	}
	// 26 seeds; every page is short so no branch is extended.
	if report.TotalRequests != 26 {
		t.Errorf("TotalRequests = %d, want 26", report.TotalRequests)
	}
}

func TestCrawlerCancelledContextIsGraceful(t *testing.T) {
	t.Parallel()

	svc := newFakeService([]string{"apple"})
	srv := httptest.NewServer(http.HandlerFunc(svc.handler))
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "checkpoint.json")

	// Both periodic triggers disabled: the only save is the one taken
	// at shutdown.
	mgr := checkpoint.NewManager(cfg.CheckpointPath, 0, 0, discardLogger())
	c := New(cfg, newTestFetcher(t, srv, cfg),
		WithLogger(discardLogger()),
		WithCheckpointManager(mgr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run with cancelled context: %v", err)
	}
	if !report.Interrupted {
		t.Error("Interrupted = false, want true")
	}

	rec, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec == nil {
		t.Fatal("no checkpoint written at interrupted shutdown")
	}
	if rec.RequestCount != report.TotalRequests {
		t.Errorf("checkpoint requests = %d, want %d", rec.RequestCount, report.TotalRequests)
	}
}

func TestCrawlerWritesCheckpoint(t *testing.T) {
	t.Parallel()

	svc := newFakeService([]string{"apple", "apply", "approve", "banana"})
	srv := httptest.NewServer(http.HandlerFunc(svc.handler))
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "checkpoint.json")

	mgr := checkpoint.NewManager(cfg.CheckpointPath, 5, 0, discardLogger())
	c := New(cfg, newTestFetcher(t, srv, cfg),
		WithLogger(discardLogger()),
		WithCheckpointManager(mgr),
	)

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec == nil {
		t.Fatal("no checkpoint written")
	}
	if !reflect.DeepEqual(rec.DiscoveredNames, report.Names) {
		t.Errorf("checkpoint names = %v, want %v", rec.DiscoveredNames, report.Names)
	}
	if rec.RequestCount != report.TotalRequests {
		t.Errorf("checkpoint requests = %d, want %d", rec.RequestCount, report.TotalRequests)
	}
	if len(rec.ExploredPrefixes) != report.ExploredPrefixes {
		t.Errorf("checkpoint explored = %d, want %d",
			len(rec.ExploredPrefixes), report.ExploredPrefixes)
	}
}

// flakyCheckpointer injects a fixed number of Save failures before
// delegating to the real manager.
type flakyCheckpointer struct {
	*checkpoint.Manager

	mu        sync.Mutex
	failures  int
	saveCalls int
}

var errSaveUnavailable = errors.New("checkpoint target unavailable")

func (f *flakyCheckpointer) Save(rec *checkpoint.Record) error {
	f.mu.Lock()
	f.saveCalls++
	inject := f.failures > 0
	if inject {
		f.failures--
	}
	f.mu.Unlock()

	if inject {
		return errSaveUnavailable
	}
	return f.Manager.Save(rec)
}

func TestCrawlerCheckpointDoubleFailureAborts(t *testing.T) {
	t.Parallel()

	svc := newFakeService([]string{"apple", "banana"})
	srv := httptest.NewServer(http.HandlerFunc(svc.handler))
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	// The checkpoint path is an existing directory, so the rename step
	// of every save fails. With a one-request trigger the first
	// completed fetch forces a save, its retry fails too, and the run
	// must abort.
	cfg.CheckpointPath = t.TempDir()

	mgr := checkpoint.NewManager(cfg.CheckpointPath, 1, 0, discardLogger())
	c := New(cfg, newTestFetcher(t, srv, cfg),
		WithLogger(discardLogger()),
		WithCheckpointManager(mgr),
	)

	_, err := c.Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded with an unwritable checkpoint path")
	}
	if !strings.Contains(err.Error(), "checkpoint save failed twice") {
		t.Errorf("error = %v, want the double-failure report", err)
	}
}

func TestCrawlerCheckpointTransientFailureAbsorbed(t *testing.T) {
	t.Parallel()

	svc := newFakeService([]string{"apple", "banana"})
	srv := httptest.NewServer(http.HandlerFunc(svc.handler))
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "checkpoint.json")

	// One failed save: the immediate retry succeeds and the crawl
	// carries on.
	ckpt := &flakyCheckpointer{
		Manager:  checkpoint.NewManager(cfg.CheckpointPath, 1, 0, discardLogger()),
		failures: 1,
	}
	c := New(cfg, newTestFetcher(t, srv, cfg),
		WithLogger(discardLogger()),
		WithCheckpointManager(ckpt),
	)

	report, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	ckpt.mu.Lock()
	calls := ckpt.saveCalls
	ckpt.mu.Unlock()
	if calls < 2 {
		t.Errorf("Save calls = %d, want the failed attempt plus its retry", calls)
	}

	rec, err := ckpt.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec == nil {
		t.Fatal("no checkpoint written after the retried save")
	}
	if !reflect.DeepEqual(rec.DiscoveredNames, report.Names) {
		t.Errorf("checkpoint names = %v, want %v", rec.DiscoveredNames, report.Names)
	}
}

func TestCrawlerRestoreSkipsExploredPrefixes(t *testing.T) {
	t.Parallel()

	svc := newFakeService([]string{"apple"})
	srv := httptest.NewServer(http.HandlerFunc(svc.handler))
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "checkpoint.json")

	mgr := checkpoint.NewManager(cfg.CheckpointPath, 0, 0, discardLogger())
	rec := &checkpoint.Record{
		DiscoveredNames:  []string{"apple"},
		ExploredPrefixes: []string{"a", "ap"},
		RequestCount:     2,
		PrefixLengthStats: map[int]model.LengthStat{
			1: {Success: 1, Queries: 1},
		},
	}
	if err := mgr.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fetcher := newTestFetcher(t, srv, cfg)
	c := New(cfg, fetcher,
		WithLogger(discardLogger()),
		WithCheckpointManager(mgr),
	)

	resumed, err := c.restore()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !resumed {
		t.Fatal("restore = false, want true")
	}

	if got := c.names.Sorted(); !reflect.DeepEqual(got, []string{"apple"}) {
		t.Errorf("restored names = %v", got)
	}
	if !c.explored.Contains("a") || !c.explored.Contains("ap") {
		t.Error("explored prefixes not restored")
	}
	if got := fetcher.Requests(); got != 2 {
		t.Errorf("restored request count = %d, want 2", got)
	}

	// Explored prefixes must not re-enter the queue.
	if c.frontier.Push("a", 1) {
		t.Error("explored prefix accepted by the frontier after restore")
	}
	// Unexplored extensions of explored prefixes are queued: 26 for "a"
	// (minus the explored "ap") plus 26 for "ap".
	if got, want := c.frontier.Len(), 25+26; got != want {
		t.Errorf("rebuilt frontier size = %d, want %d", got, want)
	}
}
