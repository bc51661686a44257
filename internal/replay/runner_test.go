package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"liquidityCore/internal/model"
	"liquidityCore/internal/transfer"
)

type memoryStorage struct {
	mu      sync.Mutex
	events  []model.Event
	batches int
}

func (s *memoryStorage) PutEventBatch(events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	s.batches++
	return nil
}

func writeOps(t *testing.T, dir string, lines string) string {
	t.Helper()
	path := filepath.Join(dir, "ops.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write ops: %v", err)
	}
	return path
}

const testOps = `{"seq":1,"kind":"fund","account":"0x1111111111111111111111111111111111111111","asset":"WETH","amount":"1000"}
{"seq":2,"kind":"fund","account":"0x1111111111111111111111111111111111111111","asset":"USDT","amount":"1000"}
{"seq":3,"kind":"deposit","pair":"WETH/USDT","account":"0x1111111111111111111111111111111111111111","amount_a":"100","amount_b":"200"}
{"seq":4,"kind":"swap_a_for_b","pair":"WETH/USDT","account":"0x1111111111111111111111111111111111111111","amount_in":"10"}
{"seq":5,"kind":"withdraw","pair":"WETH/USDT","account":"0x2222222222222222222222222222222222222222","shares":"10"}
{"seq":6,"kind":"teleport","pair":"WETH/USDT","account":"0x1111111111111111111111111111111111111111"}
{"seq":7,"kind":"withdraw","pair":"WETH/USDT","account":"0x1111111111111111111111111111111111111111","shares":"20"}
`

func newTestRunner(t *testing.T, dir, opsPath string, sink *memoryStorage) *Runner {
	t.Helper()
	return NewRunner(RunConfig{
		OpsPath:           opsPath,
		BatchSize:         3,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
		MaxRetries:        1,
	}, transfer.NewLedger(), sink, nil)
}

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()
	opsPath := writeOps(t, dir, testOps)
	sink := &memoryStorage{}
	runner := newTestRunner(t, dir, opsPath, sink)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// deposit + swap + withdraw succeed; bob's withdraw and the unknown kind fail
	failures := runner.Failures()
	if len(failures) != 2 {
		t.Fatalf("failures %d, want 2: %+v", len(failures), failures)
	}
	if failures[0].Seq != 5 || failures[1].Seq != 6 {
		t.Fatalf("unexpected failure seqs: %+v", failures)
	}

	if len(sink.events) != 3 {
		t.Fatalf("events %d, want 3", len(sink.events))
	}
	wantKinds := []string{model.EventLiquidityAdded, model.EventSwap, model.EventLiquidityRemoved}
	for i, ev := range sink.events {
		if ev.Kind != wantKinds[i] {
			t.Fatalf("event %d kind %s, want %s", i, ev.Kind, wantKinds[i])
		}
	}

	p := runner.Registry().Get("WETH/USDT")
	if p == nil {
		t.Fatalf("pool missing")
	}
	reserveA, reserveB := p.Reserves()
	// deposit (100,200), swap 10 -> (110,182), withdraw 20 of 141 shares
	if reserveA.String() != "95" || reserveB.String() != "157" {
		t.Fatalf("reserves (%s, %s), want (95, 157)", reserveA, reserveB)
	}
	if total := p.TotalShares(); total.String() != "121" {
		t.Fatalf("total shares %s, want 121", total)
	}

	summary := runner.Summaries()["WETH/USDT"]
	if summary == nil || summary.SwapCount != 1 || summary.VolumeA.String() != "10" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	opsPath := writeOps(t, dir, testOps)

	first := &memoryStorage{}
	if err := newTestRunner(t, dir, opsPath, first).Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Same ops, same checkpoint: nothing new is stored, but the pool is
	// rebuilt to the state the first run left behind.
	second := &memoryStorage{}
	runner := newTestRunner(t, dir, opsPath, second)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.events) != 0 {
		t.Fatalf("replayed %d events after checkpoint", len(second.events))
	}
	p := runner.Registry().Get("WETH/USDT")
	if p == nil {
		t.Fatalf("pool not rebuilt from applied ops")
	}
	reserveA, reserveB := p.Reserves()
	if reserveA.String() != "95" || reserveB.String() != "157" {
		t.Fatalf("rebuilt reserves (%s, %s), want (95, 157)", reserveA, reserveB)
	}
	if total := p.TotalShares(); total.String() != "121" {
		t.Fatalf("rebuilt total shares %s, want 121", total)
	}
}

// failingStorage accepts a fixed number of batches and then refuses.
type failingStorage struct {
	memoryStorage
	accept int
}

func (s *failingStorage) PutEventBatch(events []model.Event) error {
	s.mu.Lock()
	full := s.batches >= s.accept
	s.mu.Unlock()
	if full {
		return errors.New("storage unavailable")
	}
	return s.memoryStorage.PutEventBatch(events)
}

func TestRunnerResumesAfterInterruption(t *testing.T) {
	dir := t.TempDir()
	opsPath := writeOps(t, dir, testOps)

	// First batch lands, second exhausts its retries and aborts the run.
	broken := &failingStorage{accept: 1}
	interrupted := NewRunner(RunConfig{
		OpsPath:           opsPath,
		BatchSize:         3,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
	}, transfer.NewLedger(), broken, nil)
	if err := interrupted.Run(context.Background()); err == nil {
		t.Fatalf("expected storage error")
	}
	if len(broken.events) != 1 {
		t.Fatalf("stored %d events before the abort, want 1", len(broken.events))
	}

	// The rerun replays seq 4..7 against rebuilt state, not an empty world.
	sink := &memoryStorage{}
	runner := newTestRunner(t, dir, opsPath, sink)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("resumed run: %v", err)
	}

	failures := runner.Failures()
	if len(failures) != 2 {
		t.Fatalf("failures %d, want 2: %+v", len(failures), failures)
	}
	if failures[0].Seq != 5 || failures[1].Seq != 6 {
		t.Fatalf("unexpected failure seqs: %+v", failures)
	}

	// Only the post-checkpoint events go to storage, so the two runs
	// together store each event exactly once.
	wantKinds := []string{model.EventSwap, model.EventLiquidityRemoved}
	if len(sink.events) != len(wantKinds) {
		t.Fatalf("events %d, want %d", len(sink.events), len(wantKinds))
	}
	for i, ev := range sink.events {
		if ev.Kind != wantKinds[i] {
			t.Fatalf("event %d kind %s, want %s", i, ev.Kind, wantKinds[i])
		}
	}

	p := runner.Registry().Get("WETH/USDT")
	if p == nil {
		t.Fatalf("pool missing")
	}
	reserveA, reserveB := p.Reserves()
	if reserveA.String() != "95" || reserveB.String() != "157" {
		t.Fatalf("reserves (%s, %s), want (95, 157)", reserveA, reserveB)
	}
	if total := p.TotalShares(); total.String() != "121" {
		t.Fatalf("total shares %s, want 121", total)
	}
	if summary := runner.Summaries()["WETH/USDT"]; summary == nil || summary.SwapCount != 1 || summary.DepositCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunnerValidation(t *testing.T) {
	dir := t.TempDir()
	opsPath := writeOps(t, dir, testOps)

	runner := NewRunner(RunConfig{OpsPath: opsPath, BatchSize: 0}, transfer.NewLedger(), &memoryStorage{}, nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error for zero batch size")
	}

	runner = NewRunner(RunConfig{OpsPath: opsPath, BatchSize: 1}, transfer.NewLedger(), nil, nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error for nil storage")
	}

	runner = NewRunner(RunConfig{OpsPath: filepath.Join(dir, "missing.jsonl"), BatchSize: 1}, transfer.NewLedger(), &memoryStorage{}, nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing ops file")
	}
}
