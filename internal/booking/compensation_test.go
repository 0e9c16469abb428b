package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/danpilch/railpal/internal/api/railway"
)

type releaseRecorder struct {
	mu    sync.Mutex
	calls map[railway.ID]int
	fail  map[railway.ID]error
}

func (r *releaseRecorder) release(_ context.Context, id railway.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[railway.ID]int{}
	}
	r.calls[id]++
	return r.fail[id]
}

// rendezvous holds every caller until n callers have arrived, so a test can
// tell concurrent calls from sequential ones. A caller that waits longer than
// the limit is counted as stranded and let through.
type rendezvous struct {
	n     int
	limit time.Duration

	mu       sync.Mutex
	arrived  int
	stranded int
	all      chan struct{}
}

func newRendezvous(n int) *rendezvous {
	return &rendezvous{n: n, limit: 2 * time.Second, all: make(chan struct{})}
}

func (r *rendezvous) wait() {
	r.mu.Lock()
	r.arrived++
	if r.arrived == r.n {
		close(r.all)
	}
	r.mu.Unlock()

	select {
	case <-r.all:
	case <-time.After(r.limit):
		r.mu.Lock()
		r.stranded++
		r.mu.Unlock()
	}
}

func (r *rendezvous) check(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.arrived != r.n {
		t.Fatalf("expected %d calls, got %d", r.n, r.arrived)
	}
	if r.stranded != 0 {
		t.Fatalf("%d of %d calls waited alone; expected all %d in flight together", r.stranded, r.n, r.n)
	}
}

func TestRollbackWithNothingReservedIsNoOp(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rec := &releaseRecorder{}
	comp := NewCompensator(rec.release, logger)

	if report := comp.Rollback(context.Background()); report != nil {
		t.Fatalf("expected nil report, got %v", report)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("expected no release calls, got %v", rec.calls)
	}
}

func TestRollbackReleasesEveryTicketOnce(t *testing.T) {
	logger, hook := test.NewNullLogger()
	bad := railway.NumberID("2")
	rec := &releaseRecorder{fail: map[railway.ID]error{bad: errors.New("boom")}}
	comp := NewCompensator(rec.release, logger)

	ids := []railway.ID{railway.NumberID("1"), bad, railway.NumberID("3")}
	for _, id := range ids {
		comp.Record(id)
	}

	report := comp.Rollback(context.Background())
	if len(report) != 3 {
		t.Fatalf("expected 3 outcomes, got %v", report)
	}
	for i, id := range ids {
		if report[i].TicketID != id {
			t.Fatalf("outcome %d: expected ticket %v, got %v", i, id, report[i].TicketID)
		}
		if rec.calls[id] != 1 {
			t.Fatalf("ticket %v: expected 1 release call, got %d", id, rec.calls[id])
		}
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].TicketID != bad {
		t.Fatalf("expected only ticket 2 to fail, got %v", failed)
	}

	var errorLines int
	for _, e := range hook.AllEntries() {
		if e.Message == "failed to release seat" {
			errorLines++
		}
	}
	if errorLines != 1 {
		t.Fatalf("expected 1 failure log line, got %d", errorLines)
	}
}

func TestRollbackRunsOnce(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rec := &releaseRecorder{}
	comp := NewCompensator(rec.release, logger)
	comp.Record(railway.NumberID("1"))

	comp.Rollback(context.Background())
	if report := comp.Rollback(context.Background()); report != nil {
		t.Fatalf("expected second rollback to be a no-op, got %v", report)
	}
	if rec.calls[railway.NumberID("1")] != 1 {
		t.Fatalf("expected a single release, got %d", rec.calls[railway.NumberID("1")])
	}
}

func TestReservedReturnsCopy(t *testing.T) {
	logger, _ := test.NewNullLogger()
	comp := NewCompensator(nil, logger)
	comp.Record(railway.NumberID("1"))

	ids := comp.Reserved()
	ids[0] = railway.NumberID("99")
	if comp.Reserved()[0] != railway.NumberID("1") {
		t.Fatal("Reserved must not expose internal state")
	}
}

func TestRollbackReleasesConcurrently(t *testing.T) {
	logger, _ := test.NewNullLogger()
	const n = 4
	gate := newRendezvous(n)
	rec := &releaseRecorder{}
	comp := NewCompensator(func(ctx context.Context, id railway.ID) error {
		gate.wait()
		return rec.release(ctx, id)
	}, logger)
	for i := 1; i <= n; i++ {
		comp.Record(railway.NumberID(fmt.Sprint(i)))
	}

	report := comp.Rollback(context.Background())
	gate.check(t)
	if len(report) != n || len(report.Failed()) != 0 {
		t.Fatalf("expected %d clean releases, got %v", n, report)
	}
}
