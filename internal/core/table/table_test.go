package table

import (
	"net/netip"
	"testing"
	"time"

	"github.com/meshring/swim/internal/core/scheduler"
	"github.com/meshring/swim/internal/domain"
)

type fakeSink struct {
	events []domain.Event
}

func (f *fakeSink) Push(e domain.Event) { f.events = append(f.events, e) }

func node(t *testing.T, s string) domain.Node {
	t.Helper()
	n, err := netip.ParseAddrPort(s)
	if err != nil {
		t.Fatalf("ParseAddrPort(%q): %v", s, err)
	}
	return n
}

func newTestTable(t *testing.T, local domain.Node, suspectTimeout time.Duration) (*Table, *fakeSink, *scheduler.Manual) {
	t.Helper()
	sink := &fakeSink{}
	sched := scheduler.NewManual()
	tbl := New(Config{
		Local:          local,
		SuspectTimeout: suspectTimeout,
		Scheduler:      sched,
		Sink:           sink,
	}, nil)
	t.Cleanup(tbl.Stop)
	return tbl, sink, sched
}

// drain blocks until every closure posted so far has run, by
// round-tripping a request-reply call (Members is cheap and side-effect
// free for this purpose).
func drain(tbl *Table) { tbl.Members() }

func TestUpdateInsertsNewAliveNode(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	b := node(t, "10.0.0.2:7946")
	tbl, sink, _ := newTestTable(t, local, time.Second)

	tbl.Update(b, domain.Status{Kind: domain.Alive, Incarnation: 0})
	drain(tbl)

	members := tbl.Members()
	if len(members) != 1 || members[0].Node != b {
		t.Fatalf("Members() = %+v, want [{%v 0}]", members, b)
	}
	if len(sink.events) != 1 || sink.events[0].Node != b || sink.events[0].Status.Kind != domain.Alive {
		t.Fatalf("sink.events = %+v, want one Alive(%v) event", sink.events, b)
	}
}

func TestUpdateDeadWithNoPriorRecordIsIgnored(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	b := node(t, "10.0.0.2:7946")
	tbl, sink, _ := newTestTable(t, local, time.Second)

	tbl.Update(b, domain.Status{Kind: domain.Dead, Incarnation: 5})
	drain(tbl)

	if tbl.Length() != 0 {
		t.Fatalf("Length() = %d, want 0 (Dead with no prior record must be ignored)", tbl.Length())
	}
	if len(sink.events) != 0 {
		t.Fatalf("sink.events = %+v, want none", sink.events)
	}
}

func TestStaleClaimIsIdempotentAndDropped(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	b := node(t, "10.0.0.2:7946")
	tbl, sink, _ := newTestTable(t, local, time.Second)

	tbl.Update(b, domain.Status{Kind: domain.Alive, Incarnation: 5})
	drain(tbl)
	before := len(sink.events)

	// Same claim applied twice more: no new events, no state change.
	tbl.Update(b, domain.Status{Kind: domain.Alive, Incarnation: 5})
	tbl.Update(b, domain.Status{Kind: domain.Alive, Incarnation: 5})
	drain(tbl)

	if len(sink.events) != before {
		t.Fatalf("stale claim produced %d new events, want 0", len(sink.events)-before)
	}
	members := tbl.Members()
	if len(members) != 1 || members[0].Incarnation != 5 {
		t.Fatalf("Members() = %+v, want incarnation still 5", members)
	}
}

func TestSuspectTimeoutEscalatesToDead(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	b := node(t, "10.0.0.2:7946")
	tbl, sink, sched := newTestTable(t, local, 10*time.Second)

	tbl.Update(b, domain.Status{Kind: domain.Suspect, Incarnation: 1})
	drain(tbl)

	sched.Advance(9 * time.Second)
	drain(tbl)
	members := tbl.Members()
	if members[0].Incarnation != 1 {
		t.Fatalf("member advanced before SuspectTimeout elapsed: %+v", members)
	}

	sched.Advance(2 * time.Second) // crosses the 10s mark
	drain(tbl)

	members = tbl.Members()
	if len(members) != 1 {
		t.Fatalf("Members() = %+v, want exactly one (Dead) entry retained as tombstone", members)
	}

	var sawDead bool
	for _, e := range sink.events {
		if e.Node == b && e.Status.Kind == domain.Dead {
			sawDead = true
		}
	}
	if !sawDead {
		t.Fatalf("sink.events = %+v, want a Dead event after SuspectTimeout", sink.events)
	}
}

// §8 scenario 5: a valid refutation before the suspect timer fires makes
// the stale Dead claim a no-op.
func TestSuspectTimerStaleAfterRefutation(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	b := node(t, "10.0.0.2:7946")
	tbl, sink, sched := newTestTable(t, local, 10*time.Second)

	tbl.Update(b, domain.Status{Kind: domain.Suspect, Incarnation: 3})
	drain(tbl)

	sched.Advance(5 * time.Second)
	tbl.Update(b, domain.Status{Kind: domain.Alive, Incarnation: 4})
	drain(tbl)
	beforeTimerFires := len(sink.events)

	sched.Advance(5 * time.Second) // crosses the original 10s deadline
	drain(tbl)

	members := tbl.Members()
	if len(members) != 1 || members[0].Incarnation != 4 {
		t.Fatalf("Members() = %+v, want Alive(4) preserved, the stale Dead(3) timer fire must be dropped", members)
	}
	if len(sink.events) != beforeTimerFires {
		t.Fatalf("stale suspect-timer fire pushed %d extra events, want 0", len(sink.events)-beforeTimerFires)
	}
}

func TestDeadOverridesSuspectAtEqualIncarnation(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	b := node(t, "10.0.0.2:7946")
	tbl, sink, _ := newTestTable(t, local, time.Minute)

	tbl.Update(b, domain.Status{Kind: domain.Suspect, Incarnation: 7})
	drain(tbl)
	tbl.Update(b, domain.Status{Kind: domain.Dead, Incarnation: 7})
	drain(tbl)

	members := tbl.Members()
	if len(members) != 1 || members[0].Incarnation != 7 {
		t.Fatalf("Members() = %+v, want Dead(7)", members)
	}
	var deadEvents int
	for _, e := range sink.events {
		if e.Status.Kind == domain.Dead {
			deadEvents++
		}
	}
	if deadEvents != 1 {
		t.Fatalf("saw %d Dead events, want exactly 1", deadEvents)
	}
}

func TestSelfRefutationAdvancesIncarnationAndNeverStoresSelf(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	tbl, sink, _ := newTestTable(t, local, time.Minute)

	tbl.Update(local, domain.Status{Kind: domain.Suspect, Incarnation: 0})
	drain(tbl)

	gotLocal, inc := tbl.Local()
	if gotLocal != local {
		t.Fatalf("Local() node = %v, want %v", gotLocal, local)
	}
	if inc != 1 {
		t.Fatalf("currentIncarnation = %d, want 1", inc)
	}

	for _, m := range tbl.Members() {
		if m.Node == local {
			t.Fatalf("local node must never appear in its own table: %+v", m)
		}
	}

	var sawSelfAlive bool
	for _, e := range sink.events {
		if e.Node == local && e.Status.Kind == domain.Alive && e.Status.Incarnation == 1 {
			sawSelfAlive = true
		}
	}
	if !sawSelfAlive {
		t.Fatalf("sink.events = %+v, want Alive(1) published for self", sink.events)
	}
}

func TestSelfAliveClaimIsIgnored(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	tbl, sink, _ := newTestTable(t, local, time.Minute)

	tbl.Update(local, domain.Status{Kind: domain.Alive, Incarnation: 99})
	drain(tbl)

	_, inc := tbl.Local()
	if inc != 0 {
		t.Fatalf("currentIncarnation = %d, want unchanged 0", inc)
	}
	if len(sink.events) != 0 {
		t.Fatalf("sink.events = %+v, want none", sink.events)
	}
}

func TestMembersIsPureBetweenCalls(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	b := node(t, "10.0.0.2:7946")
	tbl, _, _ := newTestTable(t, local, time.Minute)

	tbl.Update(b, domain.Status{Kind: domain.Alive, Incarnation: 1})
	drain(tbl)

	first := tbl.Members()
	second := tbl.Members()
	if len(first) != len(second) || first[0] != second[0] {
		t.Fatalf("back-to-back Members() calls differ: %+v vs %+v", first, second)
	}
}

func TestSeedsInstalledAsAliveZero(t *testing.T) {
	local := node(t, "10.0.0.1:7946")
	b := node(t, "10.0.0.2:7946")
	c := node(t, "10.0.0.3:7946")

	sink := &fakeSink{}
	sched := scheduler.NewManual()
	tbl := New(Config{
		Local:          local,
		SuspectTimeout: time.Minute,
		Scheduler:      sched,
		Sink:           sink,
	}, []domain.Node{b, c})
	t.Cleanup(tbl.Stop)
	drain(tbl)

	if tbl.Length() != 2 {
		t.Fatalf("Length() = %d, want 2 seed peers", tbl.Length())
	}
}
