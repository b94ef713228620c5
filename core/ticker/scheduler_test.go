package ticker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/routex/fleetlive/core/model"
)

type fakeFleet struct {
	mu    sync.Mutex
	ticks uint64
}

func (f *fakeFleet) ApplyTick(step func(model.Vehicle) model.Vehicle) model.FleetSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	v := step(model.Vehicle{ID: "bus-001", ETAMinutes: 5})
	return model.FleetSnapshot{Locality: "Kanpur", Tick: f.ticks, Vehicles: []model.Vehicle{v}}
}

func (f *fakeFleet) count() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks
}

type chanPublisher struct {
	ch chan model.FleetSnapshot
}

func (p *chanPublisher) Publish(s model.FleetSnapshot) {
	select {
	case p.ch <- s:
	default:
	}
}

func identity(v model.Vehicle) model.Vehicle { return v }

func TestSchedulerTicksAndPublishes(t *testing.T) {
	fleet := &fakeFleet{}
	pub := &chanPublisher{ch: make(chan model.FleetSnapshot, 16)}
	s := New(fleet, pub, nil, nil)
	if err := s.Start(5*time.Millisecond, identity); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	var last uint64
	for i := 0; i < 3; i++ {
		select {
		case snap := <-pub.ch:
			if snap.Tick <= last {
				t.Fatalf("snapshots out of order: %d after %d", snap.Tick, last)
			}
			last = snap.Tick
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}
}

func TestSchedulerStartTwice(t *testing.T) {
	fleet := &fakeFleet{}
	pub := &chanPublisher{ch: make(chan model.FleetSnapshot, 1)}
	s := New(fleet, pub, nil, nil)
	if err := s.Start(time.Minute, identity); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	if err := s.Start(time.Minute, identity); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning got %v", err)
	}
}

func TestSchedulerStopHaltsTicks(t *testing.T) {
	fleet := &fakeFleet{}
	pub := &chanPublisher{ch: make(chan model.FleetSnapshot, 64)}
	s := New(fleet, pub, nil, nil)
	if err := s.Start(2*time.Millisecond, identity); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-pub.ch:
	case <-time.After(time.Second):
		t.Fatal("no tick before stop")
	}
	s.Stop()
	after := fleet.count()
	time.Sleep(20 * time.Millisecond)
	if got := fleet.count(); got != after {
		t.Fatalf("fleet ticked after Stop returned: %d -> %d", after, got)
	}
	if s.Running() {
		t.Fatal("scheduler still reports running")
	}
}

func TestSchedulerStopIdleIsNoop(t *testing.T) {
	s := New(&fakeFleet{}, &chanPublisher{ch: make(chan model.FleetSnapshot, 1)}, nil, nil)
	s.Stop()
	s.Stop()
}

func TestSchedulerRestartAgainstNewFleet(t *testing.T) {
	old := &fakeFleet{}
	pub := &chanPublisher{ch: make(chan model.FleetSnapshot, 64)}
	s := New(old, pub, nil, nil)
	if err := s.Start(2*time.Millisecond, identity); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-pub.ch:
	case <-time.After(time.Second):
		t.Fatal("no tick from old fleet")
	}
	s.Stop()
	oldTicks := old.count()

	fresh := &fakeFleet{}
	s2 := New(fresh, pub, nil, nil)
	if err := s2.Start(2*time.Millisecond, identity); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer s2.Stop()
	deadline := time.After(time.Second)
	for fresh.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("new fleet never ticked")
		case <-time.After(time.Millisecond):
		}
	}
	if old.count() != oldTicks {
		t.Fatalf("old fleet ticked after switch: %d -> %d", oldTicks, old.count())
	}
}

func TestSchedulerStepAppliedPerVehicle(t *testing.T) {
	fleet := &fakeFleet{}
	pub := &chanPublisher{ch: make(chan model.FleetSnapshot, 16)}
	s := New(fleet, pub, nil, nil)
	var stepped atomic.Int64
	step := func(v model.Vehicle) model.Vehicle {
		stepped.Add(1)
		v.ETAMinutes++
		return v
	}
	if err := s.Start(2*time.Millisecond, step); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	select {
	case snap := <-pub.ch:
		if snap.Vehicles[0].ETAMinutes != 6 {
			t.Fatalf("step not applied, eta %d", snap.Vehicles[0].ETAMinutes)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	if stepped.Load() == 0 {
		t.Fatal("step never invoked")
	}
}
