package bookings

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/routex/fleetlive/core/model"
)

func record(id string, created time.Time) model.BookingRecord {
	return model.BookingRecord{
		ID:          id,
		Vehicle:     model.Vehicle{ID: "bus-002", FareAmount: 28, ETAMinutes: 18, SeatsAvailable: 3},
		Seats:       2,
		TotalAmount: 56,
		CreatedAt:   created,
		PaymentRef:  "pay_" + id,
	}
}

type store interface {
	Append(userID string, rec model.BookingRecord) error
	List(userID string) ([]model.BookingRecord, error)
}

func runStoreTests(t *testing.T, s store) {
	t.Helper()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.Append("user-1", record(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := s.Append("user-2", record("z", base)); err != nil {
		t.Fatalf("append z: %v", err)
	}

	list, err := s.List("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records got %d", len(list))
	}
	for i, want := range []string{"c", "b", "a"} {
		if list[i].ID != want {
			t.Fatalf("wrong order at %d: got %s want %s", i, list[i].ID, want)
		}
	}
	if list[0].TotalAmount != 56 || list[0].Vehicle.FareAmount != 28 {
		t.Fatalf("record fields lost: %+v", list[0])
	}

	other, err := s.List("user-2")
	if err != nil {
		t.Fatalf("list user-2: %v", err)
	}
	if len(other) != 1 || other[0].ID != "z" {
		t.Fatalf("user isolation broken: %+v", other)
	}

	empty, err := s.List("nobody")
	if err != nil {
		t.Fatalf("list nobody: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list got %d", len(empty))
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()
	runStoreTests(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Append("user-1", record("a", time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()
	list, err := s2.List("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "a" {
		t.Fatalf("records lost across reopen: %+v", list)
	}
}

func TestMemoryStoreListIsACopy(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Append("user-1", record("a", time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	list, _ := s.List("user-1")
	list[0].ID = "mutated"
	again, _ := s.List("user-1")
	if again[0].ID != "a" {
		t.Fatal("List must not alias internal state")
	}
}
