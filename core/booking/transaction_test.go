package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/routex/fleetlive/core/model"
	"github.com/routex/fleetlive/core/selection"
)

type fakePayments struct {
	receipt Receipt
	err     error
	charged []float64
}

func (p *fakePayments) Charge(_ context.Context, amount float64) (Receipt, error) {
	p.charged = append(p.charged, amount)
	return p.receipt, p.err
}

type fakeBookings struct {
	byUser map[string][]model.BookingRecord
	err    error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byUser: map[string][]model.BookingRecord{}}
}

func (b *fakeBookings) Append(userID string, rec model.BookingRecord) error {
	if b.err != nil {
		return b.err
	}
	b.byUser[userID] = append([]model.BookingRecord{rec}, b.byUser[userID]...)
	return nil
}

func (b *fakeBookings) List(userID string) ([]model.BookingRecord, error) {
	return b.byUser[userID], nil
}

type recordingNotifier struct {
	kinds    []NotifyKind
	messages []string
}

func (n *recordingNotifier) Notify(kind NotifyKind, msg string) {
	n.kinds = append(n.kinds, kind)
	n.messages = append(n.messages, msg)
}

type staticIdentity struct{ id string }

func (i staticIdentity) CurrentUserID() (string, bool) { return i.id, i.id != "" }

func testSelection() selection.Selection {
	return selection.Selection{
		Vehicle: model.Vehicle{
			ID: "bus-002", DriverName: "Anita Devi",
			Route:      model.Route{Origin: "Kanpur", Destination: "Unnao"},
			ETAMinutes: 18, FareAmount: 28, SeatsAvailable: 3,
		},
		OpenedAt: time.Now(),
	}
}

func validInput() RiderInput {
	return RiderInput{Name: "Ravi", Phone: "9876543210", Seats: 2}
}

func newTestService(t *testing.T, pay *fakePayments, store *fakeBookings, id Identity, n Notifier) *Service {
	t.Helper()
	svc, err := NewService(id, pay, store, n, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewDraftValidation(t *testing.T) {
	svc := newTestService(t, &fakePayments{}, newFakeBookings(), nil, nil)
	cases := []RiderInput{
		{Name: "", Phone: "9876543210", Seats: 2},
		{Name: "Ravi", Phone: "", Seats: 2},
		{Name: "Ravi", Phone: "not-a-number", Seats: 2},
		{Name: "Ravi", Phone: "9876543210", Seats: 0},
		{Name: "Ravi", Phone: "9876543210", Seats: 11},
	}
	for i, in := range cases {
		if _, err := svc.NewDraft(testSelection(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput got %v", i, err)
		}
	}
}

func TestNewDraftFreezesAmount(t *testing.T) {
	svc := newTestService(t, &fakePayments{}, newFakeBookings(), nil, nil)
	tx, err := svc.NewDraft(testSelection(), validInput())
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if tx.State() != StateDraft {
		t.Fatalf("expected draft state got %s", tx.State())
	}
	if tx.TotalAmount() != 56 {
		t.Fatalf("expected total 56 got %v", tx.TotalAmount())
	}
}

func TestConfirmSuccess(t *testing.T) {
	pay := &fakePayments{receipt: Receipt{OK: true, Reference: "pay_test1"}}
	store := newFakeBookings()
	notes := &recordingNotifier{}
	svc := newTestService(t, pay, store, staticIdentity{id: "user-42"}, notes)

	tx, err := svc.NewDraft(testSelection(), validInput())
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	rec, err := svc.Confirm(context.Background(), tx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if tx.State() != StateConfirmed {
		t.Fatalf("expected confirmed got %s", tx.State())
	}
	if rec.TotalAmount != 56 || rec.Seats != 2 || rec.PaymentRef != "pay_test1" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(pay.charged) != 1 || pay.charged[0] != 56 {
		t.Fatalf("expected one charge of 56 got %v", pay.charged)
	}
	list, _ := store.List("user-42")
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("expected exactly one persisted record, got %d", len(list))
	}
	if len(notes.kinds) != 1 || notes.kinds[0] != NotifySuccess {
		t.Fatalf("expected one success notification got %v", notes.kinds)
	}
}

func TestConfirmAmountFromDraftNotLiveVehicle(t *testing.T) {
	pay := &fakePayments{receipt: Receipt{OK: true, Reference: "pay_x"}}
	store := newFakeBookings()
	svc := newTestService(t, pay, store, nil, nil)

	sel := testSelection()
	tx, err := svc.NewDraft(sel, validInput())
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	// the live fleet keeps ticking after the draft; the booked terms
	// must not move
	sel.Vehicle.FareAmount = 999
	sel.Vehicle.SeatsAvailable = 0

	rec, err := svc.Confirm(context.Background(), tx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if rec.TotalAmount != 56 || rec.Vehicle.FareAmount != 28 || rec.Vehicle.SeatsAvailable != 3 {
		t.Fatalf("record leaked post-draft state: %+v", rec)
	}
}

func TestConfirmPaymentDeclined(t *testing.T) {
	pay := &fakePayments{receipt: Receipt{OK: false}}
	store := newFakeBookings()
	notes := &recordingNotifier{}
	svc := newTestService(t, pay, store, staticIdentity{id: "user-42"}, notes)

	tx, _ := svc.NewDraft(testSelection(), validInput())
	if _, err := svc.Confirm(context.Background(), tx); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed got %v", err)
	}
	if tx.State() != StateFailed {
		t.Fatalf("expected failed got %s", tx.State())
	}
	if list, _ := store.List("user-42"); len(list) != 0 {
		t.Fatalf("declined payment must persist nothing, got %d", len(list))
	}
	if len(notes.kinds) != 1 || notes.kinds[0] != NotifyError {
		t.Fatalf("expected one error notification got %v", notes.kinds)
	}
}

func TestConfirmPaymentError(t *testing.T) {
	pay := &fakePayments{err: fmt.Errorf("gateway unreachable")}
	svc := newTestService(t, pay, newFakeBookings(), nil, nil)
	tx, _ := svc.NewDraft(testSelection(), validInput())
	if _, err := svc.Confirm(context.Background(), tx); !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed got %v", err)
	}
}

func TestConfirmPersistenceFailure(t *testing.T) {
	pay := &fakePayments{receipt: Receipt{OK: true, Reference: "pay_y"}}
	store := newFakeBookings()
	store.err = fmt.Errorf("disk full")
	notes := &recordingNotifier{}
	svc := newTestService(t, pay, store, nil, notes)

	tx, _ := svc.NewDraft(testSelection(), validInput())
	_, err := svc.Confirm(context.Background(), tx)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence got %v", err)
	}
	if tx.State() != StateFailed {
		t.Fatalf("payment success with failed append must not confirm, state %s", tx.State())
	}
	for _, k := range notes.kinds {
		if k == NotifySuccess {
			t.Fatal("success notification raised despite persistence failure")
		}
	}
}

func TestConfirmTerminalStatesRejectRetry(t *testing.T) {
	pay := &fakePayments{receipt: Receipt{OK: true, Reference: "pay_z"}}
	svc := newTestService(t, pay, newFakeBookings(), nil, nil)
	tx, _ := svc.NewDraft(testSelection(), validInput())
	if _, err := svc.Confirm(context.Background(), tx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), tx); !errors.Is(err, ErrNotDraft) {
		t.Fatalf("expected ErrNotDraft got %v", err)
	}
}

func TestConfirmGuestBucket(t *testing.T) {
	pay := &fakePayments{receipt: Receipt{OK: true, Reference: "pay_g"}}
	store := newFakeBookings()
	svc := newTestService(t, pay, store, staticIdentity{}, nil)
	tx, _ := svc.NewDraft(testSelection(), validInput())
	if _, err := svc.Confirm(context.Background(), tx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if list, _ := store.List(GuestUserID); len(list) != 1 {
		t.Fatalf("expected guest booking, got %d", len(list))
	}
}
