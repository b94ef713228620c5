package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/routex/fleetlive/core/logger"
	"github.com/routex/fleetlive/core/metrics"
	"github.com/routex/fleetlive/core/model"
	"github.com/routex/fleetlive/core/selection"
)

var (
	// ErrInvalidInput is returned when rider fields are missing or out of
	// range. The transaction stays in Draft with no side effect.
	ErrInvalidInput = errors.New("booking: invalid rider input")
	// ErrPaymentFailed is returned when the payment collaborator declines
	// or errors. The transaction is Failed; the selection is preserved so
	// the rider can retry with a fresh draft.
	ErrPaymentFailed = errors.New("booking: payment failed")
	// ErrPersistence is returned when the record could not be appended
	// after a successful charge. The transaction must not report
	// Confirmed: payment and persistence are two separate commit points.
	ErrPersistence = errors.New("booking: persisting record failed")
	// ErrNotDraft is returned when Confirm is called on a transaction
	// that already left Draft. Terminal transactions need a new draft.
	ErrNotDraft = errors.New("booking: transaction is not in draft state")
)

// State is the lifecycle position of a transaction.
type State string

const (
	StateDraft           State = "draft"
	StateAwaitingPayment State = "awaiting_payment"
	StateConfirmed       State = "confirmed"
	StateFailed          State = "failed"
)

// RiderInput is what the rider types into the booking form.
type RiderInput struct {
	Name  string `validate:"required"`
	Phone string `validate:"required,numeric,min=7,max=15"`
	Seats int    `validate:"min=1,max=10"`
}

// Transaction is a single booking attempt. It freezes the vehicle from
// the selection it was drafted from, so the amount due never shifts under
// the rider even while the live fleet keeps ticking.
type Transaction struct {
	state   State
	vehicle model.Vehicle
	input   RiderInput
	total   float64
	record  *model.BookingRecord
}

// State returns the transaction's lifecycle position.
func (t *Transaction) State() State { return t.state }

// TotalAmount is seats times the fare captured at draft time.
func (t *Transaction) TotalAmount() float64 { return t.total }

// Record returns the persisted record once the transaction is Confirmed.
func (t *Transaction) Record() (model.BookingRecord, bool) {
	if t.record == nil {
		return model.BookingRecord{}, false
	}
	return *t.record, true
}

// Service runs booking transactions against the external collaborators.
type Service struct {
	identity Identity
	payments Payments
	store    Bookings
	notifier Notifier
	sink     metrics.Sink
	log      logger.Logger
	validate *validator.Validate

	now   func() time.Time
	newID func() string
}

// NewService wires a booking service. identity and notifier may be nil;
// payments and store are mandatory.
func NewService(identity Identity, payments Payments, store Bookings, notifier Notifier, sink metrics.Sink, log logger.Logger) (*Service, error) {
	if payments == nil || store == nil {
		return nil, fmt.Errorf("booking: nil payments or store collaborator")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Service{
		identity: identity,
		payments: payments,
		store:    store,
		notifier: notifier,
		sink:     sink,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}, nil
}

// NewDraft builds a Draft transaction from the selection and rider input.
// Validation failures surface immediately as ErrInvalidInput with no side
// effect.
func (s *Service) NewDraft(sel selection.Selection, in RiderInput) (*Transaction, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &Transaction{
		state:   StateDraft,
		vehicle: sel.Vehicle,
		input:   in,
		total:   float64(in.Seats) * sel.Vehicle.FareAmount,
	}, nil
}

// Confirm drives the draft through payment and persistence. On success
// the transaction is Confirmed and exactly one record has been appended
// under the active user id, or the guest bucket. On any failure the
// transaction is Failed, an error notification is raised, and the rider's
// selection is left for the caller to retry from.
func (s *Service) Confirm(ctx context.Context, tx *Transaction) (model.BookingRecord, error) {
	if tx.state != StateDraft {
		return model.BookingRecord{}, ErrNotDraft
	}
	tx.state = StateAwaitingPayment

	receipt, err := s.payments.Charge(ctx, tx.total)
	if err != nil || !receipt.OK {
		tx.state = StateFailed
		s.notifier.Notify(NotifyError, "Payment failed")
		s.recordOutcome(tx, false)
		if err != nil {
			return model.BookingRecord{}, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
		return model.BookingRecord{}, ErrPaymentFailed
	}

	userID := GuestUserID
	if s.identity != nil {
		if id, ok := s.identity.CurrentUserID(); ok {
			userID = id
		}
	}
	rec := model.BookingRecord{
		ID:          s.newID(),
		Vehicle:     tx.vehicle,
		Seats:       tx.input.Seats,
		TotalAmount: tx.total,
		CreatedAt:   s.now(),
		PaymentRef:  receipt.Reference,
	}
	// the charge succeeded but the booking is not recorded yet; only a
	// successful append may surface as "booked" to the rider
	if err := s.store.Append(userID, rec); err != nil {
		tx.state = StateFailed
		s.notifier.Notify(NotifyError, "Booking could not be saved, please retry")
		s.recordOutcome(tx, false)
		if s.log != nil {
			s.log.Errorf("append booking %s for %s: %v", rec.ID, userID, err)
		}
		return model.BookingRecord{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	tx.state = StateConfirmed
	tx.record = &rec
	s.notifier.Notify(NotifySuccess, fmt.Sprintf("Booked %d seat(s) for %.0f", rec.Seats, rec.TotalAmount))
	s.recordOutcome(tx, true)
	if s.log != nil {
		s.log.Infof("booking %s confirmed for %s, ref %s", rec.ID, userID, rec.PaymentRef)
	}
	return rec, nil
}

// Bookings lists the user's records, newest first.
func (s *Service) Bookings(userID string) ([]model.BookingRecord, error) {
	return s.store.List(userID)
}

func (s *Service) recordOutcome(tx *Transaction, confirmed bool) {
	userID := GuestUserID
	if s.identity != nil {
		if id, ok := s.identity.CurrentUserID(); ok {
			userID = id
		}
	}
	ev := metrics.BookingEvent{
		UserID:      userID,
		VehicleID:   tx.vehicle.ID,
		Seats:       tx.input.Seats,
		TotalAmount: tx.total,
		Confirmed:   confirmed,
		Time:        s.now(),
	}
	if err := s.sink.RecordBooking(ev); err != nil && s.log != nil {
		s.log.Warnf("record booking: %v", err)
	}
}
