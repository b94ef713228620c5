package booking

import (
	"context"

	"github.com/routex/fleetlive/core/model"
)

// Identity supplies the active user, if any. Riders without an identity
// book into the "guest" bucket.
type Identity interface {
	CurrentUserID() (string, bool)
}

// GuestUserID owns bookings made without an active identity.
const GuestUserID = "guest"

// Receipt is the payment collaborator's answer to a charge.
type Receipt struct {
	OK        bool
	Reference string
}

// Payments is the external payment collaborator. The engine treats it as
// opaque and never retries on its behalf; timeout policy belongs to the
// implementation and the caller's context.
type Payments interface {
	Charge(ctx context.Context, amount float64) (Receipt, error)
}

// Bookings is the external persistence collaborator: an append-only,
// per-user list of records, newest first.
type Bookings interface {
	Append(userID string, rec model.BookingRecord) error
	List(userID string) ([]model.BookingRecord, error)
}

// NotifyKind classifies a user-facing notification.
type NotifyKind string

const (
	NotifyInfo    NotifyKind = "info"
	NotifySuccess NotifyKind = "success"
	NotifyError   NotifyKind = "error"
)

// Notifier raises user-visible feedback. Implementations must be
// fire-and-forget and never block the engine.
type Notifier interface {
	Notify(kind NotifyKind, message string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(NotifyKind, string) {}
