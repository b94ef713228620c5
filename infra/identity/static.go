// Package identity provides booking identity adapters.
package identity

// Static resolves to a fixed user. An empty UserID means no active
// identity, which sends bookings to the guest bucket.
type Static struct {
	UserID string
}

// CurrentUserID reports the configured user.
func (s Static) CurrentUserID() (string, bool) {
	return s.UserID, s.UserID != ""
}
