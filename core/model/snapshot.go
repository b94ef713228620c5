package model

// FleetSnapshot is an immutable point-in-time view of a fleet, ordered by
// generation index. Producers hand out copies; consumers must not mutate
// a received snapshot.
type FleetSnapshot struct {
	Locality string    `json:"locality"`
	Tick     uint64    `json:"tick"`
	Vehicles []Vehicle `json:"vehicles"`
}

// Clone returns a deep copy of the snapshot.
func (s FleetSnapshot) Clone() FleetSnapshot {
	out := s
	out.Vehicles = make([]Vehicle, len(s.Vehicles))
	copy(out.Vehicles, s.Vehicles)
	return out
}

// Validate checks every vehicle invariant plus snapshot-level id
// uniqueness.
func (s FleetSnapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Vehicles))
	for _, v := range s.Vehicles {
		if err := v.Validate(); err != nil {
			return err
		}
		if _, dup := seen[v.ID]; dup {
			return &DuplicateIDError{ID: v.ID}
		}
		seen[v.ID] = struct{}{}
	}
	return nil
}

// DuplicateIDError reports a snapshot containing the same vehicle id twice.
type DuplicateIDError struct{ ID string }

func (e *DuplicateIDError) Error() string {
	return "duplicate vehicle id " + e.ID + " in snapshot"
}
