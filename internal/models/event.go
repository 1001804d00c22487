package models

import "time"

// AccessMode controls whether joining an event needs creator approval.
type AccessMode string

const (
	AccessOpen                 AccessMode = "open"
	AccessVerificationRequired AccessMode = "verification_required"
)

// ValidAccessMode reports whether the value is a known access mode.
func ValidAccessMode(mode AccessMode) bool {
	return mode == AccessOpen || mode == AccessVerificationRequired
}

// ParticipationStatus is the approval state of one participant on one event.
type ParticipationStatus string

const (
	StatusPending  ParticipationStatus = "pending"
	StatusApproved ParticipationStatus = "approved"
	StatusRejected ParticipationStatus = "rejected"
)

// Event represents a capacity-bounded gathering.
type Event struct {
	ID         int        `db:"id" json:"id"`
	CreatorID  int        `db:"creator_id" json:"creator_id"`
	Title      string     `db:"title" json:"title"`
	Capacity   int        `db:"capacity" json:"capacity"`
	AccessMode AccessMode `db:"access_mode" json:"access_mode"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`

	// Participants is loaded alongside the event row; it never contains
	// the creator and holds at most one entry per user.
	Participants []Participation `db:"-" json:"participants"`
}

// Participation is one user's membership record on one event. Leaving
// deletes the row entirely; rejoining creates a fresh one.
type Participation struct {
	EventID   int                 `db:"event_id" json:"event_id"`
	UserID    int                 `db:"user_id" json:"user_id"`
	Status    ParticipationStatus `db:"status" json:"status"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`

	// Username is annotated from the profile service, not persisted here.
	Username string `db:"-" json:"username,omitempty"`
}
