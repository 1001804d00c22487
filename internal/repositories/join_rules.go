package repositories

import (
	"errors"
	"fmt"

	"gathering-service/internal/models"
)

var (
	ErrSelfJoin      = errors.New("creator cannot join own event")
	ErrAlreadyJoined = errors.New("user already has a participation for this event")
	ErrEventFull     = errors.New("event capacity exceeded")
)

// evaluateJoin decides the status a new participation gets, or why the join
// is refused. It must run while the event is locked: the capacity check is
// read-then-write and is only correct when no other mutation on the same
// event interleaves.
//
// Open events admit up to capacity approved participants. Verification
// events additionally count pending requests against capacity at join time,
// so a seat is held for every request the creator has not reviewed yet.
func evaluateJoin(ev models.Event, parts []models.Participation, userID int) (models.ParticipationStatus, error) {
	if userID == ev.CreatorID {
		return "", ErrSelfJoin
	}

	approved, pending := 0, 0
	for _, p := range parts {
		if p.UserID == userID {
			return "", ErrAlreadyJoined
		}
		switch p.Status {
		case models.StatusApproved:
			approved++
		case models.StatusPending:
			pending++
		}
	}

	switch ev.AccessMode {
	case models.AccessOpen:
		if approved >= ev.Capacity {
			return "", ErrEventFull
		}
		return models.StatusApproved, nil
	case models.AccessVerificationRequired:
		if approved+pending >= ev.Capacity {
			return "", ErrEventFull
		}
		return models.StatusPending, nil
	default:
		return "", fmt.Errorf("unknown access mode %q", ev.AccessMode)
	}
}
