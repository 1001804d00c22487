package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gathering-service/internal/models"
)

func openEvent(creatorID, capacity int) models.Event {
	return models.Event{ID: 1, CreatorID: creatorID, Capacity: capacity, AccessMode: models.AccessOpen}
}

func verificationEvent(creatorID, capacity int) models.Event {
	return models.Event{ID: 1, CreatorID: creatorID, Capacity: capacity, AccessMode: models.AccessVerificationRequired}
}

func participants(statuses map[int]models.ParticipationStatus) []models.Participation {
	parts := make([]models.Participation, 0, len(statuses))
	for userID, status := range statuses {
		parts = append(parts, models.Participation{EventID: 1, UserID: userID, Status: status})
	}
	return parts
}

func TestEvaluateJoinCreatorRefused(t *testing.T) {
	_, err := evaluateJoin(openEvent(10, 5), nil, 10)
	assert.ErrorIs(t, err, ErrSelfJoin)
}

func TestEvaluateJoinDuplicateRefused(t *testing.T) {
	parts := participants(map[int]models.ParticipationStatus{2: models.StatusPending})
	_, err := evaluateJoin(verificationEvent(10, 5), parts, 2)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	// Status does not matter; even a rejected user must leave before
	// rejoining.
	parts = participants(map[int]models.ParticipationStatus{2: models.StatusRejected})
	_, err = evaluateJoin(verificationEvent(10, 5), parts, 2)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestEvaluateJoinOpenAutoApproves(t *testing.T) {
	status, err := evaluateJoin(openEvent(10, 2), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, status)
}

func TestEvaluateJoinOpenCapacity(t *testing.T) {
	parts := participants(map[int]models.ParticipationStatus{
		2: models.StatusApproved,
		3: models.StatusApproved,
	})
	_, err := evaluateJoin(openEvent(10, 2), parts, 4)
	assert.ErrorIs(t, err, ErrEventFull)

	// Rejected entries hold no seat on open events.
	parts = participants(map[int]models.ParticipationStatus{
		2: models.StatusApproved,
		3: models.StatusRejected,
	})
	status, err := evaluateJoin(openEvent(10, 2), parts, 4)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, status)
}

func TestEvaluateJoinVerificationCountsPending(t *testing.T) {
	parts := participants(map[int]models.ParticipationStatus{
		2: models.StatusApproved,
		3: models.StatusPending,
	})
	_, err := evaluateJoin(verificationEvent(10, 2), parts, 4)
	assert.ErrorIs(t, err, ErrEventFull)

	status, err := evaluateJoin(verificationEvent(10, 3), parts, 4)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)
}

func TestEvaluateJoinUnknownAccessMode(t *testing.T) {
	ev := models.Event{ID: 1, CreatorID: 10, Capacity: 2, AccessMode: "invite_only"}
	_, err := evaluateJoin(ev, nil, 2)
	assert.Error(t, err)
}

// Capacity-2 verification event: A and B request, C is refused until the
// creator rejects A, which frees the held seat.
func TestVerificationCapacityScenario(t *testing.T) {
	ev := verificationEvent(10, 2)
	var parts []models.Participation

	apply := func(userID int) error {
		status, err := evaluateJoin(ev, parts, userID)
		if err != nil {
			return err
		}
		parts = append(parts, models.Participation{EventID: ev.ID, UserID: userID, Status: status})
		return nil
	}

	require.NoError(t, apply(2)) // A
	require.NoError(t, apply(3)) // B
	assert.ErrorIs(t, apply(4), ErrEventFull)

	// Creator rejects A.
	parts[0].Status = models.StatusRejected

	require.NoError(t, apply(4))
	assert.Equal(t, models.StatusPending, parts[len(parts)-1].Status)
}

// Interleaved joins and leaves never push the approved count past
// capacity when each join is evaluated against the current list, which is
// what the event row lock guarantees in production.
func TestOpenCapacityInvariantUnderInterleaving(t *testing.T) {
	const capacity = 3
	ev := openEvent(10, capacity)
	var parts []models.Participation

	leave := func(userID int) {
		for i, p := range parts {
			if p.UserID == userID {
				parts = append(parts[:i], parts[i+1:]...)
				return
			}
		}
	}
	approvedCount := func() int {
		n := 0
		for _, p := range parts {
			if p.Status == models.StatusApproved {
				n++
			}
		}
		return n
	}

	for userID := 2; userID < 50; userID++ {
		status, err := evaluateJoin(ev, parts, userID)
		if err == nil {
			parts = append(parts, models.Participation{EventID: ev.ID, UserID: userID, Status: status})
		}
		if userID%7 == 0 {
			leave(userID - 3)
		}
		require.LessOrEqual(t, approvedCount(), capacity)
	}
}
