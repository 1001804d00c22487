package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gathering-service/internal/models"
)

var (
	ErrNotCreator          = errors.New("only the event creator may review requests")
	ErrParticipantNotFound = errors.New("participant not found")
)

// ParticipationRepository mutates event participant lists. Every operation
// on the same event is serialized against the others: each one runs in a
// transaction that takes a row lock on the event before reading the list.
type ParticipationRepository interface {
	Join(ctx context.Context, eventID int, userID int) (models.Event, error)
	Leave(ctx context.Context, eventID int, userID int) (models.Event, error)
	SetStatus(ctx context.Context, eventID int, actorID int, targetID int, status models.ParticipationStatus) (models.Event, error)
}

// ParticipationRepo is a sqlx implementation of ParticipationRepository.
type ParticipationRepo struct {
	db *sqlx.DB
}

// NewParticipationRepo constructs a ParticipationRepo.
func NewParticipationRepo(db *sqlx.DB) *ParticipationRepo {
	return &ParticipationRepo{db: db}
}

// Join appends a participation for the user if the capacity and conflict
// rules allow it. The row lock makes the read-then-append atomic with
// respect to concurrent joins, leaves and reviews of the same event.
func (r *ParticipationRepo) Join(ctx context.Context, eventID int, userID int) (models.Event, error) {
	var result models.Event
	err := r.inEventTx(ctx, eventID, func(tx *sqlx.Tx, ev models.Event, parts []models.Participation) error {
		status, err := evaluateJoin(ev, parts, userID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO participants (event_id, user_id, status) VALUES ($1, $2, $3)`,
			eventID, userID, status); err != nil {
			return fmt.Errorf("insert participation: %w", err)
		}

		result, err = loadEventTx(ctx, tx, eventID)
		return err
	})
	return result, err
}

// Leave removes the user's participation. Absence is not an error; leave is
// idempotent and always returns the current event state.
func (r *ParticipationRepo) Leave(ctx context.Context, eventID int, userID int) (models.Event, error) {
	var result models.Event
	err := r.inEventTx(ctx, eventID, func(tx *sqlx.Tx, ev models.Event, parts []models.Participation) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM participants WHERE event_id=$1 AND user_id=$2`, eventID, userID); err != nil {
			return fmt.Errorf("delete participation: %w", err)
		}

		var err error
		result, err = loadEventTx(ctx, tx, eventID)
		return err
	})
	return result, err
}

// SetStatus records the creator's accept or reject decision for a pending
// (or previously decided) participation. Any prior status may be overridden.
func (r *ParticipationRepo) SetStatus(ctx context.Context, eventID int, actorID int, targetID int, status models.ParticipationStatus) (models.Event, error) {
	var result models.Event
	err := r.inEventTx(ctx, eventID, func(tx *sqlx.Tx, ev models.Event, parts []models.Participation) error {
		if actorID != ev.CreatorID {
			return ErrNotCreator
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE participants SET status=$1 WHERE event_id=$2 AND user_id=$3`,
			status, eventID, targetID)
		if err != nil {
			return fmt.Errorf("update participation: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrParticipantNotFound
		}

		result, err = loadEventTx(ctx, tx, eventID)
		return err
	})
	return result, err
}

// inEventTx runs fn inside a transaction holding an exclusive row lock on
// the event. SELECT ... FOR UPDATE blocks any concurrent transaction doing
// the same, which serializes all participant mutations per event while
// leaving different events fully independent.
func (r *ParticipationRepo) inEventTx(ctx context.Context, eventID int, fn func(tx *sqlx.Tx, ev models.Event, parts []models.Participation) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ev models.Event
	err = tx.GetContext(ctx, &ev,
		`SELECT id, creator_id, title, capacity, access_mode, created_at FROM events WHERE id=$1 FOR UPDATE`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrEventNotFound
		return err
	}
	if err != nil {
		err = fmt.Errorf("lock event row: %w", err)
		return err
	}

	var parts []models.Participation
	if err = tx.SelectContext(ctx, &parts,
		`SELECT event_id, user_id, status, created_at FROM participants WHERE event_id=$1`, eventID); err != nil {
		err = fmt.Errorf("load participants: %w", err)
		return err
	}

	if err = fn(tx, ev, parts); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit transaction: %w", err)
		return err
	}
	return nil
}

func loadEventTx(ctx context.Context, tx *sqlx.Tx, eventID int) (models.Event, error) {
	var ev models.Event
	if err := tx.GetContext(ctx, &ev,
		`SELECT id, creator_id, title, capacity, access_mode, created_at FROM events WHERE id=$1`, eventID); err != nil {
		return models.Event{}, err
	}
	if err := tx.SelectContext(ctx, &ev.Participants,
		`SELECT event_id, user_id, status, created_at FROM participants WHERE event_id=$1 ORDER BY created_at ASC`, eventID); err != nil {
		return models.Event{}, err
	}
	if ev.Participants == nil {
		ev.Participants = []models.Participation{}
	}
	return ev, nil
}
