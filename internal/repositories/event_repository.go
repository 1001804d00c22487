package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gathering-service/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

// EventRepository abstracts event persistence.
type EventRepository interface {
	CreateEvent(ctx context.Context, creatorID int, title string, capacity int, mode models.AccessMode) (models.Event, error)
	GetEvent(ctx context.Context, eventID int) (models.Event, error)
	ListManagedEvents(ctx context.Context, creatorID int) ([]models.Event, error)
	EventTitles(ctx context.Context, eventIDs []int) (map[int]string, error)
	CanAccessGroupChat(ctx context.Context, eventID int, userID int) (bool, error)
}

// EventRepo is a sqlx implementation of EventRepository.
type EventRepo struct {
	db *sqlx.DB
}

// NewEventRepo constructs an EventRepo.
func NewEventRepo(db *sqlx.DB) *EventRepo {
	return &EventRepo{db: db}
}

// CreateEvent inserts a new event owned by creatorID.
func (r *EventRepo) CreateEvent(ctx context.Context, creatorID int, title string, capacity int, mode models.AccessMode) (models.Event, error) {
	var ev models.Event
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO events (creator_id, title, capacity, access_mode) VALUES ($1, $2, $3, $4)
         RETURNING id, creator_id, title, capacity, access_mode, created_at`,
		creatorID, title, capacity, mode).StructScan(&ev)
	if err != nil {
		return models.Event{}, err
	}
	ev.Participants = []models.Participation{}
	return ev, nil
}

// GetEvent fetches an event with its participant list.
func (r *EventRepo) GetEvent(ctx context.Context, eventID int) (models.Event, error) {
	var ev models.Event
	err := r.db.GetContext(ctx, &ev,
		`SELECT id, creator_id, title, capacity, access_mode, created_at FROM events WHERE id=$1`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, ErrEventNotFound
	}
	if err != nil {
		return models.Event{}, err
	}

	if err := r.db.SelectContext(ctx, &ev.Participants,
		`SELECT event_id, user_id, status, created_at FROM participants WHERE event_id=$1 ORDER BY created_at ASC`, eventID); err != nil {
		return models.Event{}, err
	}
	if ev.Participants == nil {
		ev.Participants = []models.Participation{}
	}
	return ev, nil
}

// ListManagedEvents returns events created by the user, participants included.
func (r *EventRepo) ListManagedEvents(ctx context.Context, creatorID int) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events,
		`SELECT id, creator_id, title, capacity, access_mode, created_at FROM events
         WHERE creator_id=$1 ORDER BY created_at DESC`, creatorID); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return []models.Event{}, nil
	}

	ids := make([]int, 0, len(events))
	byID := map[int]*models.Event{}
	for i := range events {
		events[i].Participants = []models.Participation{}
		ids = append(ids, events[i].ID)
		byID[events[i].ID] = &events[i]
	}

	var parts []models.Participation
	if err := r.db.SelectContext(ctx, &parts,
		`SELECT event_id, user_id, status, created_at FROM participants
         WHERE event_id = ANY($1) ORDER BY created_at ASC`, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, p := range parts {
		if ev, ok := byID[p.EventID]; ok {
			ev.Participants = append(ev.Participants, p)
		}
	}
	return events, nil
}

// EventTitles resolves titles for a set of event ids.
func (r *EventRepo) EventTitles(ctx context.Context, eventIDs []int) (map[int]string, error) {
	titles := map[int]string{}
	if len(eventIDs) == 0 {
		return titles, nil
	}

	rows, err := r.db.QueryxContext(ctx, `SELECT id, title FROM events WHERE id = ANY($1)`, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}
	return titles, rows.Err()
}

// CanAccessGroupChat reports whether the user may read the event group chat:
// the creator or any approved participant.
func (r *EventRepo) CanAccessGroupChat(ctx context.Context, eventID int, userID int) (bool, error) {
	var allowed bool
	err := r.db.GetContext(ctx, &allowed,
		`SELECT EXISTS(SELECT 1 FROM events WHERE id=$1 AND creator_id=$2)
             OR EXISTS(SELECT 1 FROM participants WHERE event_id=$1 AND user_id=$2 AND status='approved')`,
		eventID, userID)
	return allowed, err
}
