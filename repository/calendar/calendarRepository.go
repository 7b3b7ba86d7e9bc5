package calendarrepo

import (
	"context"
	"database/sql"
	"time"

	"campushive/model"
)

type Repo interface {
	Create(ctx context.Context, userID int64, title string, date time.Time, eventType, description string) (*model.CalendarEvent, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, userID int64, title string, date time.Time, eventType, description string) (*model.CalendarEvent, error) {
	const q = `
INSERT INTO calendar_events (user_id, event_title, event_date, event_type, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, event_title, event_date, event_type, description, created_at`
	var ev model.CalendarEvent
	err := r.db.QueryRowContext(ctx, q, userID, title, date, eventType, description).Scan(
		&ev.ID, &ev.UserID, &ev.EventTitle, &ev.EventDate,
		&ev.EventType, &ev.Description, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
