package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

type CreateSessionInput struct {
	ClassID     int64
	Date        string
	Time        string
	DurationMin int
	Capacity    int
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

var sessionSelect = withSessionSelect("class_sessions")

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := `
		WITH inserted AS (
			INSERT INTO class_sessions (class_id, session_date, start_time, duration_min, capacity)
			VALUES ($1, $2::date, $3, $4, $5)
			RETURNING *
		)` + withSessionSelect("inserted")
	return scanSession(r.db.QueryRow(ctx, query, input.ClassID, input.Date, input.Time, input.DurationMin, input.Capacity))
}

// CreateIfAbsent inserts the session unless the (class, date, time) slot is
// already taken. The bool reports whether a row was inserted.
func (r *SessionRepository) CreateIfAbsent(ctx context.Context, input CreateSessionInput) (*models.Session, bool, error) {
	query := `
		WITH inserted AS (
			INSERT INTO class_sessions (class_id, session_date, start_time, duration_min, capacity)
			VALUES ($1, $2::date, $3, $4, $5)
			ON CONFLICT (class_id, session_date, start_time) DO NOTHING
			RETURNING *
		)` + withSessionSelect("inserted")
	session, err := scanSession(r.db.QueryRow(ctx, query, input.ClassID, input.Date, input.Time, input.DurationMin, input.Capacity))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	return scanSession(r.db.QueryRow(ctx, sessionSelect+` WHERE s.id = $1`, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.Session, error) {
	return scanSession(r.db.QueryRow(ctx, sessionSelect+` WHERE s.id = $1 FOR UPDATE OF s`, sessionID))
}

// ListByDateRange returns sessions with from <= date <= to ordered by date,
// time and id.
func (r *SessionRepository) ListByDateRange(ctx context.Context, from, to string) ([]models.Session, error) {
	query := sessionSelect + `
		WHERE s.session_date BETWEEN $1::date AND $2::date
		ORDER BY s.session_date ASC, s.start_time ASC, s.id ASC
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := `
		WITH updated AS (
			UPDATE class_sessions
			SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING *
		)` + withSessionSelect("updated")
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

// AdjustReserved adds delta to reserved_count. The table constraints keep the
// count within [0, capacity].
func (r *SessionRepository) AdjustReserved(ctx context.Context, sessionID int64, delta int) (*models.Session, error) {
	query := `
		WITH updated AS (
			UPDATE class_sessions
			SET reserved_count = reserved_count + $2, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)` + withSessionSelect("updated")
	return scanSession(r.db.QueryRow(ctx, query, sessionID, delta))
}

func withSessionSelect(cte string) string {
	return `
	SELECT s.id, to_char(s.session_date, 'YYYY-MM-DD'), s.start_time, s.duration_min,
	       s.capacity, s.reserved_count, s.status,
	       c.id, c.name, c.coach, c.class_type,
	       s.created_at, s.updated_at
	FROM ` + cte + ` s
	JOIN classes c ON c.id = s.class_id
	`
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.Date,
		&session.Time,
		&session.DurationMin,
		&session.Capacity,
		&session.ReservedCount,
		&session.Status,
		&session.Class.ID,
		&session.Class.Name,
		&session.Class.Coach,
		&session.Class.Type,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
