package repository

import (
	"context"

	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

type AttendanceRepository struct {
	db DBTX
}

func NewAttendanceRepository(db DBTX) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert records the latest mark for an athlete on a session.
func (r *AttendanceRepository) Upsert(
	ctx context.Context,
	sessionID int64,
	athleteID int64,
	status string,
	markedBy int64,
) (*models.Attendance, error) {
	query := `
		INSERT INTO attendance (session_id, athlete_id, status, marked_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, athlete_id)
		DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, marked_at = NOW()
		RETURNING id, session_id, athlete_id, status, marked_by, marked_at
	`
	var attendance models.Attendance
	err := r.db.QueryRow(ctx, query, sessionID, athleteID, status, markedBy).Scan(
		&attendance.ID,
		&attendance.SessionID,
		&attendance.AthleteID,
		&attendance.Status,
		&attendance.MarkedBy,
		&attendance.MarkedAt,
	)
	if err != nil {
		return nil, err
	}
	return &attendance, nil
}

// StatusBySession maps session id to the athlete's attendance mark.
func (r *AttendanceRepository) StatusBySession(ctx context.Context, athleteID int64, sessionIDs []int64) (map[int64]string, error) {
	marks := make(map[int64]string, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return marks, nil
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT session_id, status FROM attendance WHERE athlete_id = $1 AND session_id = ANY($2)`,
		athleteID,
		sessionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id     int64
			status string
		)
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		marks[id] = status
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return marks, nil
}
