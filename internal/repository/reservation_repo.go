package repository

import (
	"context"

	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, sessionID, athleteID int64) (*models.Reservation, error) {
	query := `
		INSERT INTO reservations (session_id, athlete_id)
		VALUES ($1, $2)
		RETURNING id, session_id, athlete_id, created_at
	`
	var reservation models.Reservation
	err := r.db.QueryRow(ctx, query, sessionID, athleteID).Scan(
		&reservation.ID,
		&reservation.SessionID,
		&reservation.AthleteID,
		&reservation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *ReservationRepository) Exists(ctx context.Context, sessionID, athleteID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE session_id = $1 AND athlete_id = $2)`,
		sessionID,
		athleteID,
	).Scan(&exists)
	return exists, err
}

// Delete reports whether a reservation was removed.
func (r *ReservationRepository) Delete(ctx context.Context, sessionID, athleteID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE session_id = $1 AND athlete_id = $2`, sessionID, athleteID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ReservedSessionIDs returns the subset of sessionIDs the athlete holds a
// reservation for.
func (r *ReservationRepository) ReservedSessionIDs(ctx context.Context, athleteID int64, sessionIDs []int64) (map[int64]bool, error) {
	reserved := make(map[int64]bool, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return reserved, nil
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT session_id FROM reservations WHERE athlete_id = $1 AND session_id = ANY($2)`,
		athleteID,
		sessionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		reserved[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reserved, nil
}

// Roster lists reserved athletes in reservation order with their attendance
// mark, if any.
func (r *ReservationRepository) Roster(ctx context.Context, sessionID int64) ([]models.RosterEntry, error) {
	query := `
		SELECT u.id, u.name, u.email, r.created_at, a.status
		FROM reservations r
		JOIN users u ON u.id = r.athlete_id
		LEFT JOIN attendance a ON a.session_id = r.session_id AND a.athlete_id = r.athlete_id
		WHERE r.session_id = $1
		ORDER BY r.created_at ASC, r.id ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roster := make([]models.RosterEntry, 0)
	for rows.Next() {
		var entry models.RosterEntry
		if err := rows.Scan(&entry.AthleteID, &entry.Name, &entry.Email, &entry.ReservedAt, &entry.Attendance); err != nil {
			return nil, err
		}
		roster = append(roster, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roster, nil
}
