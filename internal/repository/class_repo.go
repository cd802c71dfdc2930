package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

type ClassInput struct {
	Name        string
	Program     string
	Type        string
	Coach       string
	Day         string
	Time        string
	DurationMin int
	Capacity    int
}

type ClassRepository struct {
	db DBTX
}

func NewClassRepository(db DBTX) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, name, program, class_type, coach, day, start_time, duration_min, capacity, created_at, updated_at`

func (r *ClassRepository) Create(ctx context.Context, input ClassInput) (*models.GymClass, error) {
	query := `
		INSERT INTO classes (name, program, class_type, coach, day, start_time, duration_min, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + classColumns
	return scanClass(r.db.QueryRow(
		ctx,
		query,
		input.Name,
		input.Program,
		input.Type,
		input.Coach,
		input.Day,
		input.Time,
		input.DurationMin,
		input.Capacity,
	))
}

func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*models.GymClass, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	return scanClass(r.db.QueryRow(ctx, query, id))
}

func (r *ClassRepository) Update(ctx context.Context, id int64, input ClassInput) (*models.GymClass, error) {
	query := `
		UPDATE classes
		SET name = $2, program = $3, class_type = $4, coach = $5, day = $6,
		    start_time = $7, duration_min = $8, capacity = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + classColumns
	return scanClass(r.db.QueryRow(
		ctx,
		query,
		id,
		input.Name,
		input.Program,
		input.Type,
		input.Coach,
		input.Day,
		input.Time,
		input.DurationMin,
		input.Capacity,
	))
}

// Delete reports whether a row was removed.
func (r *ClassRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ClassRepository) List(ctx context.Context) ([]models.GymClass, error) {
	query := `SELECT ` + classColumns + ` FROM classes ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]models.GymClass, 0)
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *class)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

func scanClass(row pgx.Row) (*models.GymClass, error) {
	var class models.GymClass
	err := row.Scan(
		&class.ID,
		&class.Name,
		&class.Program,
		&class.Type,
		&class.Coach,
		&class.Day,
		&class.Time,
		&class.DurationMin,
		&class.Capacity,
		&class.CreatedAt,
		&class.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &class, nil
}
