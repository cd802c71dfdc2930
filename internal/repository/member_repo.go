package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

type MemberInput struct {
	UserID   *int64
	Name     string
	Email    string
	Phone    string
	Plan     string
	Status   string
	JoinedAt string
}

type MemberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, user_id, name, email, phone, plan, status, to_char(joined_at, 'YYYY-MM-DD'), created_at, updated_at`

func (r *MemberRepository) Create(ctx context.Context, input MemberInput) (*models.Member, error) {
	query := `
		INSERT INTO members (user_id, name, email, phone, plan, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, '')::date, CURRENT_DATE))
		RETURNING ` + memberColumns
	return scanMember(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.Name,
		input.Email,
		input.Phone,
		input.Plan,
		input.Status,
		input.JoinedAt,
	))
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	return scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
}

func (r *MemberRepository) GetByUserID(ctx context.Context, userID int64) (*models.Member, error) {
	return scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE user_id = $1`, userID))
}

func (r *MemberRepository) Update(ctx context.Context, id int64, input MemberInput) (*models.Member, error) {
	query := `
		UPDATE members
		SET user_id = $2, name = $3, email = $4, phone = $5, plan = $6, status = $7,
		    joined_at = COALESCE(NULLIF($8, '')::date, joined_at), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + memberColumns
	return scanMember(r.db.QueryRow(
		ctx,
		query,
		id,
		input.UserID,
		input.Name,
		input.Email,
		input.Phone,
		input.Plan,
		input.Status,
		input.JoinedAt,
	))
}

func (r *MemberRepository) List(ctx context.Context) ([]models.Member, error) {
	rows, err := r.db.Query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var member models.Member
	err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.Name,
		&member.Email,
		&member.Phone,
		&member.Plan,
		&member.Status,
		&member.JoinedAt,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}
