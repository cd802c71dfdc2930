package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

type PaymentInput struct {
	MemberID int64
	Amount   float64
	Currency string
	Method   string
	Status   string
	Date     string
	Notes    *string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func withPaymentSelect(source string) string {
	return `
	SELECT p.id, p.member_id, m.name, p.amount::float8, p.currency, p.method, p.status,
	       to_char(p.payment_date, 'YYYY-MM-DD'), p.notes, p.created_at, p.updated_at
	FROM ` + source + ` p
	JOIN members m ON m.id = p.member_id
	`
}

var paymentSelect = withPaymentSelect("payments")

func (r *PaymentRepository) Create(ctx context.Context, input PaymentInput) (*models.Payment, error) {
	query := `
		WITH inserted AS (
			INSERT INTO payments (member_id, amount, currency, method, status, payment_date, notes)
			VALUES ($1, $2, $3, $4, $5, $6::date, $7)
			RETURNING *
		)` + withPaymentSelect("inserted")
	return scanPayment(r.db.QueryRow(
		ctx,
		query,
		input.MemberID,
		input.Amount,
		input.Currency,
		input.Method,
		input.Status,
		input.Date,
		input.Notes,
	))
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, paymentSelect+` WHERE p.id = $1`, id))
}

func (r *PaymentRepository) Update(ctx context.Context, id int64, input PaymentInput) (*models.Payment, error) {
	query := `
		WITH updated AS (
			UPDATE payments
			SET member_id = $2, amount = $3, currency = $4, method = $5, status = $6,
			    payment_date = $7::date, notes = $8, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)` + withPaymentSelect("updated")
	return scanPayment(r.db.QueryRow(
		ctx,
		query,
		id,
		input.MemberID,
		input.Amount,
		input.Currency,
		input.Method,
		input.Status,
		input.Date,
		input.Notes,
	))
}

// Delete reports whether a row was removed.
func (r *PaymentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PaymentRepository) List(ctx context.Context) ([]models.Payment, error) {
	return r.list(ctx, paymentSelect+` ORDER BY p.payment_date DESC, p.id DESC`)
}

func (r *PaymentRepository) ListByMember(ctx context.Context, memberID int64) ([]models.Payment, error) {
	return r.list(ctx, paymentSelect+` WHERE p.member_id = $1 ORDER BY p.payment_date DESC, p.id DESC`, memberID)
}

// ListBetween returns payments dated within [from, to].
func (r *PaymentRepository) ListBetween(ctx context.Context, from, to string) ([]models.Payment, error) {
	return r.list(ctx, paymentSelect+` WHERE p.payment_date BETWEEN $1::date AND $2::date ORDER BY p.payment_date ASC, p.id ASC`, from, to)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.MemberID,
		&payment.MemberName,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.Status,
		&payment.Date,
		&payment.Notes,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
