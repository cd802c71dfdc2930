package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasdagostino/a615-sub000/internal/calendar"
	"github.com/nicolasdagostino/a615-sub000/internal/events"
	"github.com/nicolasdagostino/a615-sub000/internal/listing"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/repository"
)

type paymentStore interface {
	Create(ctx context.Context, input repository.PaymentInput) (*models.Payment, error)
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	Update(ctx context.Context, id int64, input repository.PaymentInput) (*models.Payment, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]models.Payment, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.Payment, error)
	ListBetween(ctx context.Context, from, to string) ([]models.Payment, error)
}

type memberLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Member, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Member, error)
}

// PaymentTable lists newest payments first unless another column is chosen.
var PaymentTable = listing.Table[models.Payment]{
	SearchFields: func(p models.Payment) []string {
		fields := []string{p.MemberName, p.Method, p.Status}
		if p.Notes != nil {
			fields = append(fields, *p.Notes)
		}
		return fields
	},
	Filters: map[string]func(p models.Payment, value string) bool{
		"status": func(p models.Payment, v string) bool { return listing.Equal(p.Status, v) },
		"method": func(p models.Payment, v string) bool { return listing.Equal(p.Method, v) },
		"member": func(p models.Payment, v string) bool {
			return strconv.FormatInt(p.MemberID, 10) == v || listing.Equal(p.MemberName, v)
		},
	},
	Sorters: map[string]func(a, b models.Payment) int{
		"date": func(a, b models.Payment) int {
			if c := cmp.Compare(a.Date, b.Date); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		},
		"amount": func(a, b models.Payment) int { return cmp.Compare(a.Amount, b.Amount) },
		"member": func(a, b models.Payment) int { return listing.CompareStrings(a.MemberName, b.MemberName) },
		"status": func(a, b models.Payment) int { return cmp.Compare(a.Status, b.Status) },
	},
	DefaultSort: "date",
	DefaultDir:  listing.DirDesc,
}

var paymentStatuses = []string{models.PaymentPaid, models.PaymentPending, models.PaymentFailed, models.PaymentRefunded}

type PaymentInput struct {
	MemberID int64   `json:"memberId" validate:"gt=0"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Currency string  `json:"currency" validate:"len=3,alpha"`
	Method   string  `json:"method" validate:"oneof=cash card transfer"`
	Status   string  `json:"status" validate:"oneof=paid pending failed refunded"`
	Date     string  `json:"date" validate:"required,isodate"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

type PaymentService struct {
	paymentRepo paymentStore
	memberRepo  memberLookup
	publisher   events.Publisher
	log         logger.Logger
	loc         *time.Location
	now         func() time.Time
}

func NewPaymentService(
	paymentRepo paymentStore,
	memberRepo memberLookup,
	publisher events.Publisher,
	log logger.Logger,
	loc *time.Location,
) *PaymentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PaymentService{
		paymentRepo: paymentRepo,
		memberRepo:  memberRepo,
		publisher:   publisher,
		log:         log,
		loc:         loc,
		now:         time.Now,
	}
}

func (s *PaymentService) RecordPayment(ctx context.Context, input PaymentInput) (*models.Payment, error) {
	input = normalizePaymentInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureMember(ctx, input.MemberID); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.Create(ctx, input.toRepo())
	if err != nil {
		return nil, err
	}
	s.publishRecorded(ctx, payment)
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return payment, nil
}

// UpdatePayment replaces a payment. A transition into paid publishes the same
// event as recording a paid payment.
func (s *PaymentService) UpdatePayment(ctx context.Context, id int64, input PaymentInput) (*models.Payment, error) {
	input = normalizePaymentInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	current, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if current.MemberID != input.MemberID {
		if err := s.ensureMember(ctx, input.MemberID); err != nil {
			return nil, err
		}
	}

	updated, err := s.paymentRepo.Update(ctx, id, input.toRepo())
	if err != nil {
		return nil, notFound(err)
	}
	if current.Status != models.PaymentPaid && updated.Status == models.PaymentPaid {
		s.publishRecorded(ctx, updated)
	}
	return updated, nil
}

func (s *PaymentService) DeletePayment(ctx context.Context, id int64) error {
	deleted, err := s.paymentRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *PaymentService) ListPayments(ctx context.Context, query listing.Query) (listing.Page[models.Payment], error) {
	payments, err := s.paymentRepo.List(ctx)
	if err != nil {
		return listing.Page[models.Payment]{}, err
	}
	return listing.Apply(payments, query, PaymentTable), nil
}

// ListOwnPayments lists the payments of the member linked to an athlete
// account. ErrNotFound means no member is linked.
func (s *PaymentService) ListOwnPayments(ctx context.Context, userID int64, query listing.Query) (listing.Page[models.Payment], error) {
	member, err := s.memberRepo.GetByUserID(ctx, userID)
	if err != nil {
		return listing.Page[models.Payment]{}, notFound(err)
	}
	payments, err := s.paymentRepo.ListByMember(ctx, member.ID)
	if err != nil {
		return listing.Page[models.Payment]{}, err
	}
	delete(query.Filters, "member")
	return listing.Apply(payments, query, PaymentTable), nil
}

// Summary totals paid amounts per currency and counts payments per status
// for payments dated within [from, to]. Empty bounds default to the current
// month up to today in the gym timezone.
func (s *PaymentService) Summary(ctx context.Context, from, to string) (*models.PaymentSummary, error) {
	now := s.now().In(s.loc)
	if strings.TrimSpace(from) == "" {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc).Format(calendar.DateLayout)
	}
	if strings.TrimSpace(to) == "" {
		to = now.Format(calendar.DateLayout)
	}
	fromDate, err := calendar.ParseDate(from, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidInput)
	}
	toDate, err := calendar.ParseDate(to, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidInput)
	}
	if toDate.Before(fromDate) {
		return nil, fmt.Errorf("%w: to is before from", ErrInvalidInput)
	}

	payments, err := s.paymentRepo.ListBetween(ctx, fromDate.Format(calendar.DateLayout), toDate.Format(calendar.DateLayout))
	if err != nil {
		return nil, err
	}
	return summarize(fromDate.Format(calendar.DateLayout), toDate.Format(calendar.DateLayout), payments), nil
}

func summarize(from, to string, payments []models.Payment) *models.PaymentSummary {
	summary := &models.PaymentSummary{
		From:           from,
		To:             to,
		PaidByCurrency: make(map[string]float64),
		CountByStatus:  make(map[string]int, len(paymentStatuses)),
	}
	for _, status := range paymentStatuses {
		summary.CountByStatus[status] = 0
	}
	// Totals are summed in minor units so repeated float additions do not drift.
	cents := make(map[string]int64)
	for _, p := range payments {
		summary.CountByStatus[p.Status]++
		if p.Status == models.PaymentPaid {
			cents[p.Currency] += toCents(p.Amount)
		}
	}
	for currency, total := range cents {
		summary.PaidByCurrency[currency] = float64(total) / 100
	}
	return summary
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *PaymentService) ensureMember(ctx context.Context, memberID int64) error {
	if _, err := s.memberRepo.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: member %d does not exist", ErrInvalidInput, memberID)
		}
		return err
	}
	return nil
}

func (s *PaymentService) publishRecorded(ctx context.Context, payment *models.Payment) {
	publishEvent(ctx, s.publisher, s.log, events.PaymentRecorded, "payment:"+strconv.FormatInt(payment.ID, 10), map[string]any{
		"payment_id": payment.ID,
		"member_id":  payment.MemberID,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
		"status":     payment.Status,
		"date":       payment.Date,
	})
}

func normalizePaymentInput(input PaymentInput) PaymentInput {
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	input.Method = strings.ToLower(strings.TrimSpace(input.Method))
	input.Status = strings.ToLower(strings.TrimSpace(input.Status))
	input.Date = strings.TrimSpace(input.Date)
	if input.Notes != nil {
		trimmed := strings.TrimSpace(*input.Notes)
		if trimmed == "" {
			input.Notes = nil
		} else {
			input.Notes = &trimmed
		}
	}
	return input
}

func (in PaymentInput) toRepo() repository.PaymentInput {
	return repository.PaymentInput{
		MemberID: in.MemberID,
		Amount:   in.Amount,
		Currency: in.Currency,
		Method:   in.Method,
		Status:   in.Status,
		Date:     in.Date,
		Notes:    in.Notes,
	}
}
