package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nicolasdagostino/a615-sub000/internal/calendar"
	"github.com/nicolasdagostino/a615-sub000/internal/events"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/repository"
)

// maxListDays bounds the date range of one session listing.
const maxListDays = 62

type classReader interface {
	GetByID(ctx context.Context, id int64) (*models.GymClass, error)
}

type SessionService struct {
	db              *pgxpool.Pool
	sessionRepo     *repository.SessionRepository
	reservationRepo *repository.ReservationRepository
	attendanceRepo  *repository.AttendanceRepository
	classRepo       classReader
	publisher       events.Publisher
	notifier        Notifier
	log             logger.Logger
	loc             *time.Location
	now             func() time.Time
}

type SessionServiceDeps struct {
	Publisher events.Publisher
	Notifier  Notifier
	Logger    logger.Logger
	Location  *time.Location
}

func NewSessionService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	reservationRepo *repository.ReservationRepository,
	attendanceRepo *repository.AttendanceRepository,
	classRepo classReader,
	deps SessionServiceDeps,
) *SessionService {
	s := &SessionService{
		db:              db,
		sessionRepo:     sessionRepo,
		reservationRepo: reservationRepo,
		attendanceRepo:  attendanceRepo,
		classRepo:       classRepo,
		publisher:       deps.Publisher,
		notifier:        deps.Notifier,
		log:             deps.Logger,
		loc:             deps.Location,
		now:             time.Now,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

type CreateSessionInput struct {
	ClassID     int64  `json:"classId" validate:"gt=0"`
	Date        string `json:"date" validate:"required,isodate"`
	Time        string `json:"time" validate:"omitempty,clock"`
	DurationMin int    `json:"durationMin" validate:"gte=0,lte=600"`
	Capacity    int    `json:"capacity" validate:"gte=0,lte=500"`
}

// CreateSession schedules one occurrence of a class. Time, duration and
// capacity default to the class template when left empty.
func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*models.SessionView, error) {
	input.Date = strings.TrimSpace(input.Date)
	input.Time = strings.TrimSpace(input.Time)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	class, err := s.classRepo.GetByID(ctx, input.ClassID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: class %d does not exist", ErrInvalidInput, input.ClassID)
		}
		return nil, err
	}
	if input.Time == "" {
		input.Time = class.Time
	}
	if input.DurationMin == 0 {
		input.DurationMin = class.DurationMin
	}
	if input.Capacity == 0 {
		input.Capacity = class.Capacity
	}

	session, err := s.sessionRepo.Create(ctx, repository.CreateSessionInput{
		ClassID:     class.ID,
		Date:        input.Date,
		Time:        input.Time,
		DurationMin: input.DurationMin,
		Capacity:    input.Capacity,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	view := s.view(*session, false, nil)
	return &view, nil
}

// parseListRange parses an inclusive [from, to] range and bounds it in
// calendar days, so a DST shift inside the range does not change the limit.
func parseListRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	fromDate, err := calendar.ParseDate(from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidInput)
	}
	toDate, err := calendar.ParseDate(to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidInput)
	}
	if toDate.Before(fromDate) || fromDate.AddDate(0, 0, maxListDays).Before(toDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range must be ascending and at most %d days", ErrInvalidInput, maxListDays)
	}
	return fromDate, toDate, nil
}

// ListSessions returns sessions dated within [from, to] with their badges.
func (s *SessionService) ListSessions(ctx context.Context, from, to string) ([]models.SessionView, error) {
	fromDate, toDate, err := parseListRange(from, to, s.loc)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessionRepo.ListByDateRange(ctx, fromDate.Format(calendar.DateLayout), toDate.Format(calendar.DateLayout))
	if err != nil {
		return nil, err
	}
	views := make([]models.SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, s.view(session, false, nil))
	}
	return views, nil
}

func (s *SessionService) GetSession(ctx context.Context, sessionID int64) (*models.SessionView, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err)
	}
	view := s.view(*session, false, nil)
	return &view, nil
}

// UpdateStatus moves a scheduled session to completed or cancelled. Terminal
// states never transition.
func (s *SessionService) UpdateStatus(ctx context.Context, sessionID int64, requestedStatus string) (*models.SessionView, error) {
	nextStatus, err := normalizeSessionStatus(requestedStatus)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := validateSessionTransition(session.Status, nextStatus); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.UpdateStatusIfCurrent(ctx, sessionID, session.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.log, events.SessionStatusChanged, sessionAggregate(sessionID), map[string]any{
		"session_id": sessionID,
		"from":       session.Status,
		"to":         updated.Status,
	})
	s.notifySeats(updated)

	view := s.view(*updated, false, nil)
	return &view, nil
}

// AthleteWeek buckets the sessions of the week at offset (0 is the week
// starting today) and annotates each with the athlete's reservation and
// attendance.
func (s *SessionService) AthleteWeek(ctx context.Context, athleteID int64, offset int) ([]calendar.DayBucket, error) {
	now := s.now()
	days := calendar.Week(now, s.loc, offset)
	from, to := calendar.Range(days)

	sessions, err := s.sessionRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}
	reserved, err := s.reservationRepo.ReservedSessionIDs(ctx, athleteID, ids)
	if err != nil {
		return nil, err
	}
	marks, err := s.attendanceRepo.StatusBySession(ctx, athleteID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.SessionView, 0, len(sessions))
	for _, session := range sessions {
		var attendance *string
		if mark, ok := marks[session.ID]; ok {
			attendance = &mark
		}
		views = append(views, s.viewAt(session, now, reserved[session.ID], attendance))
	}
	return calendar.Bucket(views, days, calendar.Today(now, s.loc)), nil
}

// Reserve claims one spot for the athlete. The session row is locked for the
// duration of the check and increment.
func (s *SessionService) Reserve(ctx context.Context, athleteID, sessionID int64) (*models.SessionView, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txReservationRepo := repository.NewReservationRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, notFound(err)
	}
	already, err := txReservationRepo.Exists(ctx, sessionID, athleteID)
	if err != nil {
		return nil, err
	}
	if err := checkReservable(session, s.now(), s.loc, already); err != nil {
		return nil, err
	}

	if _, err := txReservationRepo.Create(ctx, sessionID, athleteID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyReserved
		}
		return nil, err
	}
	updated, err := txSessionRepo.AdjustReserved(ctx, sessionID, 1)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.log, events.ReservationCreated, sessionAggregate(sessionID), map[string]any{
		"session_id":     sessionID,
		"athlete_id":     athleteID,
		"reserved_count": updated.ReservedCount,
	})
	s.notifySeats(updated)

	view := s.view(*updated, true, nil)
	return &view, nil
}

// CancelReservation releases the athlete's spot before the session starts.
func (s *SessionService) CancelReservation(ctx context.Context, athleteID, sessionID int64) (*models.SessionView, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txReservationRepo := repository.NewReservationRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := checkCancellable(session, s.now(), s.loc); err != nil {
		return nil, err
	}

	deleted, err := txReservationRepo.Delete(ctx, sessionID, athleteID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrNotReserved
	}
	updated, err := txSessionRepo.AdjustReserved(ctx, sessionID, -1)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.log, events.ReservationCancelled, sessionAggregate(sessionID), map[string]any{
		"session_id":     sessionID,
		"athlete_id":     athleteID,
		"reserved_count": updated.ReservedCount,
	})
	s.notifySeats(updated)

	view := s.view(*updated, false, nil)
	return &view, nil
}

func (s *SessionService) Roster(ctx context.Context, sessionID int64) ([]models.RosterEntry, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, notFound(err)
	}
	return s.reservationRepo.Roster(ctx, sessionID)
}

type MarkAttendanceInput struct {
	AthleteID int64  `json:"athleteId" validate:"gt=0"`
	Status    string `json:"status" validate:"oneof=present absent"`
}

// MarkAttendance records present or absent for a reserved athlete once the
// session has started. Re-marking overwrites the previous mark.
func (s *SessionService) MarkAttendance(ctx context.Context, markerID, sessionID int64, input MarkAttendanceInput) (*models.Attendance, error) {
	input.Status = strings.ToLower(strings.TrimSpace(input.Status))
	if err := validateInput(input); err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := checkMarkable(session, s.now(), s.loc); err != nil {
		return nil, err
	}

	reserved, err := s.reservationRepo.Exists(ctx, sessionID, input.AthleteID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, ErrNotReserved
	}

	attendance, err := s.attendanceRepo.Upsert(ctx, sessionID, input.AthleteID, input.Status, markerID)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.log, events.AttendanceMarked, sessionAggregate(sessionID), map[string]any{
		"session_id": sessionID,
		"athlete_id": input.AthleteID,
		"status":     attendance.Status,
		"marked_by":  markerID,
	})
	s.notifier.Notify(SessionTopic(sessionID), "attendance.marked", attendance)
	return attendance, nil
}

func (s *SessionService) view(session models.Session, reserved bool, attendance *string) models.SessionView {
	return s.viewAt(session, s.now(), reserved, attendance)
}

func (s *SessionService) viewAt(session models.Session, now time.Time, reserved bool, attendance *string) models.SessionView {
	return models.SessionView{
		Session:    session,
		Badge:      calendar.Badge(session, now, s.loc),
		Reserved:   reserved,
		Attendance: attendance,
	}
}

func (s *SessionService) notifySeats(session *models.Session) {
	s.notifier.Notify(SessionTopic(session.ID), "session.seats", map[string]any{
		"sessionId":     session.ID,
		"capacity":      session.Capacity,
		"reservedCount": session.ReservedCount,
		"status":        session.Status,
	})
}

func sessionAggregate(sessionID int64) string {
	return "session:" + strconv.FormatInt(sessionID, 10)
}

func normalizeSessionStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "complete", "completed":
		return models.SessionCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.SessionCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateSessionTransition(current, next string) error {
	if current != models.SessionScheduled {
		return ErrInvalidStateTransition
	}
	if next != models.SessionCompleted && next != models.SessionCancelled {
		return ErrInvalidStatus
	}
	return nil
}

func checkReservable(session *models.Session, now time.Time, loc *time.Location, alreadyReserved bool) error {
	if session.Status != models.SessionScheduled {
		return ErrInvalidStateTransition
	}
	started, err := calendar.HasStarted(*session, now, loc)
	if err != nil {
		return err
	}
	if started {
		return ErrInvalidStateTransition
	}
	if alreadyReserved {
		return ErrAlreadyReserved
	}
	if session.ReservedCount >= session.Capacity {
		return ErrSessionFull
	}
	return nil
}

func checkCancellable(session *models.Session, now time.Time, loc *time.Location) error {
	if session.Status == models.SessionCompleted {
		return ErrInvalidStateTransition
	}
	started, err := calendar.HasStarted(*session, now, loc)
	if err != nil {
		return err
	}
	if started {
		return ErrInvalidStateTransition
	}
	return nil
}

func checkMarkable(session *models.Session, now time.Time, loc *time.Location) error {
	switch session.Status {
	case models.SessionCancelled:
		return ErrInvalidStateTransition
	case models.SessionCompleted:
		return nil
	}
	started, err := calendar.HasStarted(*session, now, loc)
	if err != nil {
		return err
	}
	if !started {
		return ErrInvalidStateTransition
	}
	return nil
}
