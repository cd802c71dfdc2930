package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nicolasdagostino/a615-sub000/internal/calendar"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/wodstore"
)

type WODService struct {
	store    wodstore.Store
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewWODService(store wodstore.Store, notifier Notifier, loc *time.Location) *WODService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &WODService{store: store, notifier: notifier, loc: loc, now: time.Now}
}

func (s *WODService) ListWODs(ctx context.Context) ([]models.WOD, error) {
	return s.store.List(ctx)
}

func (s *WODService) GetWOD(ctx context.Context, date string) (*models.WOD, error) {
	wod, err := s.store.Get(ctx, date)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return wod, nil
}

// TodayWOD is the WOD for the current date in the gym timezone.
func (s *WODService) TodayWOD(ctx context.Context) (*models.WOD, error) {
	return s.GetWOD(ctx, calendar.Today(s.now(), s.loc))
}

// SaveWOD creates or replaces the WOD for its date. The bool reports creation.
func (s *WODService) SaveWOD(ctx context.Context, wod models.WOD) (*models.WOD, bool, error) {
	saved, created, err := s.store.Upsert(ctx, wod)
	if err != nil {
		return nil, false, mapStoreError(err)
	}
	s.notifier.Notify(WODTopic(saved.Date), "wod.updated", saved)
	return &saved, created, nil
}

func (s *WODService) DeleteWOD(ctx context.Context, date string) error {
	deleted, err := s.store.Delete(ctx, date)
	if err != nil {
		return mapStoreError(err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.notifier.Notify(WODTopic(date), "wod.deleted", map[string]string{"date": date})
	return nil
}

func (s *WODService) Comments(ctx context.Context, date string) ([]models.WODComment, error) {
	comments, err := s.store.Comments(ctx, date)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return comments, nil
}

func (s *WODService) AddComment(ctx context.Context, date, text string) (*models.WODComment, error) {
	comment, err := s.store.AddComment(ctx, date, text)
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.notifier.Notify(WODTopic(date), "comment.created", comment)
	return comment, nil
}

func (s *WODService) DeleteComment(ctx context.Context, date, commentID string) error {
	deleted, err := s.store.DeleteComment(ctx, date, commentID)
	if err != nil {
		return mapStoreError(err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.notifier.Notify(WODTopic(date), "comment.deleted", map[string]string{"date": date, "id": commentID})
	return nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, wodstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, wodstore.ErrInvalidWOD),
		errors.Is(err, wodstore.ErrInvalidComment),
		errors.Is(err, wodstore.ErrInvalidDate):
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	default:
		return err
	}
}
