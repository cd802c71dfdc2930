package services

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nicolasdagostino/a615-sub000/internal/calendar"
	"github.com/nicolasdagostino/a615-sub000/internal/listing"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/repository"
)

type classStore interface {
	Create(ctx context.Context, input repository.ClassInput) (*models.GymClass, error)
	GetByID(ctx context.Context, id int64) (*models.GymClass, error)
	Update(ctx context.Context, id int64, input repository.ClassInput) (*models.GymClass, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]models.GymClass, error)
}

type sessionSlotCreator interface {
	CreateIfAbsent(ctx context.Context, input repository.CreateSessionInput) (*models.Session, bool, error)
}

// ClassTable drives search, filters and sort columns of the classes table.
var ClassTable = listing.Table[models.GymClass]{
	SearchFields: func(c models.GymClass) []string {
		return []string{c.Name, c.Program, c.Coach}
	},
	Filters: map[string]func(c models.GymClass, value string) bool{
		"day":   func(c models.GymClass, v string) bool { return listing.Equal(c.Day, v) },
		"coach": func(c models.GymClass, v string) bool { return listing.Equal(c.Coach, v) },
		"type":  func(c models.GymClass, v string) bool { return listing.Equal(c.Type, v) },
	},
	Sorters: map[string]func(a, b models.GymClass) int{
		"name":  func(a, b models.GymClass) int { return listing.CompareStrings(a.Name, b.Name) },
		"coach": func(a, b models.GymClass) int { return listing.CompareStrings(a.Coach, b.Coach) },
		"day": func(a, b models.GymClass) int {
			if c := cmp.Compare(weekdayIndex(a.Day), weekdayIndex(b.Day)); c != 0 {
				return c
			}
			return cmp.Compare(a.Time, b.Time)
		},
		"time":     func(a, b models.GymClass) int { return cmp.Compare(a.Time, b.Time) },
		"capacity": func(a, b models.GymClass) int { return cmp.Compare(a.Capacity, b.Capacity) },
	},
	DefaultSort: "day",
	DefaultDir:  listing.DirAsc,
}

type ClassInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Program     string `json:"program" validate:"max=255"`
	Type        string `json:"type" validate:"max=64"`
	Coach       string `json:"coach" validate:"max=255"`
	Day         string `json:"day" validate:"required,weekday"`
	Time        string `json:"time" validate:"required,clock"`
	DurationMin int    `json:"durationMin" validate:"gt=0,lte=600"`
	Capacity    int    `json:"capacity" validate:"gt=0,lte=500"`
}

type ClassService struct {
	classRepo   classStore
	sessionRepo sessionSlotCreator
	loc         *time.Location
}

func NewClassService(classRepo classStore, sessionRepo sessionSlotCreator, loc *time.Location) *ClassService {
	if loc == nil {
		loc = time.UTC
	}
	return &ClassService{classRepo: classRepo, sessionRepo: sessionRepo, loc: loc}
}

func (s *ClassService) CreateClass(ctx context.Context, input ClassInput) (*models.GymClass, error) {
	input = normalizeClassInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return s.classRepo.Create(ctx, input.toRepo())
}

func (s *ClassService) GetClass(ctx context.Context, id int64) (*models.GymClass, error) {
	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return class, nil
}

func (s *ClassService) UpdateClass(ctx context.Context, id int64, input ClassInput) (*models.GymClass, error) {
	input = normalizeClassInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	class, err := s.classRepo.Update(ctx, id, input.toRepo())
	if err != nil {
		return nil, notFound(err)
	}
	return class, nil
}

func (s *ClassService) DeleteClass(ctx context.Context, id int64) error {
	deleted, err := s.classRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *ClassService) ListClasses(ctx context.Context, query listing.Query) (listing.Page[models.GymClass], error) {
	classes, err := s.classRepo.List(ctx)
	if err != nil {
		return listing.Page[models.GymClass]{}, err
	}
	return listing.Apply(classes, query, ClassTable), nil
}

// GenerateWeek materializes sessions from the class templates for the seven
// days starting at weekStart. Slots that already exist are skipped; only the
// new sessions are returned.
func (s *ClassService) GenerateWeek(ctx context.Context, weekStart string) ([]models.Session, error) {
	start, err := calendar.ParseDate(weekStart, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: weekStart must be YYYY-MM-DD", ErrInvalidInput)
	}

	classes, err := s.classRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	created := make([]models.Session, 0)
	for i := 0; i < calendar.WeekLength; i++ {
		day := start.AddDate(0, 0, i)
		dayName := strings.ToLower(day.Weekday().String())
		for _, class := range classes {
			if class.Day != dayName {
				continue
			}
			session, inserted, err := s.sessionRepo.CreateIfAbsent(ctx, repository.CreateSessionInput{
				ClassID:     class.ID,
				Date:        day.Format(calendar.DateLayout),
				Time:        class.Time,
				DurationMin: class.DurationMin,
				Capacity:    class.Capacity,
			})
			if err != nil {
				return nil, fmt.Errorf("generate session for class %d on %s: %w", class.ID, day.Format(calendar.DateLayout), err)
			}
			if inserted {
				created = append(created, *session)
			}
		}
	}
	return created, nil
}

func normalizeClassInput(input ClassInput) ClassInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Program = strings.TrimSpace(input.Program)
	input.Type = strings.TrimSpace(input.Type)
	input.Coach = strings.TrimSpace(input.Coach)
	input.Day = strings.ToLower(strings.TrimSpace(input.Day))
	input.Time = strings.TrimSpace(input.Time)
	return input
}

func (in ClassInput) toRepo() repository.ClassInput {
	return repository.ClassInput{
		Name:        in.Name,
		Program:     in.Program,
		Type:        in.Type,
		Coach:       in.Coach,
		Day:         in.Day,
		Time:        in.Time,
		DurationMin: in.DurationMin,
		Capacity:    in.Capacity,
	}
}
