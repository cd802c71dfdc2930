// Package wodstore keeps every WOD and its comments in one JSON blob under a
// single key. Writes replace the whole blob.
package wodstore

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

const (
	dateLayout        = "2006-01-02"
	maxCommentRunes   = 1000
	maxSectionEntries = 50
)

var (
	ErrNotFound       = errors.New("wod not found")
	ErrInvalidWOD     = errors.New("invalid wod")
	ErrInvalidComment = errors.New("invalid comment")
	ErrInvalidDate    = errors.New("date must be YYYY-MM-DD")
)

type Store interface {
	List(ctx context.Context) ([]models.WOD, error)
	Get(ctx context.Context, date string) (*models.WOD, error)
	Upsert(ctx context.Context, wod models.WOD) (models.WOD, bool, error)
	Delete(ctx context.Context, date string) (bool, error)
	Comments(ctx context.Context, date string) ([]models.WODComment, error)
	AddComment(ctx context.Context, date, text string) (*models.WODComment, error)
	DeleteComment(ctx context.Context, date, commentID string) (bool, error)
	Close() error
}

// blob is the persisted document.
type blob struct {
	WODs     []models.WOD                   `json:"wods"`
	Comments map[string][]models.WODComment `json:"comments"`
}

func newBlob() *blob {
	return &blob{WODs: []models.WOD{}, Comments: map[string][]models.WODComment{}}
}

func (b *blob) ensure() {
	if b.WODs == nil {
		b.WODs = []models.WOD{}
	}
	if b.Comments == nil {
		b.Comments = map[string][]models.WODComment{}
	}
}

// clone deep-copies the blob so a failed write leaves the original intact.
func (b *blob) clone() *blob {
	out := &blob{
		WODs:     make([]models.WOD, 0, len(b.WODs)),
		Comments: make(map[string][]models.WODComment, len(b.Comments)),
	}
	for _, wod := range b.WODs {
		out.WODs = append(out.WODs, cloneWOD(wod))
	}
	for date, comments := range b.Comments {
		out.Comments[date] = slices.Clone(comments)
	}
	return out
}

func cloneWOD(wod models.WOD) models.WOD {
	wod.Warmup = slices.Clone(wod.Warmup)
	wod.Strength = slices.Clone(wod.Strength)
	wod.Metcon = slices.Clone(wod.Metcon)
	wod.RX = slices.Clone(wod.RX)
	wod.Scaled = slices.Clone(wod.Scaled)
	return wod
}

func (b *blob) find(date string) int {
	for i := range b.WODs {
		if b.WODs[i].Date == date {
			return i
		}
	}
	return -1
}

func (b *blob) list() []models.WOD {
	out := make([]models.WOD, 0, len(b.WODs))
	for _, wod := range b.WODs {
		out = append(out, cloneWOD(wod))
	}
	slices.SortFunc(out, func(x, y models.WOD) int {
		return strings.Compare(y.Date, x.Date)
	})
	return out
}

func (b *blob) get(date string) (*models.WOD, error) {
	i := b.find(date)
	if i < 0 {
		return nil, ErrNotFound
	}
	wod := cloneWOD(b.WODs[i])
	return &wod, nil
}

// upsert replaces the WOD with the same date or appends it. It reports
// whether the WOD was created.
func (b *blob) upsert(wod models.WOD) bool {
	if i := b.find(wod.Date); i >= 0 {
		b.WODs[i] = wod
		return false
	}
	b.WODs = append(b.WODs, wod)
	return true
}

func (b *blob) remove(date string) bool {
	i := b.find(date)
	if i < 0 {
		return false
	}
	b.WODs = slices.Delete(b.WODs, i, i+1)
	delete(b.Comments, date)
	return true
}

func (b *blob) comments(date string) []models.WODComment {
	out := slices.Clone(b.Comments[date])
	slices.SortStableFunc(out, func(x, y models.WODComment) int {
		return x.CreatedAt.Compare(y.CreatedAt)
	})
	if out == nil {
		out = []models.WODComment{}
	}
	return out
}

func (b *blob) addComment(date string, comment models.WODComment) error {
	if b.find(date) < 0 {
		return ErrNotFound
	}
	b.Comments[date] = append(b.Comments[date], comment)
	return nil
}

func (b *blob) removeComment(date, id string) bool {
	list := b.Comments[date]
	for i := range list {
		if list[i].ID == id {
			list = slices.Delete(list, i, i+1)
			if len(list) == 0 {
				delete(b.Comments, date)
			} else {
				b.Comments[date] = list
			}
			return true
		}
	}
	return false
}

// Normalize validates a WOD and trims its text. Empty section entries are
// dropped and nil sections become empty lists.
func Normalize(wod models.WOD) (models.WOD, error) {
	if err := ValidateDate(wod.Date); err != nil {
		return models.WOD{}, err
	}
	wod.Date = strings.TrimSpace(wod.Date)
	wod.Title = strings.TrimSpace(wod.Title)
	wod.Intent = strings.TrimSpace(wod.Intent)
	if wod.Title == "" {
		return models.WOD{}, ErrInvalidWOD
	}

	var err error
	for _, section := range []*[]string{&wod.Warmup, &wod.Strength, &wod.Metcon, &wod.RX, &wod.Scaled} {
		if *section, err = cleanSection(*section); err != nil {
			return models.WOD{}, err
		}
	}
	return wod, nil
}

func cleanSection(entries []string) ([]string, error) {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) > maxSectionEntries {
		return nil, ErrInvalidWOD
	}
	return out, nil
}

func ValidateDate(date string) error {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(date)); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func newComment(text string, now time.Time) (models.WODComment, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxCommentRunes {
		return models.WODComment{}, ErrInvalidComment
	}
	return models.WODComment{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: now.UTC(),
	}, nil
}
