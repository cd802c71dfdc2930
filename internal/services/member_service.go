package services

import (
	"cmp"
	"context"
	"strings"

	"github.com/nicolasdagostino/a615-sub000/internal/listing"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/repository"
)

type memberStore interface {
	Create(ctx context.Context, input repository.MemberInput) (*models.Member, error)
	GetByID(ctx context.Context, id int64) (*models.Member, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Member, error)
	Update(ctx context.Context, id int64, input repository.MemberInput) (*models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
}

var MemberTable = listing.Table[models.Member]{
	SearchFields: func(m models.Member) []string {
		return []string{m.Name, m.Email, m.Phone}
	},
	Filters: map[string]func(m models.Member, value string) bool{
		"status": func(m models.Member, v string) bool { return listing.Equal(m.Status, v) },
		"plan":   func(m models.Member, v string) bool { return listing.Equal(m.Plan, v) },
	},
	Sorters: map[string]func(a, b models.Member) int{
		"name":   func(a, b models.Member) int { return listing.CompareStrings(a.Name, b.Name) },
		"joined": func(a, b models.Member) int { return cmp.Compare(a.JoinedAt, b.JoinedAt) },
	},
	DefaultSort: "name",
	DefaultDir:  listing.DirAsc,
}

type MemberInput struct {
	UserID   *int64 `json:"userId" validate:"omitempty,gt=0"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=64"`
	Plan     string `json:"plan" validate:"max=64"`
	Status   string `json:"status" validate:"oneof=active inactive"`
	JoinedAt string `json:"joinedAt" validate:"omitempty,isodate"`
}

type MemberService struct {
	memberRepo memberStore
}

func NewMemberService(memberRepo memberStore) *MemberService {
	return &MemberService{memberRepo: memberRepo}
}

func (s *MemberService) CreateMember(ctx context.Context, input MemberInput) (*models.Member, error) {
	input = normalizeMemberInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.Create(ctx, input.toRepo())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return member, nil
}

func (s *MemberService) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return member, nil
}

func (s *MemberService) UpdateMember(ctx context.Context, id int64, input MemberInput) (*models.Member, error) {
	input = normalizeMemberInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.Update(ctx, id, input.toRepo())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, notFound(err)
	}
	return member, nil
}

func (s *MemberService) ListMembers(ctx context.Context, query listing.Query) (listing.Page[models.Member], error) {
	members, err := s.memberRepo.List(ctx)
	if err != nil {
		return listing.Page[models.Member]{}, err
	}
	return listing.Apply(members, query, MemberTable), nil
}

func normalizeMemberInput(input MemberInput) MemberInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Plan = strings.TrimSpace(input.Plan)
	input.Status = strings.ToLower(strings.TrimSpace(input.Status))
	if input.Status == "" {
		input.Status = models.MemberActive
	}
	input.JoinedAt = strings.TrimSpace(input.JoinedAt)
	return input
}

func (in MemberInput) toRepo() repository.MemberInput {
	return repository.MemberInput{
		UserID:   in.UserID,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Plan:     in.Plan,
		Status:   in.Status,
		JoinedAt: in.JoinedAt,
	}
}
