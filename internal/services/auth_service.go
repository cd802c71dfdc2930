package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/repository"
	"github.com/nicolasdagostino/a615-sub000/pkg/utils"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	db        *pgxpool.Pool
	userRepo  *repository.UserRepository
	jwtSecret string
}

func NewAuthService(db *pgxpool.Pool, userRepo *repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{db: db, userRepo: userRepo, jwtSecret: jwtSecret}
}

// Register creates an account. Self sign-up only yields athletes; an admin
// actor may create coaches and admins. Athletes get a linked member row in
// the same transaction.
func (s *AuthService) Register(ctx context.Context, actorRole string, input RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	role, err := registrationRole(actorRole, input.Role)
	if err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, PasswordHash: hashed, Role: role, Name: name}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := repository.NewUserRepository(tx).CreateUser(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if role == models.RoleAthlete {
		userID := user.ID
		if _, err := repository.NewMemberRepository(tx).Create(ctx, repository.MemberInput{
			UserID: &userID,
			Name:   name,
			Email:  email,
			Status: models.MemberActive,
		}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet. It
// reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, nil
	}
	count, err := s.userRepo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Register(ctx, models.RoleAdmin, RegisterInput{
		Email:    email,
		Password: password,
		Name:     "Admin",
		Role:     models.RoleAdmin,
	}); err != nil {
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(strconv.FormatInt(user.ID, 10), user.Role, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(raw string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return strings.ToLower(parsed.Address), nil
}

func registrationRole(actorRole, requested string) (string, error) {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if requested == "" {
		requested = models.RoleAthlete
	}
	switch requested {
	case models.RoleAthlete:
		return requested, nil
	case models.RoleCoach, models.RoleAdmin:
		if actorRole != models.RoleAdmin {
			return "", ErrForbidden
		}
		return requested, nil
	default:
		return "", fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
}
