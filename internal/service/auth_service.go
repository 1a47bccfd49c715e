package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/repository"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sessionTTL  time.Duration
	validate    *validator.Validate
	log         *slog.Logger
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, sessionTTL time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sessionTTL:  sessionTTL,
		validate:    validator.New(),
		log:         sl.OrDiscard(log),
		now:         time.Now,
	}
}

type RegisterInput struct {
	Username string `validate:"required,min=3,max=50"`
	Email    string `validate:"required,email,max=100"`
	Password string `validate:"required,min=6"`
}

type LoginInput struct {
	Username string
	Password string
}

type LoginResult struct {
	User  *domain.User
	Token string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	const op = "service.AuthService.Register"

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := s.validate.Struct(input); err != nil {
		return nil, registrationError(err)
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, domain.ErrDuplicateIdentity
	}

	salt, hash, err := HashPassword(input.Password, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Salt:         salt,
		CreatedAt:    s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("op", op), slog.String("user_id", user.ID.String()))
	return user, nil
}

// registrationError turns validator output into the message shown to the
// client. A missing field wins over any other complaint.
func registrationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("Invalid registration data")
	}

	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return domain.NewValidationError("All fields are required")
		}
	}

	fe := verrs[0]
	switch {
	case fe.Field() == "Username" && fe.Tag() == "min":
		return domain.NewValidationError("Username must be at least 3 characters")
	case fe.Field() == "Username" && fe.Tag() == "max":
		return domain.NewValidationError("Username must be at most 50 characters")
	case fe.Field() == "Password":
		return domain.NewValidationError("Password must be at least 6 characters")
	case fe.Field() == "Email" && fe.Tag() == "max":
		return domain.NewValidationError("Email must be at most 100 characters")
	case fe.Field() == "Email":
		return domain.NewValidationError("Please provide a valid email address")
	default:
		return domain.NewValidationError("Invalid registration data")
	}
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	const op = "service.AuthService.Login"

	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domain.NewValidationError("Username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !VerifyPassword(input.Password, user.PasswordHash, user.Salt) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	session := &domain.UserSession{
		ID:           uuid.New(),
		UserID:       user.ID,
		SessionToken: token,
		ExpiresAt:    now.Add(s.sessionTTL),
		CreatedAt:    now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to update last login", slog.String("op", op), sl.Err(err))
	} else {
		user.LastLogin = &now
	}

	return &LoginResult{User: user, Token: token}, nil
}

// Resolve returns the identity behind token, or nil when the token is empty,
// unknown or expired. Storage failures are logged and also yield nil.
func (s *AuthService) Resolve(ctx context.Context, token string) *domain.Identity {
	const op = "service.AuthService.Resolve"

	if token == "" {
		return nil
	}

	session, err := s.sessionRepo.GetLiveByToken(ctx, token, s.now())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("failed to resolve session", slog.String("op", op), sl.Err(err))
		}
		return nil
	}

	if session.User != nil {
		return session.User.Identity()
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("failed to load session user", slog.String("op", op), sl.Err(err))
		}
		return nil
	}
	return user.Identity()
}

// Logout revokes token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	const op = "service.AuthService.Logout"

	if token == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*domain.Identity, error) {
	const op = "service.AuthService.Profile"

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user.Identity(), nil
}

func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	const op = "service.AuthService.CleanupExpiredSessions"

	n, err := s.sessionRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		s.log.Info("expired sessions removed", slog.String("op", op), slog.Int64("count", n))
	}
	return n, nil
}
