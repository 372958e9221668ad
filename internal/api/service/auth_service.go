package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reviewhub/internal/api/models"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/api/validation"
	"reviewhub/internal/config"
	"reviewhub/internal/mail"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
)

// Claims is the access-token payload. Role is a snapshot at issue time; the
// auth middleware reloads the user row, so stale roles cannot grant access.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	SignUp(ctx context.Context, username, email string) (*models.User, error)
	IssueToken(ctx context.Context, username, confirmationCode string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	mailer         mail.Mailer
	codes          *codeGenerator
	jwtSecret      string
	accessTokenTTL time.Duration
	logger         *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	mailer mail.Mailer,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		mailer:         mailer,
		codes:          newCodeGenerator(cfg.JWTSecret, cfg.ConfirmationCodeTTL),
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
		logger:         logger,
	}
}

// SignUp gets or creates the identity row for the exact (username, email)
// pair, derives a fresh confirmation code and emails it. A username or email
// already bound to a different pairing is a field-level validation error.
// Calling signup again for the same pair simply re-issues a code.
func (s *authService) SignUp(ctx context.Context, username, email string) (*models.User, error) {
	if err := validation.Username(username); err != nil {
		return nil, NewFieldError("username", err.Error())
	}

	user, err := s.lookupOrCreate(ctx, username, email)
	if err != nil {
		return nil, err
	}

	code := s.codes.MakeCode(user, time.Now())
	s.dispatchCode(user.Email, code)

	return user, nil
}

func (s *authService) lookupOrCreate(ctx context.Context, username, email string) (*models.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Email != email {
			return nil, NewFieldError("email", "username is registered with a different email")
		}
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	// Username free; the email must be free too, or it belongs to someone else.
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, NewFieldError("username", "email is registered with a different username")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Both pre-checks passed but a concurrent signup won the insert.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewFieldError("username", "username and email must be unique")
		}
		return nil, err
	}
	return user, nil
}

// dispatchCode is fire-and-forget: a delivery failure is logged and nothing
// more, because the next signup call derives an equally valid code.
func (s *authService) dispatchCode(email, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		body := fmt.Sprintf("Your confirmation code: %q.", code)
		if err := s.mailer.Send(ctx, email, "Confirmation code", body); err != nil {
			s.logger.Error("failed to send confirmation code", "email", email, "error", err)
		}
	}()
}

// IssueToken trades a valid confirmation code for a bearer token. Unknown
// username is a 404; a stale or wrong code is a validation error.
func (s *authService) IssueToken(ctx context.Context, username, confirmationCode string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if !s.codes.CheckCode(user, confirmationCode, time.Now()) {
		return "", ErrInvalidConfirmationCode
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
