package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

const (
	mockUserID   = "1"
	mockUserName = "Usuario Demo"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=auth
type Repository interface {
	Load(ctx context.Context) (*User, error)
	Save(ctx context.Context, u *User) error
	Clear(ctx context.Context) error
}

type Config struct {
	Secret []byte
	TTL    time.Duration
	// Delay simulates the latency of a remote provider.
	Delay time.Duration
}

// Service is a mock authentication provider: any well-formed credentials are
// accepted and the resulting user is remembered by the repository.
type Service struct {
	repo     Repository
	cfg      Config
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, cfg Config) *Service {
	return &Service{
		repo:     repo,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// SetClock overrides time.Now.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type loginParams struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerParams struct {
	Name     string `validate:"required,min=2,max=60"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	params := loginParams{Email: strings.TrimSpace(email), Password: password}
	if err := s.validate.Struct(params); err != nil {
		return Session{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, firstField(err))
	}

	if err := s.wait(ctx); err != nil {
		return Session{}, err
	}

	u := &User{ID: mockUserID, Name: mockUserName, Email: params.Email}

	// returning users keep their profile and welcome flag
	if prev, err := s.repo.Load(ctx); err == nil && prev != nil && strings.EqualFold(prev.Email, params.Email) {
		u.Name = prev.Name
		u.IsNew = prev.IsNew
	}

	return s.remember(ctx, u)
}

func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	params := registerParams{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := s.validate.Struct(params); err != nil {
		return Session{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, firstField(err))
	}

	if err := s.wait(ctx); err != nil {
		return Session{}, err
	}

	return s.remember(ctx, &User{ID: mockUserID, Name: params.Name, Email: params.Email, IsNew: true})
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clearing user: %w", err)
	}

	slog.InfoContext(ctx, "user logged out")

	return nil
}

// Current returns the remembered user or ErrUnauthorized.
func (s *Service) Current(ctx context.Context) (User, error) {
	u, err := s.repo.Load(ctx)
	if err != nil {
		return User{}, fmt.Errorf("loading user: %w", err)
	}

	if u == nil {
		return User{}, ErrUnauthorized
	}

	return *u, nil
}

// DismissWelcome clears the new-user flag of the remembered user.
func (s *Service) DismissWelcome(ctx context.Context) error {
	u, err := s.Current(ctx)
	if err != nil {
		return err
	}

	u.IsNew = false

	return s.repo.Save(ctx, &u)
}

type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue signs a session token for u.
func (s *Service) Issue(u User) (Session, error) {
	now := s.now()
	exp := now.Add(s.cfg.TTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return Session{}, fmt.Errorf("signing token: %w", err)
	}

	return Session{User: u, Token: signed, ExpiresAt: exp}, nil
}

// Verify checks the signature and expiry of a token and returns its user.
func (s *Service) Verify(token string) (User, error) {
	var c claims

	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	return User{ID: c.Subject, Name: c.Name, Email: c.Email}, nil
}

func (s *Service) remember(ctx context.Context, u *User) (Session, error) {
	if err := s.repo.Save(ctx, u); err != nil {
		return Session{}, fmt.Errorf("saving user: %w", err)
	}

	slog.InfoContext(ctx, "user signed in", "email", u.Email, "new", u.IsNew)

	return s.Issue(*u)
}

func (s *Service) wait(ctx context.Context) error {
	if s.cfg.Delay <= 0 {
		return nil
	}

	t := time.NewTimer(s.cfg.Delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstField(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]

	switch fe.Field() {
	case "Email":
		return "a valid email is required"
	case "Password":
		if fe.Tag() == "min" {
			return "password must have at least 6 characters"
		}

		return "password is required"
	case "Name":
		return "name must be between 2 and 60 characters"
	}

	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}
