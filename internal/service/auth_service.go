package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"dulif-backend/internal/domain"
	"dulif-backend/internal/mail"
	"dulif-backend/internal/security"
)

// AuthService handles campus-gated signup, code verification, and login.
type AuthService struct {
	users  domain.UserRepository
	codes  domain.VerificationRepository
	sender mail.Sender
	tokens *security.TokenService
	hash   *security.PasswordHasher
	log    *zap.Logger

	campusDomain  string
	codeTTL       time.Duration
	maxAttempts   int
	rememberMeTTL time.Duration
}

func NewAuthService(
	users domain.UserRepository,
	codes domain.VerificationRepository,
	sender mail.Sender,
	tokens *security.TokenService,
	hash *security.PasswordHasher,
	log *zap.Logger,
	campusDomain string,
	codeTTL time.Duration,
	maxAttempts int,
	rememberMeTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:         users,
		codes:         codes,
		sender:        sender,
		tokens:        tokens,
		hash:          hash,
		log:           log,
		campusDomain:  campusDomain,
		codeTTL:       codeTTL,
		maxAttempts:   maxAttempts,
		rememberMeTTL: rememberMeTTL,
	}
}

type SignupInput struct {
	Email      string
	FirstName  string
	LastName   string
	Password   string
	RememberMe bool
}

type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// ValidCampusEmail reports whether the address belongs to the configured
// campus domain.
func (s *AuthService) ValidCampusEmail(email string) bool {
	return strings.HasSuffix(strings.ToLower(email), "@"+s.campusDomain)
}

// Signup creates (or refreshes) an inactive account and issues a six-digit
// verification code to the campus address. Re-signup before verification
// replaces the previous code and resets its attempt counter.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !s.ValidCampusEmail(email) {
		return fmt.Errorf("%w: must use a %s email address", domain.ErrInvalidInput, s.campusDomain)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", domain.ErrInvalidInput)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if existing != nil && existing.IsActive {
		return fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	if existing == nil {
		user := &domain.User{
			Email:          email,
			FirstName:      strings.TrimSpace(in.FirstName),
			LastName:       strings.TrimSpace(in.LastName),
			HashedPassword: hashed,
			IsActive:       false,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
	} else {
		existing.FirstName = strings.TrimSpace(in.FirstName)
		existing.LastName = strings.TrimSpace(in.LastName)
		existing.HashedPassword = hashed
		if err := s.users.Update(ctx, existing); err != nil {
			return err
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.codes.Upsert(ctx, &domain.VerificationCode{
		Email:      email,
		Code:       code,
		Attempts:   0,
		RememberMe: in.RememberMe,
		ExpiresAt:  time.Now().UTC().Add(s.codeTTL),
	}); err != nil {
		return err
	}

	if err := s.sender.SendVerificationCode(ctx, email, code); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

// Verify checks a signup code, activates the account, and returns a session
// token. Each wrong guess burns an attempt; the code dies after maxAttempts
// or its TTL, whichever comes first.
func (s *AuthService) Verify(ctx context.Context, email, code string) (*TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	v, err := s.codes.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: no verification request for this email", domain.ErrNotFound)
	}
	if v.Attempts >= s.maxAttempts {
		return nil, fmt.Errorf("%w: too many attempts, request a new code", domain.ErrInvalidInput)
	}
	if time.Now().UTC().After(v.ExpiresAt) {
		return nil, fmt.Errorf("%w: code has expired, request a new one", domain.ErrInvalidInput)
	}
	if v.Code != code {
		if err := s.codes.IncrementAttempts(ctx, email); err != nil {
			s.log.Warn("increment verification attempts", zap.String("email", email), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: invalid code", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: account for %s", domain.ErrNotFound, email)
	}
	if err := s.users.Activate(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	user.IsActive = true

	if err := s.codes.Delete(ctx, email); err != nil {
		s.log.Warn("delete verification code", zap.String("email", email), zap.Error(err))
	}

	return s.issueToken(user, v.RememberMe)
}

// Login authenticates an active account with email and password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: incorrect email or password", domain.ErrUnauthorized)
	}
	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, fmt.Errorf("%w: incorrect email or password", domain.ErrUnauthorized)
	}
	return s.issueToken(user, in.RememberMe)
}

func (s *AuthService) issueToken(user *domain.User, rememberMe bool) (*TokenResponse, error) {
	var token string
	var err error
	if rememberMe {
		token, err = s.tokens.CreateWithTTL(user.ID, s.rememberMeTTL)
	} else {
		token, err = s.tokens.CreateForUser(user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

// generateCode returns a uniformly random six-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
