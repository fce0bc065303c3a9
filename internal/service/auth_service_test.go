package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"dulif-backend/internal/domain"
	"dulif-backend/internal/mail"
	"dulif-backend/internal/security"
	"dulif-backend/internal/service"
)

func newAuthService(users *MockUserRepo, codes *MockVerificationRepo, sender mail.Sender) *service.AuthService {
	return service.NewAuthService(
		users,
		codes,
		sender,
		security.NewTokenService("test-secret", time.Hour),
		security.NewPasswordHasher(4), // low cost for tests
		zap.NewNop(),
		"berkeley.edu",
		10*time.Minute,
		3,
		30*24*time.Hour,
	)
}

type captureSender struct {
	email string
	code  string
}

func (s *captureSender) SendVerificationCode(ctx context.Context, email, code string) error {
	s.email = email
	s.code = code
	return nil
}

func TestSignup(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		codes := new(MockVerificationRepo)
		sender := &captureSender{}
		svc := newAuthService(users, codes, sender)

		users.On("GetByEmail", mock.Anything, "oski@berkeley.edu").Return(nil, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "oski@berkeley.edu" && !u.IsActive && u.HashedPassword != ""
		})).Return(nil)
		codes.On("Upsert", mock.Anything, mock.MatchedBy(func(v *domain.VerificationCode) bool {
			return v.Email == "oski@berkeley.edu" && len(v.Code) == 6 && v.Attempts == 0
		})).Return(nil)

		err := svc.Signup(context.Background(), service.SignupInput{
			Email:     "Oski@Berkeley.EDU",
			FirstName: "Oski",
			LastName:  "Bear",
			Password:  "Password1!",
		})
		assert.NoError(t, err)
		assert.Equal(t, "oski@berkeley.edu", sender.email)
		assert.Len(t, sender.code, 6)
	})

	t.Run("NonCampusEmail", func(t *testing.T) {
		svc := newAuthService(new(MockUserRepo), new(MockVerificationRepo), &captureSender{})
		err := svc.Signup(context.Background(), service.SignupInput{
			Email:     "someone@gmail.com",
			FirstName: "A",
			LastName:  "B",
			Password:  "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ActiveAccountConflict", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users, new(MockVerificationRepo), &captureSender{})

		users.On("GetByEmail", mock.Anything, "taken@berkeley.edu").
			Return(&domain.User{ID: "u1", Email: "taken@berkeley.edu", IsActive: true}, nil)

		err := svc.Signup(context.Background(), service.SignupInput{
			Email:     "taken@berkeley.edu",
			FirstName: "A",
			LastName:  "B",
			Password:  "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("ResignupRefreshesInactiveAccount", func(t *testing.T) {
		users := new(MockUserRepo)
		codes := new(MockVerificationRepo)
		svc := newAuthService(users, codes, &captureSender{})

		inactive := &domain.User{ID: "u1", Email: "oski@berkeley.edu", IsActive: false}
		users.On("GetByEmail", mock.Anything, "oski@berkeley.edu").Return(inactive, nil)
		users.On("Update", mock.Anything, inactive).Return(nil)
		codes.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		err := svc.Signup(context.Background(), service.SignupInput{
			Email:     "oski@berkeley.edu",
			FirstName: "Oski",
			LastName:  "Bear",
			Password:  "NewPassword1!",
		})
		assert.NoError(t, err)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestVerify(t *testing.T) {
	code := func(attempts int, expires time.Time) *domain.VerificationCode {
		return &domain.VerificationCode{
			Email:     "oski@berkeley.edu",
			Code:      "123456",
			Attempts:  attempts,
			ExpiresAt: expires,
		}
	}

	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		codes := new(MockVerificationRepo)
		svc := newAuthService(users, codes, &captureSender{})

		codes.On("Get", mock.Anything, "oski@berkeley.edu").
			Return(code(0, time.Now().UTC().Add(5*time.Minute)), nil)
		users.On("GetByEmail", mock.Anything, "oski@berkeley.edu").
			Return(&domain.User{ID: "u1", Email: "oski@berkeley.edu"}, nil)
		users.On("Activate", mock.Anything, "u1").Return(nil)
		codes.On("Delete", mock.Anything, "oski@berkeley.edu").Return(nil)

		token, err := svc.Verify(context.Background(), "oski@berkeley.edu", "123456")
		assert.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)
		assert.Equal(t, "bearer", token.TokenType)
		assert.True(t, token.User.IsActive)
	})

	t.Run("WrongCodeBurnsAttempt", func(t *testing.T) {
		users := new(MockUserRepo)
		codes := new(MockVerificationRepo)
		svc := newAuthService(users, codes, &captureSender{})

		codes.On("Get", mock.Anything, "oski@berkeley.edu").
			Return(code(0, time.Now().UTC().Add(5*time.Minute)), nil)
		codes.On("IncrementAttempts", mock.Anything, "oski@berkeley.edu").Return(nil)

		_, err := svc.Verify(context.Background(), "oski@berkeley.edu", "000000")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		codes.AssertCalled(t, "IncrementAttempts", mock.Anything, "oski@berkeley.edu")
	})

	t.Run("TooManyAttempts", func(t *testing.T) {
		codes := new(MockVerificationRepo)
		svc := newAuthService(new(MockUserRepo), codes, &captureSender{})

		codes.On("Get", mock.Anything, "oski@berkeley.edu").
			Return(code(3, time.Now().UTC().Add(5*time.Minute)), nil)

		_, err := svc.Verify(context.Background(), "oski@berkeley.edu", "123456")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ExpiredCode", func(t *testing.T) {
		codes := new(MockVerificationRepo)
		svc := newAuthService(new(MockUserRepo), codes, &captureSender{})

		codes.On("Get", mock.Anything, "oski@berkeley.edu").
			Return(code(0, time.Now().UTC().Add(-time.Minute)), nil)

		_, err := svc.Verify(context.Background(), "oski@berkeley.edu", "123456")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("NoPendingCode", func(t *testing.T) {
		codes := new(MockVerificationRepo)
		svc := newAuthService(new(MockUserRepo), codes, &captureSender{})

		codes.On("Get", mock.Anything, "nobody@berkeley.edu").Return(nil, nil)

		_, err := svc.Verify(context.Background(), "nobody@berkeley.edu", "123456")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLogin(t *testing.T) {
	hasher := security.NewPasswordHasher(4)
	hashed, _ := hasher.Hash("Password1!")
	active := &domain.User{ID: "u1", Email: "oski@berkeley.edu", HashedPassword: hashed, IsActive: true}

	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users, new(MockVerificationRepo), &captureSender{})

		users.On("GetByEmail", mock.Anything, "oski@berkeley.edu").Return(active, nil)

		token, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "oski@berkeley.edu",
			Password: "Password1!",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)
		assert.Equal(t, "u1", token.User.ID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users, new(MockVerificationRepo), &captureSender{})

		users.On("GetByEmail", mock.Anything, "oski@berkeley.edu").Return(active, nil)

		_, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "oski@berkeley.edu",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users, new(MockVerificationRepo), &captureSender{})

		inactive := &domain.User{ID: "u2", Email: "new@berkeley.edu", HashedPassword: hashed, IsActive: false}
		users.On("GetByEmail", mock.Anything, "new@berkeley.edu").Return(inactive, nil)

		_, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "new@berkeley.edu",
			Password: "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users, new(MockVerificationRepo), &captureSender{})

		users.On("GetByEmail", mock.Anything, "ghost@berkeley.edu").Return(nil, nil)

		_, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "ghost@berkeley.edu",
			Password: "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
