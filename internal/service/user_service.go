package service

import (
	"context"
	"fmt"
	"strings"

	"dulif-backend/internal/domain"
)

// UserService provides user-related operations.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return u, nil
}

type ProfileUpdateInput struct {
	FirstName *string
	LastName  *string
	PhotoURL  *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdateInput) (*domain.User, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" {
			return nil, fmt.Errorf("%w: first name cannot be empty", domain.ErrInvalidInput)
		}
		u.FirstName = name
	}
	if in.LastName != nil {
		name := strings.TrimSpace(*in.LastName)
		if name == "" {
			return nil, fmt.Errorf("%w: last name cannot be empty", domain.ErrInvalidInput)
		}
		u.LastName = name
	}
	if in.PhotoURL != nil {
		u.PhotoURL = in.PhotoURL
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
