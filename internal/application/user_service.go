package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-ticket-booking/internal/domain/user"
)

// UserService はユーザーのCRUDユースケースを提供する
type UserService struct {
	userRepo user.Repository
}

func NewUserService(userRepo user.Repository) *UserService {
	return &UserService{userRepo: userRepo}
}

type CreateUserInput struct {
	Name  string
	Email string
}

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*user.User, error) {
	u := user.NewUser(input.Name, input.Email)
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

func (s *UserService) SearchUsersByName(ctx context.Context, name string, limit, offset int) ([]*user.User, error) {
	if name == "" {
		return []*user.User{}, nil
	}
	limit, offset = normalizePaging(limit, offset)
	return s.userRepo.SearchByName(ctx, name, limit, offset)
}

type UpdateUserInput struct {
	ID    string
	Name  string
	Email string
}

func (s *UserService) UpdateUser(ctx context.Context, input UpdateUserInput) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	u.Name = input.Name
	u.Email = input.Email
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.userRepo.Delete(ctx, id)
}
