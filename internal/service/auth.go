package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/divineshop/internal/model"
	"github.com/mmeshcher/divineshop/internal/repository"
	"github.com/mmeshcher/divineshop/internal/validation"
)

// Signup регистрирует нового пользователя. Пароль сохраняется только в виде bcrypt-хеша.
func (s *Service) Signup(ctx context.Context, in model.NewUser) (*model.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = defaultRole
	}

	return s.repo.CreateUser(ctx, model.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         role,
		Avatar:       in.Avatar,
	})
}

// Authenticate проверяет логин и пароль пользователя.
func (s *Service) Authenticate(ctx context.Context, creds model.Credentials) (*model.User, error) {
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser возвращает пользователя.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}
