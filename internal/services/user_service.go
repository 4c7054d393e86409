package services

import (
	"context"
	"errors"

	"github.com/welcomechat/ingest/internal/core"
	"github.com/welcomechat/ingest/internal/models"
)

type UserService struct {
	db core.DbClient
}

func NewUserService(db core.DbClient) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, u *models.ClientUser) error {
	if u == nil || u.Email == "" || u.PasswordHash == "" {
		return errors.New("invalid user payload")
	}
	return s.db.CreateClientUser(ctx, u)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.ClientUser, error) {
	return s.db.GetClientUserByEmail(ctx, email)
}
