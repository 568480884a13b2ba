package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmgorelik/estore/internal/cache"
	"github.com/dmgorelik/estore/internal/logging"
	"github.com/dmgorelik/estore/internal/models"
	"github.com/dmgorelik/estore/internal/repo"
)

const userCacheTTL = time.Hour

type UsersService struct {
	Repo  UserRepo
	Cache *cache.Cache
}

type UserPage struct {
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Items []models.User `json:"items"`
}

func userCacheKey(id string) string { return fmt.Sprintf("user_%s", id) }

func (s *UsersService) GetByID(ctx context.Context, id string) (*models.User, error) {
	key := userCacheKey(id)

	var cached models.User
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.Cache.Set(ctx, key, user, userCacheTTL)
	return user, nil
}

func (s *UsersService) List(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 24 {
		limit = 24
	}

	total, items, err := s.Repo.ListUsers(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &UserPage{Total: total, Page: page, Limit: limit, Items: items}, nil
}

// UpdateRole mutates the stored role. Tokens already in the wild keep their
// embedded role claim until the holder refreshes or logs in again.
func (s *UsersService) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update_role", "user_id", id)

	switch role {
	case models.RoleUser, models.RoleEmployees, models.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	user, err := s.Repo.UpdateUserRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.Cache.Del(ctx, userCacheKey(id))
	l.Info("role_updated", "role", role)
	return user, nil
}
