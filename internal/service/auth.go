package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmgorelik/estore/internal/events"
	"github.com/dmgorelik/estore/internal/hash"
	"github.com/dmgorelik/estore/internal/logging"
	"github.com/dmgorelik/estore/internal/models"
	"github.com/dmgorelik/estore/internal/oauth"
	"github.com/dmgorelik/estore/internal/repo"
	"github.com/dmgorelik/estore/internal/tokens"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUserExists          = errors.New("user already registered")
	ErrNotFound            = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrAccountConflict     = errors.New("account linking conflict")
)

const minPasswordLen = 6

// UserRepo is the persistence surface the identity core depends on.
type UserRepo interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByVKID(ctx context.Context, vkID int64) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUserRole(ctx context.Context, id, role string) (*models.User, error)
	ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error)
}

type AuthService struct {
	Repo     UserRepo
	Issuer   *tokens.Issuer
	Producer *events.Producer
}

// AuthResult is the stable shape every resolution path terminates in:
// a user with at least id and role populated, plus a fresh token pair.
type AuthResult struct {
	User *models.User
	Pair *tokens.Pair
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "email", email)

	if email == "" || len(password) < minPasswordLen {
		return nil, ErrValidation
	}

	_, err := s.Repo.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.Warn("register_rejected", "reason", "email already registered")
		return nil, ErrUserExists
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        &email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		Name:         name,
		Avatar:       models.DefaultAvatar,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a concurrent registration for the same email.
			l.Warn("register_rejected", "reason", "email already registered")
			return nil, ErrUserExists
		}
		return nil, err
	}

	pair, err := s.Issuer.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "user_registered", user.ID)
	l.Info("register_successful", "user_id", user.ID)
	return &AuthResult{User: user, Pair: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	if email == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "reason", "unknown email")
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Issuer.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "user_logged_in", user.ID)
	l.Info("login_successful", "user_id", user.ID)
	return &AuthResult{User: user, Pair: pair}, nil
}

// Refresh exchanges a still-valid refresh token for a new pair. Validity is
// signature + expiry only; an older refresh token is not invalidated by a
// newer one.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Issuer.VerifyRefresh(rawRefresh)
	if err != nil {
		l.Warn("refresh_rejected", "reason", "invalid token")
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	user, err := s.Repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_rejected", "reason", "user no longer exists", "user_id", claims.UserID)
			return nil, ErrNotFound
		}
		return nil, err
	}

	pair, err := s.Issuer.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Pair: pair}, nil
}

// OAuthLogin resolves a federated profile to a canonical user, creating one
// when absent. Lookup order: external id first, then email. A uniqueness
// violation on create means another request won the race, so the lookup is
// retried once instead of surfacing the conflict.
func (s *AuthService) OAuthLogin(ctx context.Context, profile *oauth.Profile) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.oauth")

	user, err := s.lookupByProfile(ctx, profile)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	if user == nil {
		user = &models.User{
			Email:  profile.Email,
			VKID:   profile.VKID,
			Role:   models.RoleUser,
			Name:   profile.Name,
			Avatar: profile.Avatar,
		}
		if user.Avatar == "" {
			user.Avatar = models.DefaultAvatar
		}
		if err := s.Repo.CreateUser(ctx, user); err != nil {
			if !errors.Is(err, repo.ErrDuplicate) {
				return nil, err
			}
			// Someone else created this identity between lookup and
			// create; the retried lookup must now succeed.
			l.Info("oauth_create_race", "retrying", true)
			user, err = s.lookupByProfile(ctx, profile)
			if err != nil {
				return nil, err
			}
		} else {
			s.publish(ctx, "user_registered", user.ID)
		}
	}

	pair, err := s.Issuer.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "user_logged_in", user.ID)
	l.Info("oauth_login_successful", "user_id", user.ID)
	return &AuthResult{User: user, Pair: pair}, nil
}

func (s *AuthService) lookupByProfile(ctx context.Context, profile *oauth.Profile) (*models.User, error) {
	if profile.VKID != nil {
		user, err := s.Repo.FindUserByVKID(ctx, *profile.VKID)
		if err == nil || !errors.Is(err, repo.ErrNotFound) {
			return user, err
		}
		// External id unknown. An email match against a row already linked
		// to a different external id would silently merge two identities;
		// refuse instead.
		if profile.Email != nil {
			byEmail, err := s.Repo.FindUserByEmail(ctx, *profile.Email)
			if err != nil {
				return nil, err
			}
			if byEmail.VKID != nil && *byEmail.VKID != *profile.VKID {
				return nil, ErrAccountConflict
			}
			return byEmail, nil
		}
		return nil, repo.ErrNotFound
	}

	if profile.Email != nil {
		return s.Repo.FindUserByEmail(ctx, *profile.Email)
	}
	return nil, repo.ErrNotFound
}

func (s *AuthService) publish(ctx context.Context, eventType, userID string) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishUserEvent(pubCtx, eventType, userID); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", eventType, "error", err)
	}
}
