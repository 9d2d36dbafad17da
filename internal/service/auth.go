package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/eventbus"
	"github.com/festiva/festiva/internal/hash"
	"github.com/festiva/festiva/internal/logging"
	"github.com/festiva/festiva/internal/models"
	"github.com/festiva/festiva/internal/policy"
	"github.com/festiva/festiva/internal/repo"
	"github.com/festiva/festiva/internal/tokens"
)

// Publisher is the slice of the event bus the services need.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type AuthService struct {
	Users    *repo.UserRepo
	Refresh  *repo.RefreshRepo
	Producer Publisher

	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type RegisterResult struct {
	User        *models.User
	AccessToken string
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

func (s *AuthService) Register(ctx context.Context, username, email, password, role string) (*RegisterResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", apperr.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", apperr.ErrValidation)
	}

	parsedRole, err := policy.ParseRole(role)
	if err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         string(parsedRole),
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			l.Warn("register_failed", "status", 409, "reason", "duplicate username or email")
			return nil, err
		}
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, err
	}

	accessToken, _, err := tokens.SignAccess(user.ID, user.Username, user.Email, user.Role, s.AccessSecret, s.AccessTTL)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}

	s.publish(ctx, eventbus.TopicUserEvents, user.ID, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("register_success", "user_id", user.ID)
	return &RegisterResult{User: user, AccessToken: accessToken}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperr.ErrValidation)
	}

	user, err := s.Users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			return nil, fmt.Errorf("%w: invalid email or password", apperr.ErrInvalidCredentials)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, fmt.Errorf("%w: invalid email or password", apperr.ErrInvalidCredentials)
	}

	accessToken, accessExp, err := tokens.SignAccess(user.ID, user.Username, user.Email, user.Role, s.AccessSecret, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, jti, refreshExp, err := tokens.SignRefresh(user.ID, s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh.Save(ctx, refreshToken, jti, user.ID, refreshExp); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	s.publish(ctx, eventbus.TopicUserEvents, user.ID, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

// RotateResult carries the freshly minted pair after a refresh.
type RotateResult struct {
	AccessToken  string
	RefreshToken string
	RefreshExp   time.Time
}

// Rotate validates the presented refresh token against both its signature and
// the stored row, re-reads the user so the new access claim carries the
// current username/email/role, and rotates the refresh token.
func (s *AuthService) Rotate(ctx context.Context, rawRefresh string) (*RotateResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.ParseRefresh(rawRefresh, s.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: refresh token expired", apperr.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: cannot parse refresh token", apperr.ErrInvalidToken)
	}

	if _, err := s.Refresh.Validate(ctx, claims.ID); err != nil {
		l.Warn("refresh_failed", "status", 403, "reason", "token unusable", "error", err)
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", apperr.ErrInvalidToken)
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: subject no longer exists", apperr.ErrInvalidToken)
		}
		return nil, err
	}

	newAccess, _, err := tokens.SignAccess(user.ID, user.Username, user.Email, user.Role, s.AccessSecret, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	newRefresh, newJTI, refreshExp, err := tokens.SignRefresh(user.ID, s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh.Rotate(ctx, claims.ID, newRefresh, newJTI, user.ID, refreshExp); err != nil {
		l.Warn("refresh_failed", "status", 403, "reason", "rotation rejected", "error", err)
		return nil, err
	}

	l.Info("refresh_success", "user_id", user.ID)
	return &RotateResult{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")
	if err := s.Refresh.RevokeByToken(ctx, rawRefresh); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return err
	}
	l.Info("logout_success")
	return nil
}

func (s *AuthService) publish(ctx context.Context, topic string, userID uint, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, topic, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "error", err)
	}
}
