package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/subwatch/subwatch/internal/app/service/subscription"
	"github.com/subwatch/subwatch/internal/models"
	"github.com/subwatch/subwatch/pkg/config"
	"github.com/subwatch/subwatch/pkg/logctx"
	"github.com/subwatch/subwatch/pkg/tool"
)

const bcryptCost = 12

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrWrongPassword      = errors.New("password is incorrect")
)

type Service struct {
	cfg  *config.Config
	log  *zap.SugaredLogger
	db   *gorm.DB
	subs *subscription.Service
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB, subs *subscription.Service) *Service {
	return &Service{cfg: cfg, log: log, db: db, subs: subs}
}

type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", in.Username, in.Email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if count > 0 {
		// Disambiguate for a friendlier error.
		var existing models.User
		if err := s.db.WithContext(ctx).Where("username = ?", in.Username).First(&existing).Error; err == nil {
			return nil, ErrUsernameTaken
		}
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		ID:           tool.GenerateUUIDV7(),
		FullName:     in.FullName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Login verifies credentials, stamps last_login and issues a JWT.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*models.User, string, error) {
	ident := strings.ToLower(strings.TrimSpace(usernameOrEmail))

	var u models.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", ident, ident).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !u.IsActive {
		return nil, "", ErrAccountInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	u.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&u).UpdateColumn("last_login", now).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("failed to update last_login", "user_id", u.ID, "err", err)
	}

	token, err := s.IssueToken(&u)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

// IssueToken signs a JWT whose subject is the user id.
func (s *Service) IssueToken(u *models.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.TTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// GetActiveByID loads a user and rejects deactivated accounts; used by
// the auth middleware on every request.
func (s *Service) GetActiveByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return &u, nil
}

type UpdateProfileInput struct {
	FullName *string
	Email    *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	u, err := s.GetActiveByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil && *in.FullName != "" {
		u.FullName = *in.FullName
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" && email != u.Email {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("email = ? AND id != ?", email, u.ID).
				Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrEmailTaken
			}
			u.Email = email
		}
	}

	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	u, err := s.GetActiveByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(u).UpdateColumn("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("password changed", "user_id", u.ID)
	return nil
}

// DeactivateAccount soft-deletes the account after a password check and
// cascades isActive=false to every subscription the user owns, which
// removes them from the reminder batch's consideration set.
func (s *Service) DeactivateAccount(ctx context.Context, userID, password string) error {
	u, err := s.GetActiveByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return ErrWrongPassword
	}

	if err := s.db.WithContext(ctx).Model(u).UpdateColumn("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	if err := s.subs.DeactivateAllForUser(ctx, userID); err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("account deactivated", "user_id", u.ID)
	return nil
}
