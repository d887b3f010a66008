package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cafe-stock/internal/model"
	"cafe-stock/internal/repository"
	"cafe-stock/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Bootstrap credentials seeded into an empty user table.
const (
	BootstrapUsername = "admin"
	BootstrapPassword = "admin123"
)

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*model.User, error)
	ChangePassword(ctx context.Context, actor Actor, req *ChangePasswordRequest) error
	SeedAdmin(ctx context.Context) (bool, error)
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=100"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type LoginResponse struct {
	Token        string              `json:"token"`
	User         model.UserResponse  `json:"user"`
	Privileges   []string            `json:"privileges"`
	Subscription *model.Subscription `json:"subscription"`
}

type authService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	billing  BillingService
	tokens   *jwt.Manager
	clock    Clock
	log      *zap.Logger
}

func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, billing BillingService, tokens *jwt.Manager, clock Clock, log *zap.Logger) AuthService {
	return &authService{
		db:       db,
		userRepo: userRepo,
		billing:  billing,
		tokens:   tokens,
		clock:    clock,
		log:      log.Named("auth"),
	}
}

// Register creates an admin who owns a new tenant and starts its trial.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate(req); err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Role:     model.RoleAdmin,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrDuplicateKey, req.Username)
		}
		return nil, err
	}
	s.log.Info("tenant registered", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))

	return s.startSession(ctx, user)
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

// startSession rotates the token version, so only the newest login stays
// valid, then makes sure the user has a subscription.
func (s *authService) startSession(ctx context.Context, user *model.User) (*LoginResponse, error) {
	version := uuid.New().String()
	now := s.clock.Now()

	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if err := s.userRepo.UpdateLastSeen(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	sub, err := s.billing.EnsureSubscription(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(jwt.Subject{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		TenantID:     user.TenantID,
		Privileges:   user.GetPrivilegeCodes(),
		TokenVersion: version,
	})
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token:        token,
		User:         user.ToResponse(),
		Privileges:   user.GetPrivilegeCodes(),
		Subscription: sub,
	}, nil
}

// ValidateToken parses the token and checks it against the stored user.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, jwt.ErrInvalidToken
		}
		return nil, err
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionExpired
	}
	return user, nil
}

// ChangePassword also rotates the token version, signing out every session.
func (s *authService) ChangePassword(ctx context.Context, actor Actor, req *ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(req.OldPassword) {
		return ErrInvalidCredentials
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return errors.New("failed to hash new password")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		if err := users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
			return err
		}
		return users.UpdateTokenVersion(ctx, user.ID, uuid.New().String())
	})
}

// SeedAdmin creates the bootstrap admin when no user exists at all. It
// reports whether a user was created.
func (s *authService) SeedAdmin(ctx context.Context) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		n, err := users.Count(ctx)
		if err != nil || n > 0 {
			return err
		}

		admin := &model.User{Username: BootstrapUsername, Role: model.RoleAdmin}
		if err := admin.SetPassword(BootstrapPassword); err != nil {
			return err
		}
		if err := users.Create(ctx, admin); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		s.log.Warn("bootstrap admin created, change its password", zap.String("username", BootstrapUsername))
	}
	return created, nil
}
