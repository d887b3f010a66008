package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cafe-stock/internal/model"
	"cafe-stock/internal/repository"

	"go.uber.org/zap"
)

type UserService interface {
	CreateUser(ctx context.Context, admin Actor, req *CreateUserRequest) (*model.UserResponse, error)
	ListUsers(ctx context.Context, admin Actor) ([]model.UserResponse, error)
	GetUser(ctx context.Context, actor Actor) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin staff"`
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.Named("users"),
	}
}

// CreateUser adds a user to the admin's tenant.
func (s *userService) CreateUser(ctx context.Context, admin Actor, req *CreateUserRequest) (*model.UserResponse, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validate(req); err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Role:     req.Role,
		TenantID: admin.TenantID,
	}
	user.CreatedBy = admin.UserID.String()
	user.UpdatedBy = admin.UserID.String()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrDuplicateKey, req.Username)
		}
		return nil, err
	}

	s.log.Info("user created",
		zap.String("tenant_id", admin.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role),
	)
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, admin Actor) ([]model.UserResponse, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	users, err := s.userRepo.FindByTenant(ctx, admin.TenantID)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out, nil
}

func (s *userService) GetUser(ctx context.Context, actor Actor) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}
