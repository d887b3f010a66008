package handler

import (
	"cafe-stock/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService service.UserService
	log         *zap.Logger
}

func NewUserHandler(userService service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log.Named("users")}
}

// CreateUser adds a sub-user to the admin's tenant
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.userService.CreateUser(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user,
	})
}

// GetUsers lists the users of the admin's tenant
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	users, err := h.userService.ListUsers(c.UserContext(), actor)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"data": users, "count": len(users)})
}

// GetMe returns the signed in user
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.userService.GetUser(c.UserContext(), actor)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"data": user})
}
