package auth

import (
	"errors"
	"strings"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/config"
	"scanner-registry/internal/models"
	"scanner-registry/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// CreateUserRequest is the body an admin sends to open an operator account.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// newUser trims the fields and hashes the password.
func newUser(name, email, password string, role models.UserRole) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
	}
	return &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}, nil
}

// RegisterAdminHandler creates the first admin. Once an admin exists the
// endpoint is closed.
func RegisterAdminHandler(users repository.UserRepository, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		// Fast path only; CreateFirstAdmin decides under its lock.
		count, err := users.CountByRole(c.UserContext(), models.RoleAdmin)
		if err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "An admin is already registered")
		}

		user, err := newUser(body.Name, body.Email, body.Password, models.RoleAdmin)
		if err != nil {
			return err
		}
		if err := users.CreateFirstAdmin(c.UserContext(), user); err != nil {
			if errors.Is(err, repository.ErrAdminExists) {
				return fiber.NewError(fiber.StatusForbidden, "An admin is already registered")
			}
			return apperror.AsValidation(err)
		}
		logger.Info("admin registered", zap.Uint("user_id", user.ID))

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// ----------------------------------------
// OPERATOR ACCOUNTS
// POST /api/users (admin only)
// ----------------------------------------

// CreateOperatorHandler opens an operator account. Operators may change
// scanner records but not branches.
func CreateOperatorHandler(users repository.UserRepository, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		user, err := newUser(body.Name, body.Email, body.Password, models.RoleOperator)
		if err != nil {
			return err
		}
		if err := users.Create(c.UserContext(), user); err != nil {
			return apperror.AsValidation(err)
		}

		createdBy, _ := c.Locals(CtxUserIDKey).(uint)
		logger.Info("operator created",
			zap.Uint("user_id", user.ID),
			zap.Uint("created_by", createdBy),
		)
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

func LoginHandler(cfg *config.Config, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		user, err := users.FindByEmail(c.UserContext(), body.Email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

func MeHandler(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "User no longer exists")
			}
			return err
		}
		return c.JSON(toUserResponse(user))
	}
}
