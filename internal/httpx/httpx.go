// Package httpx holds the small request and response helpers shared by the
// fiber handlers.
package httpx

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// MutationResponse is returned by every create, update and delete endpoint.
type MutationResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ParseID reads the :id route parameter as a positive integer.
func ParseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return uint(id), nil
}

// Mutation writes a MutationResponse with the given status code.
func Mutation(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(MutationResponse{Message: message, Data: data})
}
