package branch

import (
	"scanner-registry/internal/httpx"
	"scanner-registry/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BranchResponse struct {
	ID         uint   `json:"id"`
	BranchName string `json:"branch_name"`
	BranchCode string `json:"branch_code"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toResponse(b *models.Branch) BranchResponse {
	return BranchResponse{
		ID:         b.ID,
		BranchName: b.BranchName,
		BranchCode: b.BranchCode,
		CreatedAt:  b.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:  b.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toResponses(branches []models.Branch) []BranchResponse {
	res := make([]BranchResponse, 0, len(branches))
	for i := range branches {
		res = append(res, toResponse(&branches[i]))
	}
	return res
}

// ----------------------------------------
// BRANCH CRUD
// ----------------------------------------

func CreateBranchHandler(reg *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Input
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		b, msg, err := reg.Create(c.UserContext(), body)
		if err != nil {
			return err
		}
		return httpx.Mutation(c, fiber.StatusCreated, msg, toResponse(b))
	}
}

func ListBranchesHandler(reg *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branches, err := reg.ListAll(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": toResponses(branches)})
	}
}

// ListUnassignedBranchesHandler feeds the branch selector of the scanner
// record form.
func ListUnassignedBranchesHandler(reg *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branches, err := reg.ListUnassigned(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": toResponses(branches)})
	}
}

func GetBranchHandler(reg *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c)
		if err != nil {
			return err
		}

		b, err := reg.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": toResponse(b)})
	}
}

func UpdateBranchHandler(reg *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c)
		if err != nil {
			return err
		}

		var body Input
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		b, msg, err := reg.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}
		return httpx.Mutation(c, fiber.StatusOK, msg, toResponse(b))
	}
}

func DeleteBranchHandler(reg *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c)
		if err != nil {
			return err
		}

		msg, err := reg.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}
		return httpx.Mutation(c, fiber.StatusOK, msg, nil)
	}
}
