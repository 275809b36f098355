package scanner

import (
	"strconv"
	"strings"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ----------------------------------------
// SCANNER RECORD LISTING
// ----------------------------------------

// ListScannerRecordsHandler serves GET /scanner-records?search=&per_page=&cursor=
func ListScannerRecordsHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		perPage, err := parsePerPage(c.Query("per_page"))
		if err != nil {
			return err
		}

		page, err := cat.List(c.UserContext(), ListQuery{
			Search:  c.Query("search"),
			PerPage: perPage,
			Cursor:  c.Query("cursor"),
		})
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

func ExportScannerRecordsHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := cat.Export(c.UserContext(), c.Query("search"))
		if err != nil {
			return err
		}
		c.Attachment("scanner-records.xlsx")
		c.Set(fiber.HeaderContentType, xlsxContentType)
		return c.Send(data)
	}
}

func ScannerRecordOptionsHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(cat.Options())
	}
}

func GetScannerRecordHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c)
		if err != nil {
			return err
		}

		rec, err := cat.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": rec})
	}
}

// ----------------------------------------
// SCANNER RECORD CRUD
// ----------------------------------------

func CreateScannerRecordHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRequest
		if err := decodeStrict(c, &body); err != nil {
			return err
		}

		rec, msg, err := cat.Create(c.UserContext(), body)
		if err != nil {
			return err
		}
		return httpx.Mutation(c, fiber.StatusCreated, msg, rec)
	}
}

func UpdateScannerRecordHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c)
		if err != nil {
			return err
		}

		var body UpdateRequest
		if err := decodeStrict(c, &body); err != nil {
			return err
		}

		rec, msg, err := cat.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}
		return httpx.Mutation(c, fiber.StatusOK, msg, rec)
	}
}

func DeleteScannerRecordHandler(cat *Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParseID(c)
		if err != nil {
			return err
		}

		msg, err := cat.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}
		return httpx.Mutation(c, fiber.StatusOK, msg, nil)
	}
}

// parsePerPage treats an empty value as "use the default".
func parsePerPage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperror.Validation("per_page", "The per page must be one of: "+allowedPerPage()+".")
	}
	return n, nil
}
