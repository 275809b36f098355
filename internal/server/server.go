// Package server assembles the fiber application: error mapping,
// middleware and routes.
package server

import (
	"errors"
	"strings"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/auth"
	"scanner-registry/internal/branch"
	"scanner-registry/internal/config"
	"scanner-registry/internal/metrics"
	"scanner-registry/internal/models"
	"scanner-registry/internal/repository"
	"scanner-registry/internal/scanner"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// New builds the HTTP application on top of repos.
func New(cfg *config.Config, log *zap.Logger, repos repository.Repositories) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}
	metrics.Init()

	app := fiber.New(fiber.Config{
		AppName:      "scanner-registry",
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	reg := branch.NewRegistry(repos.Branches, log.Named("branch"))
	cat := scanner.NewCatalog(repos.ScannerRecords, log.Named("scanner"))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/api/scanner-records", fiber.StatusFound)
	})
	app.Get("/healthz", healthHandler(repos))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(repos.Users, log.Named("auth")))
	api.Post("/auth/login", auth.LoginHandler(cfg, repos.Users))

	requireJWT := auth.JWTMiddleware(cfg)
	adminOnly := auth.RequireRole(models.RoleAdmin)
	staff := auth.RequireRole(models.RoleAdmin, models.RoleOperator)

	api.Get("/auth/me", requireJWT, auth.MeHandler(repos.Users))
	api.Post("/users", requireJWT, adminOnly, auth.CreateOperatorHandler(repos.Users, log.Named("auth")))

	// Branches
	api.Get("/branches", branch.ListBranchesHandler(reg))
	api.Get("/branches/unassigned", branch.ListUnassignedBranchesHandler(reg))
	api.Get("/branches/:id", branch.GetBranchHandler(reg))
	api.Post("/branches", requireJWT, adminOnly, branch.CreateBranchHandler(reg))
	api.Put("/branches/:id", requireJWT, adminOnly, branch.UpdateBranchHandler(reg))
	api.Delete("/branches/:id", requireJWT, adminOnly, branch.DeleteBranchHandler(reg))

	// Scanner records
	api.Get("/scanner-records", scanner.ListScannerRecordsHandler(cat))
	api.Get("/scanner-records/export", scanner.ExportScannerRecordsHandler(cat))
	api.Get("/scanner-records/options", scanner.ScannerRecordOptionsHandler(cat))
	api.Get("/scanner-records/:id", scanner.GetScannerRecordHandler(cat))
	api.Post("/scanner-records", requireJWT, staff, scanner.CreateScannerRecordHandler(cat))
	api.Put("/scanner-records/:id", requireJWT, staff, scanner.UpdateScannerRecordHandler(cat))
	api.Delete("/scanner-records/:id", requireJWT, staff, scanner.DeleteScannerRecordHandler(cat))

	return app
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
		}

		var ve *apperror.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: ve.Message, Field: ve.Field})
		}

		var nf *apperror.NotFoundError
		if errors.As(err, &nf) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: notFoundMessage(nf)})
		}

		log.Error("unexpected error",
			zap.Error(err),
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Path()),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Unexpected server error"})
	}
}

func healthHandler(repos repository.Repositories) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if repos.Ping != nil {
			if err := repos.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

func notFoundMessage(nf *apperror.NotFoundError) string {
	entity := strings.ReplaceAll(nf.Entity, "_", " ")
	if entity == "" {
		return "Not found."
	}
	return strings.ToUpper(entity[:1]) + entity[1:] + " not found."
}

func corsOrigins(raw string) string {
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return strings.Join(origins, ",")
}
