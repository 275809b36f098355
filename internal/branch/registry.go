// Package branch registers branches and keeps their names and codes unique.
package branch

import (
	"context"
	"fmt"
	"strings"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/metrics"
	"scanner-registry/internal/models"
	"scanner-registry/internal/repository"
	"scanner-registry/internal/validation"

	"go.uber.org/zap"
)

const entity = "branch"

// Input is the create and update payload for a branch.
type Input struct {
	BranchName string `json:"branch_name" validate:"required,max=255"`
	BranchCode string `json:"branch_code" validate:"required,max=255"`
}

// normalize trims both fields and upper-cases the code.
func (in Input) normalize() Input {
	return Input{
		BranchName: strings.TrimSpace(in.BranchName),
		BranchCode: strings.ToUpper(strings.TrimSpace(in.BranchCode)),
	}
}

type Registry struct {
	repo   repository.BranchRepository
	logger *zap.Logger
}

func NewRegistry(repo repository.BranchRepository, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{repo: repo, logger: logger}
}

// Create registers a new branch. It returns the stored branch and the
// message shown to the user.
func (r *Registry) Create(ctx context.Context, in Input) (*models.Branch, string, error) {
	in = in.normalize()
	if err := validation.Struct(in); err != nil {
		metrics.ObserveOperation(entity, "create", err)
		return nil, "", err
	}

	b := &models.Branch{BranchName: in.BranchName, BranchCode: in.BranchCode}
	if err := r.repo.Create(ctx, b); err != nil {
		err = apperror.AsValidation(err)
		metrics.ObserveOperation(entity, "create", err)
		return nil, "", err
	}
	metrics.ObserveOperation(entity, "create", nil)
	r.logger.Info("branch created",
		zap.Uint("branch_id", b.ID),
		zap.String("branch_code", b.BranchCode),
	)
	return b, message(b, "created"), nil
}

// Update replaces name and code of branch id. The branch's own current
// values never count as a collision.
func (r *Registry) Update(ctx context.Context, id uint, in Input) (*models.Branch, string, error) {
	in = in.normalize()
	if err := validation.Struct(in); err != nil {
		metrics.ObserveOperation(entity, "update", err)
		return nil, "", err
	}

	b := &models.Branch{ID: id, BranchName: in.BranchName, BranchCode: in.BranchCode}
	if err := r.repo.Update(ctx, b); err != nil {
		err = apperror.AsValidation(err)
		metrics.ObserveOperation(entity, "update", err)
		return nil, "", err
	}
	metrics.ObserveOperation(entity, "update", nil)
	r.logger.Info("branch updated",
		zap.Uint("branch_id", b.ID),
		zap.String("branch_code", b.BranchCode),
	)
	return b, message(b, "updated"), nil
}

// Delete removes branch id. Scanner records that referenced it keep
// existing without a branch.
func (r *Registry) Delete(ctx context.Context, id uint) (string, error) {
	b, err := r.repo.Delete(ctx, id)
	metrics.ObserveOperation(entity, "delete", err)
	if err != nil {
		return "", err
	}
	r.logger.Info("branch deleted",
		zap.Uint("branch_id", b.ID),
		zap.String("branch_code", b.BranchCode),
	)
	return message(b, "deleted"), nil
}

func (r *Registry) Get(ctx context.Context, id uint) (*models.Branch, error) {
	return r.repo.FindByID(ctx, id)
}

func (r *Registry) ListAll(ctx context.Context) ([]models.Branch, error) {
	return r.repo.List(ctx)
}

// ListUnassigned returns the branches no scanner record points at.
func (r *Registry) ListUnassigned(ctx context.Context) ([]models.Branch, error) {
	return r.repo.ListUnassigned(ctx)
}

func message(b *models.Branch, verb string) string {
	return fmt.Sprintf("Branch %s (%s) %s successfully.", b.BranchName, b.BranchCode, verb)
}
