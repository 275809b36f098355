package repository

import (
	"context"
	"errors"
	"fmt"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/models"

	"gorm.io/gorm"
)

type gormBranches struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &gormBranches{db: db}
}

func (r *gormBranches) Create(ctx context.Context, b *models.Branch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureBranchUnique(tx, b); err != nil {
			return err
		}
		if err := tx.Create(b).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

func (r *gormBranches) Update(ctx context.Context, b *models.Branch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Branch
		if err := tx.First(&existing, "id = ?", b.ID).Error; err != nil {
			return notFoundOr(err, "branch", b.ID)
		}
		if err := ensureBranchUnique(tx, b); err != nil {
			return err
		}
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"branch_name": b.BranchName,
			"branch_code": b.BranchCode,
		}).Error; err != nil {
			return translateError(err)
		}
		existing.BranchName = b.BranchName
		existing.BranchCode = b.BranchCode
		*b = existing
		return nil
	})
}

func (r *gormBranches) Delete(ctx context.Context, id uint) (*models.Branch, error) {
	var deleted models.Branch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "branch", id)
		}
		// The foreign key is ON DELETE SET NULL as well; clearing here keeps
		// updated_at honest on the affected records.
		if err := tx.Model(&models.ScannerRecord{}).
			Where("branch_id = ?", id).
			Update("branch_id", nil).Error; err != nil {
			return fmt.Errorf("clear scanner record branch: %w", err)
		}
		if err := tx.Delete(&models.Branch{}, "id = ?", id).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (r *gormBranches) FindByID(ctx context.Context, id uint) (*models.Branch, error) {
	var b models.Branch
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "branch", id)
	}
	return &b, nil
}

func (r *gormBranches) List(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	if err := r.db.WithContext(ctx).Order("id asc").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *gormBranches) ListUnassigned(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	if err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM scanner_records WHERE scanner_records.branch_id = branches.id)").
		Order("id asc").
		Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// ensureBranchUnique reports which field collides with another branch. The
// unique indexes still decide races; this only names the field.
func ensureBranchUnique(tx *gorm.DB, b *models.Branch) error {
	var clashes []models.Branch
	q := tx.Where("(branch_name = ? OR branch_code = ?)", b.BranchName, b.BranchCode)
	if b.ID != 0 {
		q = q.Where("id <> ?", b.ID)
	}
	if err := q.Limit(2).Find(&clashes).Error; err != nil {
		return err
	}
	return uniqueClash(clashes, b)
}

func uniqueClash(others []models.Branch, b *models.Branch) error {
	for _, o := range others {
		if o.ID == b.ID {
			continue
		}
		if o.BranchName == b.BranchName {
			return &apperror.ConstraintError{Kind: apperror.ConstraintUnique, Field: "branch_name", Err: errors.New("branch name exists")}
		}
		if o.BranchCode == b.BranchCode {
			return &apperror.ConstraintError{Kind: apperror.ConstraintUnique, Field: "branch_code", Err: errors.New("branch code exists")}
		}
	}
	return nil
}

func notFoundOr(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity, id)
	}
	return err
}
