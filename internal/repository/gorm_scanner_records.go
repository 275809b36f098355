package repository

import (
	"context"
	"database/sql"
	"strings"

	"scanner-registry/internal/models"
	"scanner-registry/internal/pagination"

	"gorm.io/gorm"
)

// searchCondition matches the search text against the record's own columns
// and its joined branch. "Branch" is the alias GORM gives Joins("Branch").
const searchCondition = `(scanner_records.serial_number ILIKE @q OR scanner_records.model ILIKE @q ` +
	`OR scanner_records.office_type ILIKE @q OR scanner_records.status ILIKE @q ` +
	`OR scanner_records.remarks ILIKE @q OR "Branch".branch_name ILIKE @q OR "Branch".branch_code ILIKE @q)`

type gormScannerRecords struct {
	db *gorm.DB
}

func NewScannerRecordRepository(db *gorm.DB) ScannerRecordRepository {
	return &gormScannerRecords{db: db}
}

func (r *gormScannerRecords) Create(ctx context.Context, rec *models.ScannerRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureBranchExists(tx, rec.BranchID); err != nil {
			return err
		}
		if err := tx.Omit("Branch").Create(rec).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
}

func (r *gormScannerRecords) Update(ctx context.Context, id uint, changes models.ScannerRecordChanges) (*models.ScannerRecord, error) {
	var rec models.ScannerRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "scanner record", id)
		}
		if !changes.ClearBranch {
			if err := ensureBranchExists(tx, changes.BranchID); err != nil {
				return err
			}
		}
		cols := changes.Columns()
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&rec).Omit("Branch").Updates(cols).Error; err != nil {
			return translateError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *gormScannerRecords) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.ScannerRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundOr(gorm.ErrRecordNotFound, "scanner record", id)
	}
	return nil
}

func (r *gormScannerRecords) FindByID(ctx context.Context, id uint) (*models.ScannerRecord, error) {
	var rec models.ScannerRecord
	if err := r.db.WithContext(ctx).
		Joins("Branch").
		First(&rec, "scanner_records.id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "scanner record", id)
	}
	detachEmptyBranch(&rec)
	return &rec, nil
}

func (r *gormScannerRecords) Seek(ctx context.Context, q SeekQuery) ([]models.ScannerRecord, error) {
	dbq := r.db.WithContext(ctx).Model(&models.ScannerRecord{}).Joins("Branch")

	if search := strings.TrimSpace(q.Search); search != "" {
		dbq = dbq.Where(searchCondition, sql.Named("q", "%"+escapeLike(search)+"%"))
	}

	order := "scanner_records.id ASC"
	if q.Direction == pagination.Backward {
		order = "scanner_records.id DESC"
		if q.Pivot > 0 {
			dbq = dbq.Where("scanner_records.id < ?", q.Pivot)
		}
	} else if q.Pivot > 0 {
		dbq = dbq.Where("scanner_records.id > ?", q.Pivot)
	}
	if q.Limit > 0 {
		dbq = dbq.Limit(q.Limit)
	}

	var records []models.ScannerRecord
	if err := dbq.Order(order).Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		detachEmptyBranch(&records[i])
	}
	return records, nil
}

func ensureBranchExists(tx *gorm.DB, branchID *uint) error {
	if branchID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Branch{}).Where("id = ?", *branchID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return translateError(gorm.ErrForeignKeyViolated)
	}
	return nil
}

// detachEmptyBranch drops the zero-value branch a LEFT JOIN may leave behind.
func detachEmptyBranch(rec *models.ScannerRecord) {
	if rec.BranchID == nil || (rec.Branch != nil && rec.Branch.ID == 0) {
		rec.Branch = nil
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
