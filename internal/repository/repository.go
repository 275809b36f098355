// Package repository is the storage boundary. Each interface has a GORM
// implementation for Postgres and an in-memory one for local runs and tests;
// both enforce the same uniqueness and reference rules atomically.
package repository

import (
	"context"

	"scanner-registry/internal/models"
	"scanner-registry/internal/pagination"
)

type BranchRepository interface {
	// Create inserts b and assigns its ID. A name or code already used by
	// another branch yields a unique ConstraintError.
	Create(ctx context.Context, b *models.Branch) error
	// Update rewrites name and code of the branch with b.ID.
	Update(ctx context.Context, b *models.Branch) error
	// Delete removes the branch and clears branch_id on its scanner records
	// in the same transaction. It returns the deleted row.
	Delete(ctx context.Context, id uint) (*models.Branch, error)
	FindByID(ctx context.Context, id uint) (*models.Branch, error)
	List(ctx context.Context) ([]models.Branch, error)
	// ListUnassigned returns branches no scanner record references.
	ListUnassigned(ctx context.Context) ([]models.Branch, error)
}

// SeekQuery selects a window of scanner records ordered by id. Forward reads
// ids greater than Pivot in ascending order, Backward reads ids lower than
// Pivot in descending order. Pivot 0 means unbounded.
type SeekQuery struct {
	Search    string
	Pivot     uint
	Direction pagination.Direction
	Limit     int
}

type ScannerRecordRepository interface {
	// Create inserts r. A branch_id that does not exist yields a foreign key
	// ConstraintError.
	Create(ctx context.Context, r *models.ScannerRecord) error
	Update(ctx context.Context, id uint, changes models.ScannerRecordChanges) (*models.ScannerRecord, error)
	Delete(ctx context.Context, id uint) error
	// FindByID returns the record with its branch joined.
	FindByID(ctx context.Context, id uint) (*models.ScannerRecord, error)
	// Seek returns records matching q with their branch joined.
	Seek(ctx context.Context, q SeekQuery) ([]models.ScannerRecord, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	// CreateFirstAdmin inserts u as an admin only while no admin exists. The
	// check and the insert are atomic; a lost race yields ErrAdminExists.
	CreateFirstAdmin(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type Repositories struct {
	Branches       BranchRepository
	ScannerRecords ScannerRecordRepository
	Users          UserRepository

	// Ping reports whether the backing store is reachable.
	Ping func(ctx context.Context) error
}
