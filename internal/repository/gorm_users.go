package repository

import (
	"context"
	"errors"

	"scanner-registry/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned by the user lookups; login maps it to 401.
	ErrUserNotFound = errors.New("user not found")
	ErrAdminExists  = errors.New("an admin already exists")
)

// adminBootstrapLock keys the transaction-scoped advisory lock that
// serializes first-admin registration.
const adminBootstrapLock int64 = 0x5c4e0001

type gormUsers struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUsers{db: db}
}

func (r *gormUsers) Create(ctx context.Context, u *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(u).Error)
}

func (r *gormUsers) CreateFirstAdmin(ctx context.Context, u *models.User) error {
	u.Role = models.RoleAdmin
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// No row exists to lock yet, so take an advisory lock instead.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", adminBootstrapLock).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAdminExists
		}
		return tx.Create(u).Error
	})
	return translateError(err)
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormUsers) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormUsers) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// NewGorm wires every repository to one GORM handle.
func NewGorm(db *gorm.DB) Repositories {
	return Repositories{
		Branches:       NewBranchRepository(db),
		ScannerRecords: NewScannerRecordRepository(db),
		Users:          NewUserRepository(db),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}
