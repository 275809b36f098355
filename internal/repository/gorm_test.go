package repository

import (
	"context"
	"errors"
	"testing"

	"scanner-registry/internal/apperror"
	"scanner-registry/internal/models"
	"scanner-registry/internal/pagination"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormBranches_ListUnassigned(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBranchRepository(db)

	rows := sqlmock.NewRows([]string{"id", "branch_name", "branch_code"}).
		AddRow(2, "East", "EA02")
	mock.ExpectQuery(`SELECT \* FROM "branches" WHERE NOT EXISTS \(SELECT 1 FROM scanner_records WHERE scanner_records.branch_id = branches.id\)`).
		WillReturnRows(rows)

	branches, err := repo.ListUnassigned(context.Background())

	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "EA02", branches[0].BranchCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBranches_CreateTranslatesUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBranchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "branches" WHERE .*branch_name = \$1 OR branch_code = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "branch_name", "branch_code"}))
	mock.ExpectQuery(`INSERT INTO "branches"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_branches_branch_code"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Branch{BranchName: "Main", BranchCode: "MN01"})

	var ce *apperror.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, apperror.ConstraintUnique, ce.Kind)
	assert.Equal(t, "branch_code", ce.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBranches_CreateNamesClashingField(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBranchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "branches"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "branch_name", "branch_code"}).AddRow(1, "Main", "XX99"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Branch{BranchName: "Main", BranchCode: "MN01"})

	var ce *apperror.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "branch_name", ce.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBranches_DeleteClearsReferencesInOneTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBranchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "branches" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "branch_name", "branch_code"}).AddRow(1, "Main", "MN01"))
	mock.ExpectExec(`UPDATE "scanner_records" SET "branch_id"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "branches" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "MN01", deleted.BranchCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBranches_DeleteMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBranchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "branches"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "branch_name", "branch_code"}))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), 5)

	assert.True(t, apperror.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormScannerRecords_CreateWithUnknownBranch(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewScannerRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "branches"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	branchID := uint(9)
	err := repo.Create(context.Background(), &models.ScannerRecord{BranchID: &branchID})

	var ce *apperror.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, apperror.ConstraintForeignKey, ce.Kind)
	assert.Equal(t, "branch_id", ce.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormScannerRecords_DeleteMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewScannerRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "scanner_records" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 3)

	assert.True(t, apperror.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormScannerRecords_SeekBackwardWithSearch(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewScannerRecordRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "branch_id", "serial_number", "status",
		"Branch__id", "Branch__branch_name", "Branch__branch_code",
	}).
		AddRow(6, 1, "SN-6", "Active", 1, "Main", "MN01").
		AddRow(4, nil, "SN-4", "Active", nil, nil, nil)
	mock.ExpectQuery(`LEFT JOIN "branches" "Branch" .*ILIKE.*scanner_records.id < .*ORDER BY scanner_records.id DESC`).
		WillReturnRows(rows)

	records, err := repo.Seek(context.Background(), SeekQuery{
		Search:    "sn",
		Pivot:     7,
		Direction: pagination.Backward,
		Limit:     3,
	})

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint(6), records[0].ID)
	require.NotNil(t, records[0].Branch)
	assert.Equal(t, "MN01", records[0].Branch.BranchCode)
	assert.Nil(t, records[1].BranchID)
	assert.Nil(t, records[1].Branch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

func TestTranslateError_PassesThroughUnknown(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Same(t, plain, translateError(plain))
	assert.Nil(t, translateError(nil))

	err := translateError(&pgconn.PgError{Code: "23503"})
	var ce *apperror.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, apperror.ConstraintForeignKey, ce.Kind)
}

func TestGormUsers_CreateFirstAdminLocksCountsAndInserts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(adminBootstrapLock).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE role = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	u := &models.User{Name: "Root", Email: "root@example.com"}
	err := repo.CreateFirstAdmin(context.Background(), u)

	require.NoError(t, err)
	assert.Equal(t, uint(1), u.ID)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUsers_CreateFirstAdminRefusesWhenAdminExists(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.CreateFirstAdmin(context.Background(), &models.User{Email: "late@example.com"})

	assert.ErrorIs(t, err, ErrAdminExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
