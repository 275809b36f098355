package repository

import (
	"errors"
	"strings"

	"scanner-registry/internal/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateError maps driver errors onto ConstraintError so services never
// look at Postgres codes.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &apperror.ConstraintError{Kind: apperror.ConstraintUnique, Field: constraintField(pgErr.ConstraintName), Err: err}
		case pgForeignKeyViolation:
			return &apperror.ConstraintError{Kind: apperror.ConstraintForeignKey, Field: "branch_id", Err: err}
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &apperror.ConstraintError{Kind: apperror.ConstraintUnique, Err: err}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &apperror.ConstraintError{Kind: apperror.ConstraintForeignKey, Field: "branch_id", Err: err}
	}
	return err
}

func constraintField(name string) string {
	switch {
	case strings.HasSuffix(name, "branch_name"):
		return "branch_name"
	case strings.HasSuffix(name, "branch_code"):
		return "branch_code"
	case strings.HasSuffix(name, "email"):
		return "email"
	}
	return name
}
