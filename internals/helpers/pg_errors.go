package helper

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique_violation.
// When constraint names are given, only those constraints match.
func IsUniqueViolation(err error, constraints ...string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		if len(constraints) == 0 {
			return true
		}
		for _, c := range constraints {
			if strings.EqualFold(pgErr.ConstraintName, c) {
				return true
			}
		}
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return len(constraints) == 0
	}
	// drivers that do not surface PgError (simple protocol paths, wrappers)
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "duplicate key") && !strings.Contains(msg, pgUniqueViolation) {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if strings.Contains(msg, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
