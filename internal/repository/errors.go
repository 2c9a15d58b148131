package repository

import (
	"database/sql"
	"errors"

	"shoplit/internal/domain"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// translate maps driver errors onto the domain taxonomy. what names the
// entity for the caller-facing message.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("%s not found", what)
	}
	switch pqCode(err) {
	case pqUniqueViolation:
		return domain.Conflict("%s already exists", what)
	case pqForeignKeyViolation:
		return domain.Validation("%s references a record that does not exist", what)
	case pqCheckViolation:
		return domain.Validation("%s has invalid values", what)
	}
	return domain.Internal(err, "database error on %s", what)
}
