package shortener

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode  = "23505"
	tokenPrimaryKeyConst = "links_pkey"
)

func isTokenUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode &&
		pgErr.ConstraintName == tokenPrimaryKeyConst
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
