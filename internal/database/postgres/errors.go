package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/dbinspect/internal/errs"
)

// PostgreSQL SQLSTATE codes
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrInsufficientPrivilege = "42501"
	pgErrQueryCanceled         = "57014"
	pgErrInvalidCatalogName    = "3D000"

	pgClassConnection    = "08"
	pgClassAuthorization = "28"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// Postgres server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrKindQueryFailed
		switch {
		case strings.HasPrefix(pgErr.Code, pgClassConnection), pgErr.Code == pgErrInvalidCatalogName:
			kind = errs.ErrKindConnectionFailed
		case strings.HasPrefix(pgErr.Code, pgClassAuthorization), pgErr.Code == pgErrInsufficientPrivilege:
			kind = errs.ErrKindPermissionDenied
		case pgErr.Code == pgErrQueryCanceled:
			kind = errs.ErrKindTimeout
		}
		return errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
