package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	hdb "github.com/SAP/go-hdb/driver"
	"github.com/koustreak/dbinspect/internal/errs"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
)

// mapError classifies a database/sql error. Transport failures and
// deadlines are recognised for every driver; anything else goes through the
// driver's classifier and finally falls back to kind.
func mapError(err error, msg string, kind errs.ErrKind, classify Classifier) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	if classify != nil {
		if k, ok := classify(err); ok {
			return errs.Wrap(k, msg, err)
		}
	}
	return errs.Wrap(kind, msg, err)
}

// classifyPQ maps lib/pq SQLSTATE codes the same way the pgx connector does.
func classifyPQ(err error) (errs.ErrKind, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return errs.ErrKindUnknown, false
	}
	code := string(pqErr.Code)
	switch {
	case strings.HasPrefix(code, "08"), code == "3D000":
		return errs.ErrKindConnectionFailed, true
	case strings.HasPrefix(code, "28"), code == "42501":
		return errs.ErrKindPermissionDenied, true
	case code == "57014":
		return errs.ErrKindTimeout, true
	}
	return errs.ErrKindQueryFailed, true
}

// SQL Server error numbers
// Full list: https://learn.microsoft.com/sql/relational-databases/errors-events/database-engine-events-and-errors
const (
	mssqlLoginFailed      = 18456
	mssqlPermissionDenied = 229
	mssqlCannotOpenDB     = 4060
	mssqlQueryTimeout     = -2
)

func classifyMSSQL(err error) (errs.ErrKind, bool) {
	var msErr mssql.Error
	if !errors.As(err, &msErr) {
		return errs.ErrKindUnknown, false
	}
	switch msErr.Number {
	case mssqlLoginFailed, mssqlPermissionDenied:
		return errs.ErrKindPermissionDenied, true
	case mssqlCannotOpenDB:
		return errs.ErrKindConnectionFailed, true
	case mssqlQueryTimeout:
		return errs.ErrKindTimeout, true
	}
	return errs.ErrKindQueryFailed, true
}

// SAP HANA error codes
const (
	hanaAuthenticationFailed  = 10
	hanaInsufficientPrivilege = 258
	hanaInvalidSchema         = 362
)

func classifyHANA(err error) (errs.ErrKind, bool) {
	var hdbErr hdb.Error
	if !errors.As(err, &hdbErr) {
		return errs.ErrKindUnknown, false
	}
	switch hdbErr.Code() {
	case hanaAuthenticationFailed, hanaInsufficientPrivilege:
		return errs.ErrKindPermissionDenied, true
	case hanaInvalidSchema:
		return errs.ErrKindNotFound, true
	}
	if hdbErr.IsFatal() {
		return errs.ErrKindConnectionFailed, true
	}
	return errs.ErrKindQueryFailed, true
}
