// Package sqlxrepos implements the repositories on PostgreSQL, with sqlx and squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// orderBy turns ordering into ORDER BY items; fields must have been filtered by the caller.
func orderBy(ordering []core.DBOrdering, dflt string) []string {
	if len(ordering) == 0 {
		return []string{dflt}
	}
	items := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		items = append(items, ord.String())
	}
	return items
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

// validUUID reports whether id can be looked up in a UUID column.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func containsPattern(s string) string { return "%" + s + "%" }

func get(ctx context.Context, db sqlx.QueryerContext, dest interface{}, query sq.Sqlizer, notFound error) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, db, dest, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return notFound
		}
		return errors.Wrap(err, "selecting row")
	}
	return nil
}

func selectAll(ctx context.Context, db sqlx.QueryerContext, dest interface{}, query sq.Sqlizer) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return errors.Wrap(sqlx.SelectContext(ctx, db, dest, q, args...), "selecting rows")
}

// exec runs query and returns notFound when no row was affected.
func exec(ctx context.Context, db sqlx.ExecerContext, query sq.Sqlizer, notFound error) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if notFound == nil {
		return nil
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func fromNullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}
