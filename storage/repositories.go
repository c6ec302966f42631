// Package storage wires the repositories of the configured database engine.
package storage

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/blog"
	"github.com/trezcool/fotoescola/core/course"
	"github.com/trezcool/fotoescola/core/invoice"
	"github.com/trezcool/fotoescola/core/payment"
	"github.com/trezcool/fotoescola/core/user"
	"github.com/trezcool/fotoescola/storage/database"
	dummydb "github.com/trezcool/fotoescola/storage/database/dummy"
	sqlxrepos "github.com/trezcool/fotoescola/storage/database/sqlx"
)

const (
	EnginePostgres = "postgres"
	EngineDummy    = "dummy"
)

type Repositories struct {
	Users        user.Repository
	Transactions payment.Repository
	Invoices     invoice.Repository
	Courses      course.Repository
	Posts        blog.Repository

	db *sqlx.DB // nil with the dummy engine
}

// Open returns the repositories of conf.Engine.
// A postgres database is created when missing and migrated up first.
func Open(ctx context.Context, conf core.DatabaseConfig) (*Repositories, error) {
	return open(ctx, conf, true)
}

// OpenUnmigrated is Open without the migrations, for callers that run them on their own.
func OpenUnmigrated(ctx context.Context, conf core.DatabaseConfig) (*Repositories, error) {
	return open(ctx, conf, false)
}

func open(ctx context.Context, conf core.DatabaseConfig, migrate bool) (*Repositories, error) {
	switch conf.Engine {
	case EngineDummy:
		db, err := dummydb.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening dummy database")
		}
		return &Repositories{
			Users:        dummydb.NewUserRepository(db),
			Transactions: dummydb.NewTransactionRepository(db),
			Invoices:     dummydb.NewInvoiceRepository(db),
			Courses:      dummydb.NewCourseRepository(db),
			Posts:        dummydb.NewPostRepository(db),
		}, nil

	case EnginePostgres, "":
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if migrate {
			if err = database.Migrate(db.DB, "up"); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &Repositories{
			Users:        sqlxrepos.NewUserRepository(db),
			Transactions: sqlxrepos.NewTransactionRepository(db),
			Invoices:     sqlxrepos.NewInvoiceRepository(db),
			Courses:      sqlxrepos.NewCourseRepository(db),
			Posts:        sqlxrepos.NewPostRepository(db),
			db:           db,
		}, nil
	}
	return nil, errors.Errorf("unknown database engine %q", conf.Engine)
}

// DB is the underlying postgres handle, nil with the dummy engine.
func (r *Repositories) DB() *sql.DB {
	if r.db == nil {
		return nil
	}
	return r.db.DB
}

func (r *Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
