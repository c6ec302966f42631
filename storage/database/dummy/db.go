package dummydb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/blog"
	"github.com/trezcool/fotoescola/core/course"
	"github.com/trezcool/fotoescola/core/invoice"
	"github.com/trezcool/fotoescola/core/payment"
	"github.com/trezcool/fotoescola/core/user"
)

var nowFunc = time.Now // mockable

type (
	// DB is an in-memory store. Every table has its own lock; a new DB starts empty.
	DB struct {
		latency time.Duration

		user        *userTable
		transaction *transactionTable
		invoice     *invoiceTable
		course      *courseTable
		post        *postTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	transactionTable struct {
		sync.RWMutex
		table map[string]*payment.Transaction
	}

	invoiceTable struct {
		sync.RWMutex
		table  map[string]*invoice.Invoice
		byTx   map[string]string // {transaction ID: invoice ID}
		lastID int64
	}

	courseTable struct {
		sync.RWMutex
		table   map[string]*course.Course
		classes map[string]*course.ClassSession
	}

	postTable struct {
		sync.RWMutex
		table map[string]*blog.Post
	}
)

// Open returns an empty DB. conf.Latency delays every operation, unless the context is done first.
func Open(conf core.DatabaseConfig) (*DB, error) {
	db := &DB{
		latency:     conf.Latency,
		user:        &userTable{table: make(map[string]*user.User)},
		transaction: &transactionTable{table: make(map[string]*payment.Transaction)},
		invoice: &invoiceTable{
			table: make(map[string]*invoice.Invoice),
			byTx:  make(map[string]string),
		},
		course: &courseTable{
			table:   make(map[string]*course.Course),
			classes: make(map[string]*course.ClassSession),
		},
		post: &postTable{table: make(map[string]*blog.Post)},
	}
	return db, nil
}

// wait simulates a round trip to a remote store.
func (db *DB) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if db.latency <= 0 {
		return nil
	}
	t := time.NewTimer(db.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sortBy stably sorts slice by ordering, falling back to dflt when ordering is empty.
// cmp compares the items at i and j on field.
func sortBy(slice interface{}, ordering []core.DBOrdering, dflt core.DBOrdering, cmp func(i, j int, field string) int) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{dflt}
	}
	sort.SliceStable(slice, func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(i, j, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareDecimals(a, b decimal.Decimal) int { return a.Cmp(b) }

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	}
	return 1
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
