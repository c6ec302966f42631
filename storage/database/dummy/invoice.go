package dummydb

import (
	"context"
	"strconv"
	"time"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/invoice"
)

type invoiceRepository struct {
	db *DB
	t  *invoiceTable
}

var _ invoice.Repository = (*invoiceRepository)(nil) // interface compliance check

func NewInvoiceRepository(db *DB) invoice.Repository {
	return &invoiceRepository{db: db, t: db.invoice}
}

// StoreInvoice reserves inv.TransactionID and assigns an "inv_<unix nanos>" ID, both under the write lock.
func (repo *invoiceRepository) StoreInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	if err := repo.db.wait(ctx); err != nil {
		return invoice.Invoice{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	if _, ok := repo.t.byTx[inv.TransactionID]; ok {
		return invoice.Invoice{}, invoice.ErrAlreadyIssued
	}

	id := nowFunc().UnixNano()
	if id <= repo.t.lastID {
		id = repo.t.lastID + 1
	}
	repo.t.lastID = id

	inv.ID = "inv_" + strconv.FormatInt(id, 10)
	inv.CreatedAt = time.Unix(0, id).UTC()
	row := inv
	repo.t.table[inv.ID] = &row
	repo.t.byTx[inv.TransactionID] = inv.ID
	return inv, nil
}

func (repo *invoiceRepository) GetInvoice(ctx context.Context, id string) (invoice.Invoice, error) {
	if err := repo.db.wait(ctx); err != nil {
		return invoice.Invoice{}, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	if inv, ok := repo.t.table[id]; ok {
		return *inv, nil
	}
	return invoice.Invoice{}, invoice.ErrNotFound
}

func (repo *invoiceRepository) GetInvoiceByTransaction(ctx context.Context, txID string) (invoice.Invoice, error) {
	if err := repo.db.wait(ctx); err != nil {
		return invoice.Invoice{}, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	if id, ok := repo.t.byTx[txID]; ok {
		return *repo.t.table[id], nil
	}
	return invoice.Invoice{}, invoice.ErrNotFound
}

func (repo *invoiceRepository) UpdateInvoiceStatus(ctx context.Context, id string, status invoice.Status) (invoice.Invoice, error) {
	if err := repo.db.wait(ctx); err != nil {
		return invoice.Invoice{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	inv, ok := repo.t.table[id]
	if !ok {
		return invoice.Invoice{}, invoice.ErrNotFound
	}
	inv.Status = status
	return *inv, nil
}

func (repo *invoiceRepository) QueryInvoices(ctx context.Context, filter invoice.QueryFilter, ordering []core.DBOrdering) ([]invoice.Invoice, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	invs := make([]invoice.Invoice, 0)
	for _, inv := range repo.t.table {
		if filter.Match(*inv) {
			invs = append(invs, *inv)
		}
	}
	sortBy(invs, ordering, core.DBOrdering{Field: "created_at"}, func(i, j int, field string) int {
		a, b := invs[i], invs[j]
		switch field {
		case "created_at":
			return compareTimes(a.CreatedAt, b.CreatedAt)
		case "number":
			return compareStrings(a.Number, b.Number)
		case "amount":
			return compareDecimals(a.Amount, b.Amount)
		case "payer_name":
			return compareStrings(a.PayerName, b.PayerName)
		case "status":
			return compareStrings(string(a.Status), string(b.Status))
		}
		return 0
	})
	return invs, nil
}
