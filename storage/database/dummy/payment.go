package dummydb

import (
	"context"
	"time"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/payment"
)

type transactionRepository struct {
	db *DB
	t  *transactionTable
}

var _ payment.Repository = (*transactionRepository)(nil) // interface compliance check

func NewTransactionRepository(db *DB) payment.Repository {
	return &transactionRepository{db: db, t: db.transaction}
}

func (repo *transactionRepository) CreateTransaction(ctx context.Context, tx payment.Transaction) (payment.Transaction, error) {
	if err := repo.db.wait(ctx); err != nil {
		return payment.Transaction{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	row := tx
	repo.t.table[tx.ID] = &row
	return tx, nil
}

func (repo *transactionRepository) GetTransaction(ctx context.Context, id string) (payment.Transaction, error) {
	if err := repo.db.wait(ctx); err != nil {
		return payment.Transaction{}, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	if tx, ok := repo.t.table[id]; ok {
		return *tx, nil
	}
	return payment.Transaction{}, payment.ErrNotFound
}

func (repo *transactionRepository) QueryTransactions(ctx context.Context, filter payment.QueryFilter, ordering []core.DBOrdering) ([]payment.Transaction, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	txs := make([]payment.Transaction, 0)
	for _, tx := range repo.t.table {
		if filter.Match(*tx) {
			txs = append(txs, *tx)
		}
	}
	sortBy(txs, ordering, core.DBOrdering{Field: "created_at"}, func(i, j int, field string) int {
		a, b := txs[i], txs[j]
		switch field {
		case "created_at":
			return compareTimes(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTimes(a.UpdatedAt, b.UpdatedAt)
		case "amount":
			return compareDecimals(a.Amount, b.Amount)
		case "payer_name":
			return compareStrings(a.PayerName, b.PayerName)
		case "status":
			return compareStrings(string(a.Status), string(b.Status))
		}
		return 0
	})
	return txs, nil
}

func (repo *transactionRepository) UpdateTransactionStatus(ctx context.Context, id string, from, to payment.Status, at time.Time) (payment.Transaction, error) {
	if err := repo.db.wait(ctx); err != nil {
		return payment.Transaction{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	tx, ok := repo.t.table[id]
	if !ok {
		return payment.Transaction{}, payment.ErrNotFound
	}
	if tx.Status != from {
		return payment.Transaction{}, payment.ErrInvalidTransition
	}
	tx.Status = to
	tx.UpdatedAt = at
	return *tx, nil
}
