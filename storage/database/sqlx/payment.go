package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/payment"
)

const transactionTable = `"transaction"`

var transactionColumns = []string{
	"id", "payer_id", "payer_name", "payer_email", "payer_document",
	"street", "number", "complement", "district", "city", "city_code", "state", "zip_code",
	"amount", "method", "status", "description", "created_at", "updated_at",
}

type transactionRow struct {
	ID            string          `db:"id"`
	PayerID       string          `db:"payer_id"`
	PayerName     string          `db:"payer_name"`
	PayerEmail    string          `db:"payer_email"`
	PayerDocument string          `db:"payer_document"`
	Street        string          `db:"street"`
	Number        string          `db:"number"`
	Complement    string          `db:"complement"`
	District      string          `db:"district"`
	City          string          `db:"city"`
	CityCode      string          `db:"city_code"`
	State         string          `db:"state"`
	ZipCode       string          `db:"zip_code"`
	Amount        decimal.Decimal `db:"amount"`
	Method        string          `db:"method"`
	Status        string          `db:"status"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r transactionRow) toTransaction() payment.Transaction {
	return payment.Transaction{
		ID:            r.ID,
		PayerID:       r.PayerID,
		PayerName:     r.PayerName,
		PayerEmail:    r.PayerEmail,
		PayerDocument: r.PayerDocument,
		PayerAddress: payment.Address{
			Street:     r.Street,
			Number:     r.Number,
			Complement: r.Complement,
			District:   r.District,
			City:       r.City,
			CityCode:   r.CityCode,
			State:      r.State,
			ZipCode:    r.ZipCode,
		},
		Amount:      r.Amount,
		Method:      payment.Method(r.Method),
		Status:      payment.Status(r.Status),
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type transactionRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*transactionRepository)(nil) // interface compliance check

func NewTransactionRepository(db *sqlx.DB) payment.Repository {
	return &transactionRepository{db: db}
}

func (repo *transactionRepository) CreateTransaction(ctx context.Context, tx payment.Transaction) (payment.Transaction, error) {
	addr := tx.PayerAddress
	query := psql.Insert(transactionTable).Columns(transactionColumns...).Values(
		tx.ID, tx.PayerID, tx.PayerName, tx.PayerEmail, tx.PayerDocument,
		addr.Street, addr.Number, addr.Complement, addr.District, addr.City, addr.CityCode, addr.State, addr.ZipCode,
		tx.Amount, string(tx.Method), string(tx.Status), tx.Description, tx.CreatedAt, tx.UpdatedAt,
	)
	if err := exec(ctx, repo.db, query, nil); err != nil {
		return payment.Transaction{}, errors.Wrap(err, "inserting transaction")
	}
	return tx, nil
}

func (repo *transactionRepository) GetTransaction(ctx context.Context, id string) (payment.Transaction, error) {
	var row transactionRow
	query := psql.Select(transactionColumns...).From(transactionTable).Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &row, query, payment.ErrNotFound); err != nil {
		return payment.Transaction{}, err
	}
	return row.toTransaction(), nil
}

func (repo *transactionRepository) QueryTransactions(ctx context.Context, filter payment.QueryFilter, ordering []core.DBOrdering) ([]payment.Transaction, error) {
	query := psql.Select(transactionColumns...).From(transactionTable).OrderBy(orderBy(ordering, "created_at DESC")...)
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where(sq.Or{sq.ILike{"payer_name": pattern}, sq.ILike{"payer_email": pattern}, sq.ILike{"description": pattern}})
	}
	if filter.PayerID != "" {
		query = query.Where(sq.Eq{"payer_id": filter.PayerID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where(sq.Eq{"status": statuses})
	}
	if len(filter.Methods) > 0 {
		methods := make([]string, 0, len(filter.Methods))
		for _, m := range filter.Methods {
			methods = append(methods, string(m))
		}
		query = query.Where(sq.Eq{"method": methods})
	}
	if !filter.CreatedFrom.IsZero() {
		query = query.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
	}
	if !filter.CreatedTo.IsZero() {
		query = query.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
	}

	var rows []transactionRow
	if err := selectAll(ctx, repo.db, &rows, query); err != nil {
		return nil, err
	}
	txs := make([]payment.Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, r.toTransaction())
	}
	return txs, nil
}

// UpdateTransactionStatus is a compare-and-set on the status column.
func (repo *transactionRepository) UpdateTransactionStatus(ctx context.Context, id string, from, to payment.Status, at time.Time) (payment.Transaction, error) {
	query := psql.Update(transactionTable).
		Set("status", string(to)).
		Set("updated_at", at).
		Where(sq.Eq{"id": id, "status": string(from)})
	if err := exec(ctx, repo.db, query, payment.ErrInvalidTransition); err != nil {
		if err != payment.ErrInvalidTransition {
			return payment.Transaction{}, errors.Wrap(err, "updating transaction status")
		}
		// tell a missing transaction from a settled one
		if _, getErr := repo.GetTransaction(ctx, id); getErr != nil {
			return payment.Transaction{}, getErr
		}
		return payment.Transaction{}, err
	}
	return repo.GetTransaction(ctx, id)
}
