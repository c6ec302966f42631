package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/invoice"
)

const (
	invoiceTable          = "invoice"
	invoiceTxIDConstraint = "invoice_transaction_id_key"
)

var (
	invoiceColumns = []string{"id", "transaction_id", "number", "issue_date", "amount", "payer_id", "payer_name", "description", "status", "created_at"}

	nowFunc = time.Now // mockable
)

type invoiceRow struct {
	ID            string          `db:"id"`
	TransactionID string          `db:"transaction_id"`
	Number        string          `db:"number"`
	IssueDate     string          `db:"issue_date"`
	Amount        decimal.Decimal `db:"amount"`
	PayerID       string          `db:"payer_id"`
	PayerName     string          `db:"payer_name"`
	Description   string          `db:"description"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r invoiceRow) toInvoice() invoice.Invoice {
	return invoice.Invoice{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		Number:        r.Number,
		IssueDate:     r.IssueDate,
		Amount:        r.Amount,
		PayerID:       r.PayerID,
		PayerName:     r.PayerName,
		Description:   r.Description,
		Status:        invoice.Status(r.Status),
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

type invoiceRepository struct {
	db *sqlx.DB
}

var _ invoice.Repository = (*invoiceRepository)(nil) // interface compliance check

func NewInvoiceRepository(db *sqlx.DB) invoice.Repository {
	return &invoiceRepository{db: db}
}

// newInvoiceID returns a random "inv_<uuid>" ID.
func newInvoiceID() string { return "inv_" + uuid.New().String() }

// StoreInvoice relies on the UNIQUE(transaction_id) constraint to reserve the transaction.
func (repo *invoiceRepository) StoreInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	// postgres keeps microseconds
	now := nowFunc().UTC().Truncate(time.Microsecond)
	inv.ID = newInvoiceID()
	inv.CreatedAt = now

	query := psql.Insert(invoiceTable).Columns(invoiceColumns...).Values(
		inv.ID, inv.TransactionID, inv.Number, inv.IssueDate, inv.Amount,
		inv.PayerID, inv.PayerName, inv.Description, string(inv.Status), inv.CreatedAt,
	)
	if err := exec(ctx, repo.db, query, nil); err != nil {
		if isUniqueViolation(err, invoiceTxIDConstraint) {
			return invoice.Invoice{}, invoice.ErrAlreadyIssued
		}
		return invoice.Invoice{}, errors.Wrap(err, "inserting invoice")
	}
	return inv, nil
}

func (repo *invoiceRepository) getBy(ctx context.Context, where sq.Eq) (invoice.Invoice, error) {
	var row invoiceRow
	query := psql.Select(invoiceColumns...).From(invoiceTable).Where(where)
	if err := get(ctx, repo.db, &row, query, invoice.ErrNotFound); err != nil {
		return invoice.Invoice{}, err
	}
	return row.toInvoice(), nil
}

func (repo *invoiceRepository) GetInvoice(ctx context.Context, id string) (invoice.Invoice, error) {
	return repo.getBy(ctx, sq.Eq{"id": id})
}

func (repo *invoiceRepository) GetInvoiceByTransaction(ctx context.Context, txID string) (invoice.Invoice, error) {
	return repo.getBy(ctx, sq.Eq{"transaction_id": txID})
}

func (repo *invoiceRepository) UpdateInvoiceStatus(ctx context.Context, id string, status invoice.Status) (invoice.Invoice, error) {
	query := psql.Update(invoiceTable).Set("status", string(status)).Where(sq.Eq{"id": id})
	if err := exec(ctx, repo.db, query, invoice.ErrNotFound); err != nil {
		if err == invoice.ErrNotFound {
			return invoice.Invoice{}, err
		}
		return invoice.Invoice{}, errors.Wrap(err, "updating invoice status")
	}
	return repo.GetInvoice(ctx, id)
}

func (repo *invoiceRepository) QueryInvoices(ctx context.Context, filter invoice.QueryFilter, ordering []core.DBOrdering) ([]invoice.Invoice, error) {
	query := psql.Select(invoiceColumns...).From(invoiceTable).OrderBy(orderBy(ordering, "created_at DESC")...)
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where(sq.Or{sq.ILike{"number": pattern}, sq.ILike{"payer_name": pattern}})
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
	if !filter.IssuedFrom.IsZero() {
		query = query.Where(sq.GtOrEq{"created_at": filter.IssuedFrom.UTC()})
	}
	if !filter.IssuedTo.IsZero() {
		query = query.Where(sq.LtOrEq{"created_at": filter.IssuedTo.UTC()})
	}

	var rows []invoiceRow
	if err := selectAll(ctx, repo.db, &rows, query); err != nil {
		return nil, err
	}
	invs := make([]invoice.Invoice, 0, len(rows))
	for _, r := range rows {
		invs = append(invs, r.toInvoice())
	}
	return invs, nil
}
