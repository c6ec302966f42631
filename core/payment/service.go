package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
)

var (
	// errors
	ErrNotFound          = errors.New("transação não encontrada")
	ErrInvalidTransition = core.NewValidationError(errors.New("a transação já foi finalizada"))

	errAmountNotPositive = "o valor deve ser maior que zero"
	errAmountTooLarge    = "o valor deve ser no máximo " + core.FormatBRL(core.MaxMoney)

	nowFunc = time.Now // mockable

	// OrderingFields are the fields transactions can be ordered by.
	OrderingFields = []string{"created_at", "updated_at", "amount", "payer_name", "status"}
)

type (
	Repository interface {
		CreateTransaction(ctx context.Context, tx Transaction) (Transaction, error)
		GetTransaction(ctx context.Context, id string) (Transaction, error)
		// QueryTransactions applies AND operation on available QueryFilter fields.
		QueryTransactions(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Transaction, error)
		// UpdateTransactionStatus moves the transaction from status `from` to `to`.
		// It returns ErrInvalidTransition when the stored status is not `from`.
		UpdateTransactionStatus(ctx context.Context, id string, from, to Status, at time.Time) (Transaction, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a pending transaction.
func (svc *Service) Create(ctx context.Context, nt NewTransaction) (Transaction, error) {
	now := nowFunc().UTC()
	tx := Transaction{
		ID:            uuid.New().String(),
		PayerID:       nt.PayerID,
		PayerName:     nt.PayerName,
		PayerEmail:    nt.PayerEmail,
		PayerDocument: nt.PayerDocument,
		PayerAddress:  nt.PayerAddress,
		Amount:        nt.Amount.Round(2),
		Method:        nt.Method,
		Status:        StatusPending,
		Description:   nt.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	tx, err := svc.repo.CreateTransaction(ctx, tx)
	return tx, pkgerrors.Wrap(err, "creating transaction")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Transaction, error) {
	return svc.repo.GetTransaction(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Transaction, error) {
	filter.Clean()
	return svc.repo.QueryTransactions(ctx, filter, core.FilterOrdering(ordering, OrderingFields...))
}

// SetStatus settles a pending transaction as completed or failed.
func (svc *Service) SetStatus(ctx context.Context, id string, status Status) (Transaction, error) {
	tx, err := svc.repo.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if !tx.Status.CanTransitionTo(status) {
		return Transaction{}, ErrInvalidTransition
	}
	return svc.repo.UpdateTransactionStatus(ctx, id, tx.Status, status, nowFunc().UTC())
}

// Summary computes the finance totals of the transactions matching filter.
func (svc *Service) Summary(ctx context.Context, filter QueryFilter) (Summary, error) {
	txs, err := svc.Query(ctx, filter, nil)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(err, "querying transactions")
	}
	return Summarize(txs), nil
}
