package invoice

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/payment"
)

// Status tracks what has been done with an issued invoice.
type Status string

const (
	StatusProcessed  Status = "processed"
	StatusPrinted    Status = "printed"
	StatusDownloaded Status = "downloaded"
	StatusSent       Status = "sent"
)

var Statuses = []Status{StatusProcessed, StatusPrinted, StatusDownloaded, StatusSent}

func (s Status) IsValid() bool {
	switch s {
	case StatusProcessed, StatusPrinted, StatusDownloaded, StatusSent:
		return true
	}
	return false
}

// CanTransitionTo reports whether an invoice in status s may move to next.
// Printed, downloaded and sent are reachable from any status, in any order and repeatedly;
// nothing goes back to processed.
func (s Status) CanTransitionTo(next Status) bool {
	return s.IsValid() && next.IsValid() && next != StatusProcessed
}

var (
	// errors
	ErrNotFound                = errors.New("nota fiscal não encontrada")
	ErrAlreadyIssued           = errors.New("já existe uma nota fiscal emitida para esta transação")
	ErrTransactionNotCompleted = core.NewValidationError(errors.New("a nota fiscal só pode ser emitida para transações concluídas"))
	ErrInvalidTransition       = core.NewValidationError(errors.New("alteração de status inválida"))
	ErrNoPayerEmail            = core.NewValidationError(errors.New("o tomador não possui e-mail cadastrado"))
	ErrUnknownFormat           = core.NewValidationError(errors.New("formato de download inválido"))
	ErrEmptyEmail              = errors.New("invoice email rendered without content")
)

// Invoice is an issued NFS-e. Amount, payer and description are copied from the
// transaction at issuance time.
type Invoice struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	Number        string          `json:"number"`
	IssueDate     string          `json:"issue_date"` // dd/mm/yyyy
	Amount        decimal.Decimal `json:"amount"`
	PayerID       string          `json:"payer_id"`
	PayerName     string          `json:"payer_name"`
	Description   string          `json:"description"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
}

const issueDateLayout = "02/01/2006"

// NewInvoice builds the record to store for tx; ID and CreatedAt are set by the store.
func NewInvoice(tx payment.Transaction, at time.Time) Invoice {
	return Invoice{
		TransactionID: tx.ID,
		Number:        GenerateNumber(),
		IssueDate:     at.Format(issueDateLayout),
		Amount:        tx.Amount,
		PayerID:       tx.PayerID,
		PayerName:     tx.PayerName,
		Description:   tx.Description,
		Status:        StatusProcessed,
	}
}

type QueryFilter struct {
	Search     string         `query:"search"` // number or payer name
	PayerID    string         `query:"payer_id"`
	Statuses   []Status       `query:"status"`
	IssuedFrom core.QueryTime `query:"issued_from"`
	IssuedTo   core.QueryTime `query:"issued_to"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Match reports whether inv satisfies every set field of the filter.
func (qf QueryFilter) Match(inv Invoice) bool {
	if qf.Search != "" && !(core.ContainsFold(inv.Number, qf.Search) || core.ContainsFold(inv.PayerName, qf.Search)) {
		return false
	}
	if qf.PayerID != "" && inv.PayerID != qf.PayerID {
		return false
	}
	if len(qf.Statuses) > 0 {
		var found bool
		for _, st := range qf.Statuses {
			if st == inv.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !qf.IssuedFrom.IsZero() && inv.CreatedAt.Before(qf.IssuedFrom.UTC()) {
		return false
	}
	if !qf.IssuedTo.IsZero() && inv.CreatedAt.After(qf.IssuedTo.UTC()) {
		return false
	}
	return true
}

// Format of a downloadable invoice document.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// Document is a rendered invoice ready to be served as an attachment.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}
