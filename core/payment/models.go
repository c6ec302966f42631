package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var Statuses = []Status{StatusPending, StatusCompleted, StatusFailed}

// CanTransitionTo reports whether a transaction in status s may move to next.
// Only pending transactions are settled, and they settle once.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && (next == StatusCompleted || next == StatusFailed)
}

type Method string

const (
	MethodPix        Method = "pix"
	MethodCreditCard Method = "credit_card"
	MethodBoleto     Method = "boleto"
)

// Address is the payer's billing address, used as "Tomador" address on invoices.
type Address struct {
	Street     string `json:"street" validate:"max=255"`
	Number     string `json:"number" validate:"max=20"`
	Complement string `json:"complement" validate:"max=100"`
	District   string `json:"district" validate:"max=100"`
	City       string `json:"city" validate:"max=100"`
	CityCode   string `json:"city_code" validate:"omitempty,numeric,len=7"` // IBGE code
	State      string `json:"state" validate:"omitempty,len=2"`
	ZipCode    string `json:"zip_code" validate:"omitempty,numeric,len=8"`
}

func (a Address) IsEmpty() bool {
	return a == Address{}
}

type Transaction struct {
	ID            string          `json:"id"`
	PayerID       string          `json:"payer_id"`
	PayerName     string          `json:"payer_name"`
	PayerEmail    string          `json:"payer_email"`
	PayerDocument string          `json:"payer_document"` // CPF/CNPJ digits
	PayerAddress  Address         `json:"payer_address"`
	Amount        decimal.Decimal `json:"amount"`
	Method        Method          `json:"method"`
	Status        Status          `json:"status"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
	UpdatedAt     time.Time       `json:"updated_at"` // UTC
}

func (tx Transaction) IsCompleted() bool { return tx.Status == StatusCompleted }

// NewTransaction contains information needed to register a payment.
type NewTransaction struct {
	PayerID       string          `json:"payer_id" validate:"max=64"`
	PayerName     string          `json:"payer_name" validate:"notblank,max=255"`
	PayerEmail    string          `json:"payer_email" validate:"omitempty,email,max=255"`
	PayerDocument string          `json:"payer_document" validate:"omitempty,cpfcnpj"`
	PayerAddress  Address         `json:"payer_address"`
	Amount        decimal.Decimal `json:"amount"`
	Method        Method          `json:"method" validate:"required,oneof=pix credit_card boleto"`
	Description   string          `json:"description" validate:"notblank,max=500"`
}

func (nt *NewTransaction) Validate(validate *validator.Validate) error {
	nt.PayerName = core.CleanString(nt.PayerName)
	nt.PayerEmail = core.CleanString(nt.PayerEmail, true /* lower */)
	nt.PayerDocument = core.OnlyDigits(nt.PayerDocument)
	nt.Description = core.CleanString(nt.Description)
	nt.PayerAddress.ZipCode = core.OnlyDigits(nt.PayerAddress.ZipCode)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	if !nt.Amount.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: errAmountNotPositive})
	}
	if nt.Amount.GreaterThan(core.MaxMoney) {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: errAmountTooLarge})
	}
	return nil
}

type QueryFilter struct {
	Search      string         `query:"search"` // payer name, email or description
	PayerID     string         `query:"payer_id"`
	Statuses    []Status       `query:"status"`
	Methods     []Method       `query:"method"`
	CreatedFrom core.QueryTime `query:"created_from"`
	CreatedTo   core.QueryTime `query:"created_to"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Match reports whether tx satisfies every set field of the filter.
func (qf QueryFilter) Match(tx Transaction) bool {
	if qf.Search != "" &&
		!(core.ContainsFold(tx.PayerName, qf.Search) ||
			core.ContainsFold(tx.PayerEmail, qf.Search) ||
			core.ContainsFold(tx.Description, qf.Search)) {
		return false
	}
	if qf.PayerID != "" && tx.PayerID != qf.PayerID {
		return false
	}
	if len(qf.Statuses) > 0 && !containsStatus(qf.Statuses, tx.Status) {
		return false
	}
	if len(qf.Methods) > 0 && !containsMethod(qf.Methods, tx.Method) {
		return false
	}
	if !qf.CreatedFrom.IsZero() && tx.CreatedAt.Before(qf.CreatedFrom.UTC()) {
		return false
	}
	if !qf.CreatedTo.IsZero() && tx.CreatedAt.After(qf.CreatedTo.UTC()) {
		return false
	}
	return true
}

func containsStatus(statuses []Status, s Status) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func containsMethod(methods []Method, m Method) bool {
	for _, mt := range methods {
		if mt == m {
			return true
		}
	}
	return false
}

// StatusTotal aggregates the transactions of one status.
type StatusTotal struct {
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// Summary holds the finance dashboard totals.
type Summary struct {
	Count       int                    `json:"count"`
	Total       decimal.Decimal        `json:"total"`
	Revenue     decimal.Decimal        `json:"revenue"`     // completed
	Outstanding decimal.Decimal        `json:"outstanding"` // pending
	ByStatus    map[Status]StatusTotal `json:"by_status"`
}

func Summarize(txs []Transaction) Summary {
	sum := Summary{ByStatus: make(map[Status]StatusTotal, len(Statuses))}
	for _, st := range Statuses {
		sum.ByStatus[st] = StatusTotal{}
	}
	for _, tx := range txs {
		st := sum.ByStatus[tx.Status]
		st.Count++
		st.Sum = st.Sum.Add(tx.Amount)
		sum.ByStatus[tx.Status] = st

		sum.Count++
		sum.Total = sum.Total.Add(tx.Amount)
	}
	sum.Revenue = sum.ByStatus[StatusCompleted].Sum
	sum.Outstanding = sum.ByStatus[StatusPending].Sum
	return sum
}
