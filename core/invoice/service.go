package invoice

import (
	"bytes"
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/payment"
)

// OrderingFields are the fields invoices can be ordered by.
var OrderingFields = []string{"created_at", "number", "amount", "payer_name", "status"}

type (
	Repository interface {
		// StoreInvoice assigns ID and CreatedAt, then persists inv.
		// The transaction ID is reserved atomically: a second invoice for the same
		// transaction fails with ErrAlreadyIssued.
		StoreInvoice(ctx context.Context, inv Invoice) (Invoice, error)
		GetInvoice(ctx context.Context, id string) (Invoice, error)
		GetInvoiceByTransaction(ctx context.Context, txID string) (Invoice, error)
		// UpdateInvoiceStatus replaces the status of invoice id, nothing else.
		UpdateInvoiceStatus(ctx context.Context, id string, status Status) (Invoice, error)
		QueryInvoices(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Invoice, error)
	}

	// TransactionSource gives read access to payment transactions.
	TransactionSource interface {
		GetByID(ctx context.Context, id string) (payment.Transaction, error)
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		txns     TransactionSource
		mailSvc  core.EmailService
		renderer *Renderer
	}
)

func NewService(repo Repository, txns TransactionSource, mailSvc core.EmailService, renderer *Renderer, conf *core.Config) *Service {
	return &Service{
		conf:     conf,
		repo:     repo,
		txns:     txns,
		mailSvc:  mailSvc,
		renderer: renderer,
	}
}

// Issue creates the invoice of a completed transaction.
func (svc *Service) Issue(ctx context.Context, txID string) (Invoice, error) {
	tx, err := svc.txns.GetByID(ctx, txID)
	if err != nil {
		if errors.Cause(err) == payment.ErrNotFound {
			issueFailuresCounter.WithLabelValues(reasonTxNotFound).Inc()
		}
		return Invoice{}, errors.Wrap(err, "getting transaction")
	}
	if !tx.IsCompleted() {
		issueFailuresCounter.WithLabelValues(reasonNotCompleted).Inc()
		return Invoice{}, ErrTransactionNotCompleted
	}

	if _, err = svc.repo.GetInvoiceByTransaction(ctx, tx.ID); err == nil {
		issueFailuresCounter.WithLabelValues(reasonAlreadyIssued).Inc()
		return Invoice{}, ErrAlreadyIssued
	} else if errors.Cause(err) != ErrNotFound {
		return Invoice{}, errors.Wrap(err, "getting invoice by transaction")
	}

	inv, err := svc.repo.StoreInvoice(ctx, NewInvoice(tx, nowFunc()))
	if err != nil {
		if errors.Cause(err) == ErrAlreadyIssued {
			issueFailuresCounter.WithLabelValues(reasonAlreadyIssued).Inc()
			return Invoice{}, ErrAlreadyIssued
		}
		issueFailuresCounter.WithLabelValues(reasonStore).Inc()
		return Invoice{}, errors.Wrap(err, "storing invoice")
	}
	issuedCounter.Inc()
	return inv, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Invoice, error) {
	return svc.repo.GetInvoice(ctx, id)
}

func (svc *Service) GetByTransaction(ctx context.Context, txID string) (Invoice, error) {
	return svc.repo.GetInvoiceByTransaction(ctx, txID)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Invoice, error) {
	filter.Clean()
	return svc.repo.QueryInvoices(ctx, filter, core.FilterOrdering(ordering, OrderingFields...))
}

// UpdateStatus moves invoice id to status, if the transition is allowed.
func (svc *Service) UpdateStatus(ctx context.Context, id string, status Status) (Invoice, error) {
	inv, err := svc.repo.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	return svc.setStatus(ctx, inv, status)
}

func (svc *Service) setStatus(ctx context.Context, inv Invoice, status Status) (Invoice, error) {
	if !inv.Status.CanTransitionTo(status) {
		return Invoice{}, ErrInvalidTransition
	}
	inv, err := svc.repo.UpdateInvoiceStatus(ctx, inv.ID, status)
	if err != nil {
		return Invoice{}, errors.Wrap(err, "updating invoice status")
	}
	statusUpdatesCounter.WithLabelValues(string(status)).Inc()
	return inv, nil
}

func (svc *Service) load(ctx context.Context, id string) (Invoice, payment.Transaction, error) {
	inv, err := svc.repo.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, payment.Transaction{}, err
	}
	tx, err := svc.txns.GetByID(ctx, inv.TransactionID)
	if err != nil {
		return Invoice{}, payment.Transaction{}, errors.Wrap(err, "getting transaction")
	}
	return inv, tx, nil
}

// Print renders the printable HTML page of invoice id and marks it printed.
func (svc *Service) Print(ctx context.Context, id string) (Invoice, string, error) {
	inv, tx, err := svc.load(ctx, id)
	if err != nil {
		return Invoice{}, "", err
	}
	page, err := svc.renderer.RenderHTML(tx, inv)
	if err != nil {
		return Invoice{}, "", err
	}
	inv, err = svc.setStatus(ctx, inv, StatusPrinted)
	if err != nil {
		return Invoice{}, "", err
	}
	return inv, page, nil
}

// Download renders invoice id as a txt or pdf attachment and marks it downloaded.
func (svc *Service) Download(ctx context.Context, id string, format Format) (Invoice, Document, error) {
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatPDF {
		return Invoice{}, Document{}, ErrUnknownFormat
	}

	inv, tx, err := svc.load(ctx, id)
	if err != nil {
		return Invoice{}, Document{}, err
	}

	doc := Document{Filename: Filename(inv, format)}
	switch format {
	case FormatPDF:
		doc.ContentType = "application/pdf"
		doc.Content, err = svc.renderer.RenderPDF(tx, inv)
	default:
		doc.ContentType = "text/plain; charset=utf-8"
		var text string
		text, err = svc.renderer.RenderText(tx, inv)
		doc.Content = []byte(text)
	}
	if err != nil {
		return Invoice{}, Document{}, err
	}

	inv, err = svc.setStatus(ctx, inv, StatusDownloaded)
	if err != nil {
		return Invoice{}, Document{}, err
	}
	return inv, doc, nil
}

// Send emails invoice id to the payer (text receipt and PDF attachment) and marks it sent.
func (svc *Service) Send(ctx context.Context, id string) (Invoice, error) {
	inv, tx, err := svc.load(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if tx.PayerEmail == "" {
		return Invoice{}, ErrNoPayerEmail
	}

	text, err := svc.renderer.RenderText(tx, inv)
	if err != nil {
		return Invoice{}, err
	}
	pdf, err := svc.renderer.RenderPDF(tx, inv)
	if err != nil {
		return Invoice{}, err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: inv.PayerName, Address: tx.PayerEmail}},
		Subject:      "Nota Fiscal de Serviço " + inv.Number,
		TemplateName: "invoice",
		TemplateData: struct {
			PayerName string
			Number    string
			IssueDate string
			Amount    string
			Receipt   string
		}{
			PayerName: inv.PayerName,
			Number:    inv.Number,
			IssueDate: inv.IssueDate,
			Amount:    core.FormatBRL(inv.Amount),
			Receipt:   text,
		},
	}
	if err = msg.Attach(bytes.NewReader(pdf), Filename(inv, FormatPDF), "application/pdf"); err != nil {
		return Invoice{}, errors.Wrap(err, "attaching pdf")
	}
	if err = msg.Render(svc.conf); err != nil {
		return Invoice{}, errors.Wrap(err, "rendering invoice email")
	}
	if !msg.HasContent() {
		return Invoice{}, ErrEmptyEmail
	}
	svc.mailSvc.SendMessages(msg)

	return svc.setStatus(ctx, inv, StatusSent)
}

// AbrasfXML renders invoice id as an ABRASF EnviarLoteRpsEnvio document.
func (svc *Service) AbrasfXML(ctx context.Context, id string) (string, error) {
	inv, tx, err := svc.load(ctx, id)
	if err != nil {
		return "", err
	}
	return GenerateAbrasfXML(NewAbrasfData(svc.renderer.conf, tx, inv))
}
