package invoice

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/payment"
	emailsvc "github.com/trezcool/fotoescola/services/email"
	logsvc "github.com/trezcool/fotoescola/services/logger"
)

type memRepo struct {
	sync.Mutex
	seq  int
	rows map[string]Invoice
}

func newMemRepo() *memRepo { return &memRepo{rows: make(map[string]Invoice)} }

func (r *memRepo) StoreInvoice(_ context.Context, inv Invoice) (Invoice, error) {
	r.Lock()
	defer r.Unlock()
	for _, row := range r.rows {
		if row.TransactionID == inv.TransactionID {
			return Invoice{}, ErrAlreadyIssued
		}
	}
	r.seq++
	inv.ID = "inv_" + strconv.Itoa(r.seq)
	inv.CreatedAt = time.Now().UTC()
	r.rows[inv.ID] = inv
	return inv, nil
}

func (r *memRepo) GetInvoice(_ context.Context, id string) (Invoice, error) {
	r.Lock()
	defer r.Unlock()
	if inv, ok := r.rows[id]; ok {
		return inv, nil
	}
	return Invoice{}, ErrNotFound
}

func (r *memRepo) GetInvoiceByTransaction(_ context.Context, txID string) (Invoice, error) {
	r.Lock()
	defer r.Unlock()
	for _, inv := range r.rows {
		if inv.TransactionID == txID {
			return inv, nil
		}
	}
	return Invoice{}, ErrNotFound
}

func (r *memRepo) UpdateInvoiceStatus(_ context.Context, id string, status Status) (Invoice, error) {
	r.Lock()
	defer r.Unlock()
	inv, ok := r.rows[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	inv.Status = status
	r.rows[id] = inv
	return inv, nil
}

func (r *memRepo) QueryInvoices(_ context.Context, filter QueryFilter, _ []core.DBOrdering) ([]Invoice, error) {
	r.Lock()
	defer r.Unlock()
	var invs []Invoice
	for _, inv := range r.rows {
		if filter.Match(inv) {
			invs = append(invs, inv)
		}
	}
	return invs, nil
}

type txSource map[string]payment.Transaction

func (s txSource) GetByID(_ context.Context, id string) (payment.Transaction, error) {
	if tx, ok := s[id]; ok {
		return tx, nil
	}
	return payment.Transaction{}, payment.ErrNotFound
}

type mailMock struct {
	sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailMock) SendMessages(messages ...*core.EmailMessage) {
	m.Lock()
	defer m.Unlock()
	m.sent = append(m.sent, messages...)
}

func setup(t *testing.T) (*Service, *memRepo, *mailMock) {
	txs := txSource{
		"1": {
			ID:          "1",
			PayerID:     "u1",
			PayerName:   "Carlos Silva",
			PayerEmail:  "carlos@example.com",
			Amount:      decimal.RequireFromString("990.00"),
			Method:      payment.MethodPix,
			Status:      payment.StatusCompleted,
			Description: "Matrícula - JavaScript Avançado",
		},
		"2": {ID: "2", PayerName: "Ana Souza", Amount: decimal.RequireFromString("450"), Status: payment.StatusPending},
		"3": {ID: "3", PayerName: "Bruno Lima", Amount: decimal.RequireFromString("120"), Status: payment.StatusFailed},
		"4": {ID: "4", PayerName: "Sem Email", Amount: decimal.RequireFromString("80"), Status: payment.StatusCompleted},
	}
	repo := newMemRepo()
	mail := new(mailMock)
	return NewService(repo, txs, mail, newTestRenderer(t), core.NewTestConfig()), repo, mail
}

func TestService_Issue(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "1")
	require.NoError(t, err)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "1", inv.TransactionID)
	assert.Regexp(t, numberRegex, inv.Number)
	assert.Equal(t, StatusProcessed, inv.Status)
	assert.Equal(t, nowFunc().Format("02/01/2006"), inv.IssueDate)

	tests := []struct {
		name    string
		txID    string
		wantErr error
	}{
		{name: "already issued", txID: "1", wantErr: ErrAlreadyIssued},
		{name: "pending transaction", txID: "2", wantErr: ErrTransactionNotCompleted},
		{name: "failed transaction", txID: "3", wantErr: ErrTransactionNotCompleted},
		{name: "unknown transaction", txID: "404", wantErr: payment.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Issue(ctx, tt.txID)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
		})
	}

	// no invoice was created for rejected transactions
	invs, err := repo.QueryInvoices(ctx, QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Len(t, invs, 1)
}

func TestService_Issue_raceOnStore(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	// another request reserved the transaction between the lookup and the store
	_, err := repo.StoreInvoice(ctx, Invoice{TransactionID: "4", Status: StatusProcessed})
	require.NoError(t, err)
	svc.repo = &staleLookupRepo{memRepo: repo}

	_, err = svc.Issue(ctx, "4")
	assert.Equal(t, ErrAlreadyIssued, err)
}

// staleLookupRepo never sees existing invoices on lookup, as if the check ran before a concurrent store.
type staleLookupRepo struct {
	*memRepo
}

func (r *staleLookupRepo) GetInvoiceByTransaction(context.Context, string) (Invoice, error) {
	return Invoice{}, ErrNotFound
}

func TestService_IssueThenDownload(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "1")
	require.NoError(t, err)

	inv, doc, err := svc.Download(ctx, inv.ID, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Nota_Fiscal_"+inv.Number+".txt", doc.Filename)
	assert.True(t, strings.HasPrefix(doc.ContentType, "text/plain"))
	assert.Contains(t, string(doc.Content), "Carlos Silva")
	assert.Contains(t, string(doc.Content), "990,00")
	assert.Equal(t, StatusDownloaded, inv.Status)

	stored, err := repo.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDownloaded, stored.Status)

	_, doc, err = svc.Download(ctx, inv.ID, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "NFSe_"+inv.Number+".pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)

	_, _, err = svc.Download(ctx, inv.ID, "docx")
	assert.Equal(t, ErrUnknownFormat, err)

	_, _, err = svc.Download(ctx, "inv_404", FormatText)
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestService_Print(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "1")
	require.NoError(t, err)

	inv, page, err := svc.Print(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPrinted, inv.Status)
	assert.Contains(t, page, "window.print()")
	assert.Contains(t, page, "Carlos Silva")

	// any order, repeatable
	inv, _, err = svc.Download(ctx, inv.ID, FormatText)
	require.NoError(t, err)
	assert.Equal(t, StatusDownloaded, inv.Status)
	inv, _, err = svc.Print(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPrinted, inv.Status)
}

func TestService_Send(t *testing.T) {
	svc, _, mail := setup(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "1")
	require.NoError(t, err)

	inv, err = svc.Send(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, inv.Status)

	require.Len(t, mail.sent, 1)
	msg := mail.sent[0]
	assert.Equal(t, "carlos@example.com", msg.To[0].Address)
	assert.Equal(t, "invoice", msg.TemplateName)
	assert.Contains(t, msg.TextContent, "990,00")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "NFSe_"+inv.Number+".pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)

	noEmail, err := svc.Issue(ctx, "4")
	require.NoError(t, err)
	_, err = svc.Send(ctx, noEmail.ID)
	assert.Equal(t, ErrNoPayerEmail, err)

	stored, err := svc.Get(ctx, noEmail.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, stored.Status)
}

func TestService_Send_rendersReceipt(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(zap.NewNop().Sugar(), conf)
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	_, repo, _ := setup(t)
	txs := txSource{
		"1": {
			ID:          "1",
			PayerName:   "Carlos Silva",
			PayerEmail:  "carlos@example.com",
			Amount:      decimal.RequireFromString("990.00"),
			Status:      payment.StatusCompleted,
			Description: "Matrícula - JavaScript Avançado",
		},
	}
	svc := NewService(repo, txs, mailSvc, newTestRenderer(t), conf)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "1")
	require.NoError(t, err)
	inv, err = svc.Send(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, inv.Status)

	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Carlos Silva")
	assert.Contains(t, sent[0].TextContent, "990,00")
	assert.Contains(t, sent[0].TextContent, "Matrícula - JavaScript Avançado")
	assert.Contains(t, sent[0].TextContent, inv.Number)
	assert.NotEmpty(t, sent[0].HTMLContent)
}

func TestService_UpdateStatus(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "1")
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, inv.ID, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, updated.Status)

	// only the status changed
	want := inv
	want.Status = StatusSent
	assert.Equal(t, want, updated)

	_, err = svc.UpdateStatus(ctx, inv.ID, StatusProcessed)
	assert.Equal(t, ErrInvalidTransition, err)

	_, err = svc.UpdateStatus(ctx, "inv_404", StatusPrinted)
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestService_AbrasfXML(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, "1")
	require.NoError(t, err)

	out, err := svc.AbrasfXML(ctx, inv.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "<ValorServicos>990,00</ValorServicos>")
	assert.Contains(t, out, "<Aliquota>0,0500</Aliquota>")
	assert.Contains(t, out, "<NumeroLote>"+strings.TrimPrefix(inv.Number, "NFS-")+"</NumeroLote>")
}

func TestService_Query(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	inv1, err := svc.Issue(ctx, "1")
	require.NoError(t, err)
	inv4, err := svc.Issue(ctx, "4")
	require.NoError(t, err)
	_, _, err = svc.Print(ctx, inv4.ID)
	require.NoError(t, err)

	invs, err := svc.Query(ctx, QueryFilter{Search: " carlos "}, nil)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, inv1.ID, invs[0].ID)

	invs, err = svc.Query(ctx, QueryFilter{Statuses: []Status{StatusPrinted}}, nil)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, inv4.ID, invs[0].ID)

	got, err := svc.GetByTransaction(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, inv4.ID, got.ID)
}
