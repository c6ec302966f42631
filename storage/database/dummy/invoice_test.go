package dummydb_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/invoice"
	"github.com/trezcool/fotoescola/core/payment"
	"github.com/trezcool/fotoescola/storage/database/dummy"
)

func newInvoice(txID, payer string) invoice.Invoice {
	return invoice.Invoice{
		TransactionID: txID,
		Number:        invoice.GenerateNumber(),
		IssueDate:     "05/03/2024",
		Amount:        decimal.RequireFromString("990.00"),
		PayerName:     payer,
		Description:   "Matrícula - Fotografia Básica",
		Status:        invoice.StatusProcessed,
	}
}

func TestInvoiceRepository_StoreThenGet(t *testing.T) {
	db, err := dummydb.Open(core.DatabaseConfig{})
	require.NoError(t, err)
	repo := dummydb.NewInvoiceRepository(db)
	ctx := context.Background()

	stored, err := repo.StoreInvoice(ctx, newInvoice("1", "Carlos Silva"))
	require.NoError(t, err)
	assert.Regexp(t, `^inv_\d+$`, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	got, err := repo.GetInvoice(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	got, err = repo.GetInvoiceByTransaction(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = repo.StoreInvoice(ctx, newInvoice("1", "Carlos Silva"))
	assert.Equal(t, invoice.ErrAlreadyIssued, err)

	other, err := repo.StoreInvoice(ctx, newInvoice("2", "Ana Souza"))
	require.NoError(t, err)
	assert.NotEqual(t, stored.ID, other.ID)

	_, err = repo.GetInvoice(ctx, "inv_0")
	assert.Equal(t, invoice.ErrNotFound, err)
}

func TestInvoiceRepository_UpdateInvoiceStatus(t *testing.T) {
	db, err := dummydb.Open(core.DatabaseConfig{})
	require.NoError(t, err)
	repo := dummydb.NewInvoiceRepository(db)
	ctx := context.Background()

	_, err = repo.UpdateInvoiceStatus(ctx, "inv_404", invoice.StatusPrinted)
	assert.Equal(t, invoice.ErrNotFound, err)

	stored, err := repo.StoreInvoice(ctx, newInvoice("1", "Carlos Silva"))
	require.NoError(t, err)

	updated, err := repo.UpdateInvoiceStatus(ctx, stored.ID, invoice.StatusSent)
	require.NoError(t, err)

	want := stored
	want.Status = invoice.StatusSent
	assert.Equal(t, want, updated)

	got, err := repo.GetInvoice(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestInvoiceRepository_QueryInvoices(t *testing.T) {
	db, err := dummydb.Open(core.DatabaseConfig{})
	require.NoError(t, err)
	repo := dummydb.NewInvoiceRepository(db)
	ctx := context.Background()

	var ids []string
	for i, payer := range []string{"Carlos Silva", "Ana Souza", "Bruno Lima"} {
		inv, err := repo.StoreInvoice(ctx, newInvoice(string(rune('1'+i)), payer))
		require.NoError(t, err)
		ids = append(ids, inv.ID)
	}
	_, err = repo.UpdateInvoiceStatus(ctx, ids[1], invoice.StatusPrinted)
	require.NoError(t, err)

	tests := []struct {
		name     string
		filter   invoice.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "newest first", want: []string{ids[2], ids[1], ids[0]}},
		{
			name:     "by payer name",
			ordering: []core.DBOrdering{{Field: "payer_name", Ascending: true}},
			want:     []string{ids[1], ids[2], ids[0]},
		},
		{name: "search payer", filter: invoice.QueryFilter{Search: "silva"}, want: []string{ids[0]}},
		{
			name:   "status",
			filter: invoice.QueryFilter{Statuses: []invoice.Status{invoice.StatusProcessed}},
			want:   []string{ids[2], ids[0]},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invs, err := repo.QueryInvoices(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			got := make([]string, 0, len(invs))
			for _, inv := range invs {
				got = append(got, inv.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvoiceService_concurrentIssue(t *testing.T) {
	conf := core.NewTestConfig()
	db, err := dummydb.Open(core.DatabaseConfig{Latency: 20 * time.Millisecond})
	require.NoError(t, err)
	ctx := context.Background()

	paySvc := payment.NewService(dummydb.NewTransactionRepository(db))
	tx, err := paySvc.Create(ctx, payment.NewTransaction{
		PayerName:   "Carlos Silva",
		Amount:      decimal.RequireFromString("990.00"),
		Method:      payment.MethodPix,
		Description: "Matrícula - JavaScript Avançado",
	})
	require.NoError(t, err)
	_, err = paySvc.SetStatus(ctx, tx.ID, payment.StatusCompleted)
	require.NoError(t, err)

	renderer, err := invoice.NewRenderer(conf.Invoice)
	require.NoError(t, err)
	invSvc := invoice.NewService(dummydb.NewInvoiceRepository(db), paySvc, nil, renderer, core.NewTestConfig())

	const n = 2
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = invSvc.Issue(ctx, tx.ID)
		}(i)
	}
	wg.Wait()

	var issued, conflicts int
	for _, err := range errs {
		switch errors.Cause(err) {
		case nil:
			issued++
		case invoice.ErrAlreadyIssued:
			conflicts++
		default:
			t.Fatalf("Issue() unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, issued)
	assert.Equal(t, 1, conflicts)

	invs, err := invSvc.Query(ctx, invoice.QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Len(t, invs, 1)
}

func TestDB_latencyHonoursContext(t *testing.T) {
	db, err := dummydb.Open(core.DatabaseConfig{Latency: time.Minute})
	require.NoError(t, err)
	repo := dummydb.NewInvoiceRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = repo.GetInvoice(ctx, "inv_1")
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.Less(t, int64(time.Since(start)), int64(time.Second))
}
