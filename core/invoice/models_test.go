package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/payment"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{from: StatusProcessed, to: StatusPrinted, want: true},
		{from: StatusProcessed, to: StatusDownloaded, want: true},
		{from: StatusProcessed, to: StatusSent, want: true},
		{from: StatusPrinted, to: StatusDownloaded, want: true},
		{from: StatusDownloaded, to: StatusPrinted, want: true},
		{from: StatusSent, to: StatusPrinted, want: true},
		{from: StatusPrinted, to: StatusPrinted, want: true},
		{from: StatusPrinted, to: StatusProcessed},
		{from: StatusSent, to: StatusProcessed},
		{from: StatusProcessed, to: StatusProcessed},
		{from: StatusProcessed, to: "cancelled"},
		{from: "", to: StatusPrinted},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewInvoice(t *testing.T) {
	tx := payment.Transaction{
		ID:          "1",
		PayerID:     "u1",
		PayerName:   "Carlos Silva",
		Amount:      decimal.RequireFromString("990.00"),
		Status:      payment.StatusCompleted,
		Description: "Matrícula - JavaScript Avançado",
	}
	at := time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)

	inv := NewInvoice(tx, at)
	assert.Empty(t, inv.ID)
	assert.Equal(t, "1", inv.TransactionID)
	assert.Regexp(t, numberRegex, inv.Number)
	assert.Equal(t, "05/03/2024", inv.IssueDate)
	assert.True(t, inv.Amount.Equal(tx.Amount))
	assert.Equal(t, "u1", inv.PayerID)
	assert.Equal(t, "Carlos Silva", inv.PayerName)
	assert.Equal(t, tx.Description, inv.Description)
	assert.Equal(t, StatusProcessed, inv.Status)
}

func TestQueryFilter_Match(t *testing.T) {
	now := time.Now().UTC()
	inv := Invoice{Number: "NFS-202412345", PayerID: "u1", PayerName: "Carlos Silva", Status: StatusPrinted, CreatedAt: now}

	tests := []struct {
		name   string
		filter QueryFilter
		want   bool
	}{
		{name: "empty", want: true},
		{name: "number", filter: QueryFilter{Search: "12345"}, want: true},
		{name: "payer", filter: QueryFilter{Search: "CARLOS"}, want: true},
		{name: "search miss", filter: QueryFilter{Search: "maria"}},
		{name: "payer id miss", filter: QueryFilter{PayerID: "u2"}},
		{name: "status", filter: QueryFilter{Statuses: []Status{StatusSent, StatusPrinted}}, want: true},
		{name: "status miss", filter: QueryFilter{Statuses: []Status{StatusProcessed}}},
		{name: "issued from", filter: QueryFilter{IssuedFrom: core.NewQueryTime(now.Add(time.Minute))}},
		{name: "issued to", filter: QueryFilter{IssuedTo: core.NewQueryTime(now.Add(time.Minute))}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(inv))
		})
	}
}
