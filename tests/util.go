// Package testutil holds fixtures shared by the API and CLI tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trezcool/fotoescola/core/course"
	"github.com/trezcool/fotoescola/core/payment"
	"github.com/trezcool/fotoescola/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{}
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateTransaction stores a transaction of amount (e.g. "990.00") as is, bypassing the status machine.
func CreateTransaction(
	t *testing.T,
	repo payment.Repository,
	id, payerID, payerName, payerEmail, amount, description string,
	status payment.Status,
) payment.Transaction {
	t.Helper()

	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	tx, err := repo.CreateTransaction(context.Background(), payment.Transaction{
		ID:            id,
		PayerID:       payerID,
		PayerName:     payerName,
		PayerEmail:    payerEmail,
		PayerDocument: "12345678909",
		PayerAddress: payment.Address{
			Street:   "Rua Augusta",
			Number:   "1500",
			District: "Consolação",
			City:     "São Paulo",
			CityCode: "3550308",
			State:    "SP",
			ZipCode:  "01304001",
		},
		Amount:      decimal.RequireFromString(amount),
		Method:      payment.MethodPix,
		Status:      status,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() failed: %v", err)
	}
	return tx
}

func CreateCourse(t *testing.T, repo course.Repository, slug, title string, level course.Level, published bool) course.Course {
	t.Helper()

	now := time.Now().UTC()
	c, err := repo.CreateCourse(context.Background(), course.Course{
		ID:            uuid.New().String(),
		Slug:          slug,
		Title:         title,
		Level:         level,
		Price:         decimal.RequireFromString("490.00"),
		DurationHours: 12,
		IsPublished:   published,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}
