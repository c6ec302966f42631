package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fotoescola/core/payment"
	"github.com/trezcool/fotoescola/core/user"
	testutil "github.com/trezcool/fotoescola/tests"
)

func Test_financeApi_permissions(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@fotoescola.com.br", "", []string{user.RoleAdmin}, true)
	finance := testutil.CreateUser(t, app.usrRepo, "Fabio", "fabio", "fabio@fotoescola.com.br", "", []string{user.RoleAdminFinance}, true)
	owner := testutil.CreateUser(t, app.usrRepo, "Dona", "dona", "dona@fotoescola.com.br", "", []string{user.RoleAdminOwner}, true)

	for _, path := range []string{"/v1/admin/transactions", "/v1/admin/invoices", "/v1/admin/finance/summary"} {
		runHTTPTests(t, app, []httpTest{
			{name: path + ": auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{name: path + ": student", path: path, token: app.token(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
			{name: path + ": plain admin", path: path, token: app.token(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
			{name: path + ": finance", path: path, token: app.token(t, finance)},
			{name: path + ": owner", path: path, token: app.token(t, owner)},
		})
	}
}

func Test_financeApi_transactions(t *testing.T) {
	app := setup(t)

	finance := testutil.CreateUser(t, app.usrRepo, "Fabio", "fabio", "fabio@fotoescola.com.br", "", []string{user.RoleAdminFinance}, true)
	token := app.token(t, finance)

	newTx := func(name, amount, method string) []byte {
		return []byte(`{"payer_name":"` + name + `","payer_email":"carlos@email.com","payer_document":"123.456.789-09",` +
			`"amount":"` + amount + `","method":"` + method + `","description":"Matrícula - Fotografia Básica"}`)
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "create: required fields", method: http.MethodPost, path: "/v1/admin/transactions", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "create: amount must be positive", method: http.MethodPost, path: "/v1/admin/transactions", token: token,
			body: newTx("Carlos Silva", "0", "pix"), wantCode: http.StatusBadRequest,
		},
		{
			name: "create: amount too large", method: http.MethodPost, path: "/v1/admin/transactions", token: token,
			body: newTx("Carlos Silva", "10000000000", "pix"), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"amount":"o valor deve ser no máximo R$ 9.999.999.999,99"}`),
		},
		{
			name: "create: payer name too long", method: http.MethodPost, path: "/v1/admin/transactions", token: token,
			body: newTx(strings.Repeat("a", 256), "10", "pix"), wantCode: http.StatusBadRequest,
		},
		{
			name: "create: invalid document", method: http.MethodPost, path: "/v1/admin/transactions", token: token,
			body: []byte(`{"payer_name":"Carlos","payer_document":"111.111.111-11","amount":"10","method":"pix","description":"x"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"payer_document":"CPF ou CNPJ inválido"}`),
		},
		{
			name: "create: unknown method", method: http.MethodPost, path: "/v1/admin/transactions", token: token,
			body: newTx("Carlos Silva", "10", "cheque"), wantCode: http.StatusBadRequest,
		},
		{name: "unknown transaction", path: "/v1/admin/transactions/nope", token: token, wantCode: http.StatusNotFound},
	})

	create := func(t *testing.T, body []byte) payment.Transaction {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/transactions", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var tx payment.Transaction
		unmarshal(t, rec, &tx)
		return tx
	}

	carlos := create(t, newTx("Carlos Silva", "990.00", "pix"))
	assert.Equal(t, payment.StatusPending, carlos.Status)
	assert.Equal(t, "12345678909", carlos.PayerDocument)
	assert.True(t, decimal.RequireFromString("990").Equal(carlos.Amount))

	maria := create(t, newTx("Maria Santos", "1250.5", "credit_card"))
	joao := create(t, newTx("João Pereira", "300", "boleto"))

	runHTTPTests(t, app, []httpTest{
		{name: "complete", method: http.MethodPost, path: "/v1/admin/transactions/" + carlos.ID + "/complete", token: token},
		{name: "fail", method: http.MethodPost, path: "/v1/admin/transactions/" + joao.ID + "/fail", token: token},
		{
			name: "settled transactions are final", method: http.MethodPost, path: "/v1/admin/transactions/" + carlos.ID + "/fail", token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "a transação já foi finalizada"}),
		},
	})

	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/transactions?status=pending&status=failed&ordering=payer_name", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var txs []payment.Transaction
		unmarshal(t, rec, &txs)
		require.Len(t, txs, 2)
		assert.Equal(t, joao.ID, txs[0].ID)
		assert.Equal(t, maria.ID, txs[1].ID)
	})

	t.Run("summary", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/finance/summary", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sum payment.Summary
		unmarshal(t, rec, &sum)
		assert.Equal(t, 3, sum.Count)
		assert.Equal(t, "2540.5", sum.Total.String())
		assert.Equal(t, "990", sum.Revenue.String())
		assert.Equal(t, "1250.5", sum.Outstanding.String())
		assert.Equal(t, 1, sum.ByStatus[payment.StatusFailed].Count)
	})
}

func Test_meApi(t *testing.T) {
	app := setup(t)

	ana := testutil.CreateUser(t, app.usrRepo, "Ana Souza", "ana", "ana@fotoescola.com.br", "", []string{user.RoleStudent}, true)
	bruno := testutil.CreateUser(t, app.usrRepo, "Bruno Lima", "bruno", "bruno@fotoescola.com.br", "", []string{user.RoleStudent}, true)

	mine := testutil.CreateTransaction(t, app.txRepo, "", ana.ID, ana.Name, ana.Email, "490.00", "Matrícula - Fotografia Básica", payment.StatusCompleted)
	testutil.CreateTransaction(t, app.txRepo, "", bruno.ID, bruno.Name, bruno.Email, "490.00", "Matrícula - Fotografia Básica", payment.StatusCompleted)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/me/transactions", wantCode: http.StatusUnauthorized},
		{name: "own transactions only", path: "/v1/me/transactions", token: app.token(t, ana), wantData: marchallList(t, mine)},
		{name: "payer_id cannot be overridden", path: "/v1/me/transactions?payer_id=" + bruno.ID, token: app.token(t, ana), wantData: marchallList(t, mine)},
		{name: "no invoices yet", path: "/v1/me/invoices", token: app.token(t, ana), wantData: marchallList(t)},
	})
}
