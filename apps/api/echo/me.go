package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core/invoice"
	"github.com/trezcool/fotoescola/core/payment"
)

// meApi is the student area: the authenticated user's own profile, payments and invoices.
type meApi struct {
	auth       *authenticator
	paymentSvc *payment.Service
	invoiceSvc *invoice.Service
}

func registerMeAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, paymentSvc *payment.Service, invoiceSvc *invoice.Service) {
	api := meApi{auth: auth, paymentSvc: paymentSvc, invoiceSvc: invoiceSvc}

	mg := g.Group("/me", jwt)
	mg.GET("", api.retrieve)
	mg.GET("/transactions", api.transactions)
	mg.GET("/invoices", api.invoices)
}

func (api *meApi) retrieve(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *meApi) transactions(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter payment.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []payment.Transaction{})
	}
	filter.PayerID = usr.ID

	txs, err := api.paymentSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	return ctx.JSON(http.StatusOK, txs)
}

func (api *meApi) invoices(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter invoice.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []invoice.Invoice{})
	}
	filter.PayerID = usr.ID

	invs, err := api.invoiceSvc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	return ctx.JSON(http.StatusOK, invs)
}
