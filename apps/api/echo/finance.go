package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core/payment"
)

type financeApi struct {
	svc      *payment.Service
	validate *validator.Validate
}

func registerFinanceAPI(g *echo.Group, svc *payment.Service, validate *validator.Validate) {
	api := financeApi{svc: svc, validate: validate}

	g.GET("/transactions", api.query)
	g.POST("/transactions", api.create)
	g.GET("/transactions/:id", api.retrieve)
	g.POST("/transactions/:id/complete", api.setStatus(payment.StatusCompleted))
	g.POST("/transactions/:id/fail", api.setStatus(payment.StatusFailed))
	g.GET("/finance/summary", api.summary)
}

func (api *financeApi) query(ctx echo.Context) error {
	var filter payment.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []payment.Transaction{})
	}
	txs, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	return ctx.JSON(http.StatusOK, txs)
}

func (api *financeApi) create(ctx echo.Context) error {
	var data payment.NewTransaction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTransaction")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tx, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating transaction")
	}
	return ctx.JSON(http.StatusCreated, tx)
}

func (api *financeApi) retrieve(ctx echo.Context) error {
	tx, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting transaction")
	}
	return ctx.JSON(http.StatusOK, tx)
}

func (api *financeApi) setStatus(status payment.Status) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tx, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), status)
		if err != nil {
			return errors.Wrapf(err, "setting transaction status to %s", status)
		}
		return ctx.JSON(http.StatusOK, tx)
	}
}

func (api *financeApi) summary(ctx echo.Context) error {
	var filter payment.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "computing summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}
