package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core/invoice"
)

type invoiceApi struct {
	svc *invoice.Service
}

type UpdateInvoiceStatusRequest struct {
	Status invoice.Status `json:"status"`
}

func registerInvoiceAPI(g *echo.Group, svc *invoice.Service) {
	api := invoiceApi{svc: svc}

	g.POST("/transactions/:id/invoice", api.issue)
	g.GET("/invoices", api.query)
	g.GET("/invoices/:id", api.retrieve)
	g.PUT("/invoices/:id/status", api.updateStatus)
	g.GET("/invoices/:id/print", api.print)
	g.GET("/invoices/:id/download", api.download)
	g.POST("/invoices/:id/send", api.send)
	g.GET("/invoices/:id/xml", api.xml)
}

func (api *invoiceApi) issue(ctx echo.Context) error {
	inv, err := api.svc.Issue(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "issuing invoice")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *invoiceApi) query(ctx echo.Context) error {
	var filter invoice.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []invoice.Invoice{})
	}
	invs, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (api *invoiceApi) retrieve(ctx echo.Context) error {
	inv, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting invoice")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *invoiceApi) updateStatus(ctx echo.Context) error {
	var data UpdateInvoiceStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInvoiceStatusRequest")
	}
	inv, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating invoice status")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *invoiceApi) print(ctx echo.Context) error {
	_, page, err := api.svc.Print(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "printing invoice")
	}
	return ctx.HTML(http.StatusOK, page)
}

func (api *invoiceApi) download(ctx echo.Context) error {
	format := invoice.Format(ctx.QueryParam("format"))
	_, doc, err := api.svc.Download(ctx.Request().Context(), ctx.Param("id"), format)
	if err != nil {
		return errors.Wrap(err, "downloading invoice")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+doc.Filename)
	return ctx.Blob(http.StatusOK, doc.ContentType, doc.Content)
}

func (api *invoiceApi) send(ctx echo.Context) error {
	inv, err := api.svc.Send(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "sending invoice")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *invoiceApi) xml(ctx echo.Context) error {
	doc, err := api.svc.AbrasfXML(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "generating ABRASF XML")
	}
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(doc))
}
