package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core/contact"
)

var contactSent = "Mensagem enviada! Responderemos em breve."

func registerContactAPI(g *echo.Group, svc *contact.Service, validate *validator.Validate) {
	g.POST("/contact", func(ctx echo.Context) error {
		var msg contact.Message
		if err := ctx.Bind(&msg); err != nil {
			return errors.Wrap(err, "binding to contact.Message")
		}
		if err := msg.Validate(validate); err != nil {
			return err
		}
		svc.Send(msg)
		return ctx.JSON(http.StatusOK, SuccessResponse{Success: contactSent})
	})
}
