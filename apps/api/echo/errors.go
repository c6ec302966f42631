package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/blog"
	"github.com/trezcool/fotoescola/core/course"
	"github.com/trezcool/fotoescola/core/invoice"
	"github.com/trezcool/fotoescola/core/payment"
	"github.com/trezcool/fotoescola/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "usuário não autenticado")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "usuário ou senha inválidos")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "conta desativada")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "a sessão expirou, faça login novamente")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permissão negada")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "não encontrado")

	// domain errors mapped to an HTTP status other than 500
	sentinelCodes = map[error]int{
		user.ErrNotFound:         http.StatusNotFound,
		course.ErrNotFound:       http.StatusNotFound,
		course.ErrClassNotFound:  http.StatusNotFound,
		blog.ErrNotFound:         http.StatusNotFound,
		payment.ErrNotFound:      http.StatusNotFound,
		invoice.ErrNotFound:      http.StatusNotFound,
		invoice.ErrAlreadyIssued: http.StatusConflict,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if sc, ok := sentinelCodes[cause]; ok {
				code = sc
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
