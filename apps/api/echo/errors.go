package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/application"
	"github.com/mbooni/bursary/core/disbursement"
	"github.com/mbooni/bursary/core/user"
)

const invalidDataText = "invalid data"

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errInvalidQuery         = echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
)

// sentinelCode returns the status code of the domain sentinel errors.
// err may hold an uncomparable type such as validator.ValidationErrors.
func sentinelCode(err error) (int, bool) {
	switch err {
	case core.ErrUpstream:
		return http.StatusBadGateway, true
	case application.ErrDraftNotFound, disbursement.ErrNotFound, user.ErrNotFound:
		return http.StatusNotFound, true
	case application.ErrNoNextStep, application.ErrNotConfirmed:
		return http.StatusBadRequest, true
	case application.ErrSubmitted, disbursement.ErrReceiptUnavailable:
		return http.StatusConflict, true
	}
	return 0, false
}

// Response is the envelope of every API response.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Missing []string          `json:"missing,omitempty"`
}

func respond(ctx echo.Context, code int, msg string, data interface{}) error {
	return ctx.JSON(code, Response{Success: true, Message: msg, Data: data})
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := http.StatusInternalServerError
		resp := Response{}
		cause := errors.Cause(err)

		if sCode, ok := sentinelCode(cause); ok {
			code = sCode
			resp.Message = cause.Error()
		} else {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					resp.Message = fmt.Sprint(origErr.Message)
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				resp.Message = fmt.Sprint(origErr.Message)
			case validator.ValidationErrors:
				resp.Errors = make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					resp.Errors[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				resp.Message = invalidDataText
			case *core.ValidationError:
				if origErr.Fields != nil {
					resp.Errors = make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						resp.Errors[fErr.Field] = fErr.Error
					}
				}
				resp.Message = origErr.Error()
				if resp.Message == "" {
					resp.Message = invalidDataText
				}
				code = http.StatusBadRequest
			case *core.MissingFieldsError:
				code = http.StatusBadRequest
				resp.Message = origErr.Message
				resp.Missing = origErr.Fields
			case *core.RemoteError:
				code = http.StatusUnprocessableEntity
				resp.Message = origErr.Message
			default: // any other error is a server error
				msg := http.StatusText(http.StatusInternalServerError)
				resp.Message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Name = claims.Name
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				if ctx.Echo().Debug {
					resp.Message = err.Error()
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
