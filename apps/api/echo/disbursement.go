package echoapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core/disbursement"
)

type studentApi struct {
	svc *disbursement.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *disbursement.Service) {
	api := studentApi{svc: svc}

	sg := g.Group("/student", jwt, studentMiddleware())
	sg.GET("/disbursements", api.disbursements)
	sg.GET("/disbursements/:id/receipt", api.receipt)
}

func (api *studentApi) disbursements(ctx echo.Context) error {
	listing, err := api.svc.Student(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing disbursements")
	}
	return respond(ctx, http.StatusOK, "", listing)
}

func (api *studentApi) receipt(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	rcpt, err := api.svc.Receipt(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "downloading receipt")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rcpt.Filename))
	return ctx.Blob(http.StatusOK, rcpt.ContentType, rcpt.Content)
}
