package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core/application"
	"github.com/mbooni/bursary/core/disbursement"
	"github.com/mbooni/bursary/core/notification"
	"github.com/mbooni/bursary/core/report"
)

type (
	adminServices struct {
		applications  *application.Service
		disbursements *disbursement.Service
		notifications *notification.Service
		reports       *report.Service
	}

	adminApi struct {
		adminServices
		validate *validator.Validate
	}
)

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, svcs adminServices, validate *validator.Validate) {
	api := adminApi{adminServices: svcs, validate: validate}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/applications", api.queryApplications)
	ag.GET("/disbursements", api.queryDisbursements)
	ag.POST("/notifications", api.notify)
	ag.GET("/reports", api.annualReport)
}

// Handlers

func (api *adminApi) queryApplications(ctx echo.Context) error {
	var filter application.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errInvalidQuery
	}
	page, err := api.applications.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	return respond(ctx, http.StatusOK, "", page)
}

func (api *adminApi) queryDisbursements(ctx echo.Context) error {
	var filter disbursement.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errInvalidQuery
	}
	listing, err := api.disbursements.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying disbursements")
	}
	return respond(ctx, http.StatusOK, "", listing)
}

func (api *adminApi) notify(ctx echo.Context) error {
	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.notifications.Send(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending notification")
	}
	return respond(ctx, http.StatusCreated, msg, nil)
}

func (api *adminApi) annualReport(ctx echo.Context) error {
	rpt, err := api.reports.Annual(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing annual report")
	}
	return respond(ctx, http.StatusOK, "", rpt)
}
