package echoapi

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core/application"
	"github.com/mbooni/bursary/core/user"
)

const (
	draftSavedText   = "Draft saved"
	draftDeletedText = "Draft discarded"
)

type (
	// DraftResponse is a draft along with the state of its current step.
	DraftResponse struct {
		application.Draft
		StepName string   `json:"step_name"`
		NumSteps int      `json:"num_steps"`
		Required []string `json:"required"`
		Missing  []string `json:"missing"`
		Confirm  bool     `json:"confirm"`
	}

	FormResponse struct {
		Steps     []application.Step         `json:"steps"`
		Fields    []application.Field        `json:"fields"`
		Submit    []string                   `json:"submit"`
		Locations []application.Constituency `json:"locations"`
	}

	wizardApi struct {
		svc    *application.Service
		usrSvc user.Service
	}
)

func newDraftResponse(form *application.Form, d application.Draft) DraftResponse {
	resp := DraftResponse{
		Draft:    d,
		NumSteps: form.NumSteps(),
		Required: form.Required(d.Step, &d),
		Missing:  form.Missing(d.Step, &d),
		Confirm:  d.Step == form.NumSteps(),
	}
	if s, ok := form.Step(d.Step); ok {
		resp.StepName = s.Name
	}
	if resp.Required == nil {
		resp.Required = []string{}
	}
	if resp.Missing == nil {
		resp.Missing = []string{}
	}
	return resp
}

func registerFormAPI(g *echo.Group, svc *application.Service) {
	g.GET("/locations", func(ctx echo.Context) error {
		return respond(ctx, http.StatusOK, "", svc.Form().Locations())
	})
	g.GET("/application/form", func(ctx echo.Context) error {
		form := svc.Form()
		return respond(ctx, http.StatusOK, "", FormResponse{
			Steps:     form.Steps(),
			Fields:    form.Fields(),
			Submit:    form.SubmitRequired(),
			Locations: form.Locations(),
		})
	})
}

func registerWizardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *application.Service, usrSvc user.Service) {
	api := wizardApi{svc: svc, usrSvc: usrSvc}

	dg := g.Group("/application/drafts", jwt, studentMiddleware())
	dg.POST("", api.start)
	dg.GET("", api.list)
	dg.GET("/:id", api.retrieve)
	dg.PATCH("/:id", api.update)
	dg.DELETE("/:id", api.discard)
	dg.POST("/:id/next", api.next)
	dg.POST("/:id/back", api.back)
	dg.POST("/:id/submit", api.submit)
}

// owner returns the ID of the authenticated student.
func owner(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (api *wizardApi) draft(ctx echo.Context, code int, msg string, d application.Draft) error {
	return respond(ctx, code, msg, newDraftResponse(api.svc.Form(), d))
}

func (api *wizardApi) start(ctx echo.Context) error {
	ownerID, err := owner(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Start(ownerID)
	if err != nil {
		return errors.Wrap(err, "starting draft")
	}
	return api.draft(ctx, http.StatusCreated, "", d)
}

func (api *wizardApi) list(ctx echo.Context) error {
	ownerID, err := owner(ctx)
	if err != nil {
		return err
	}
	drafts, err := api.svc.List(ownerID)
	if err != nil {
		return errors.Wrap(err, "listing drafts")
	}
	resp := make([]DraftResponse, 0, len(drafts))
	for _, d := range drafts {
		resp = append(resp, newDraftResponse(api.svc.Form(), d))
	}
	return respond(ctx, http.StatusOK, "", resp)
}

func (api *wizardApi) retrieve(ctx echo.Context) error {
	ownerID, err := owner(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Get(ownerID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting draft")
	}
	return api.draft(ctx, http.StatusOK, "", d)
}

// update sets draft fields from a JSON object of strings, or from a multipart form carrying documents.
func (api *wizardApi) update(ctx echo.Context) error {
	ownerID, err := owner(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")

	var (
		fields map[string]string
		files  []application.File
	)
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if fields, files, err = readMultipart(ctx); err != nil {
			return err
		}
	} else if err = json.NewDecoder(ctx.Request().Body).Decode(&fields); err != nil && err != io.EOF {
		// echo's Bind would also copy the :id path param into the map
		return echo.NewHTTPError(http.StatusBadRequest, "a JSON object of strings is expected").SetInternal(err)
	}

	d, err := api.svc.Change(ownerID, id, fields, files...)
	if err != nil {
		return errors.Wrap(err, "updating draft")
	}
	return api.draft(ctx, http.StatusOK, draftSavedText, d)
}

// readMultipart returns the first value of every form field and the content of every uploaded file.
func readMultipart(ctx echo.Context) (map[string]string, []application.File, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	}

	fields := make(map[string]string, len(form.Value))
	for name, values := range form.Value {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}

	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]application.File, 0, len(names))
	for _, name := range names {
		if len(form.File[name]) == 0 {
			continue
		}
		fh := form.File[name][0]
		f, err := fh.Open()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "opening %s", fh.Filename)
		}
		content, err := ioutil.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading %s", fh.Filename)
		}
		files = append(files, application.File{
			Name:        name,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Content:     content,
		})
	}
	return fields, files, nil
}

func (api *wizardApi) discard(ctx echo.Context) error {
	ownerID, err := owner(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Discard(ownerID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "discarding draft")
	}
	return respond(ctx, http.StatusOK, draftDeletedText, nil)
}

func (api *wizardApi) next(ctx echo.Context) error {
	ownerID, err := owner(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Advance(ownerID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "advancing draft")
	}
	return api.draft(ctx, http.StatusOK, "", d)
}

func (api *wizardApi) back(ctx echo.Context) error {
	ownerID, err := owner(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.Retreat(ownerID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retreating draft")
	}
	return api.draft(ctx, http.StatusOK, "", d)
}

func (api *wizardApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	applicant := application.Applicant{ID: usr.ID, Name: usr.Name, Email: usr.Email}

	rcpt, err := api.svc.Submit(ctx.Request().Context(), applicant, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "submitting application")
	}
	return respond(ctx, http.StatusOK, rcpt.Message, rcpt)
}
