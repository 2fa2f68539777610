package backendsvc

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/application"
)

const (
	submitFailText    = "application could not be submitted"
	submittedText     = "Application submitted successfully"
	queryFailText     = "applications could not be loaded"
	defaultAppsStatus = application.StatusPending
)

// backend timestamps come in any of these layouts
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// SubmitApplication posts s as multipart/form-data in a single attempt.
func (c *Client) SubmitApplication(ctx context.Context, s application.Submission) (string, error) {
	body, contentType, err := encodeSubmission(s)
	if err != nil {
		return "", errors.Wrapf(err, "encoding draft %s", s.DraftID)
	}
	req := c.newRequest(rest.Post, applicationEndpoint)
	req.Headers["Content-Type"] = contentType
	req.Body = body

	env, err := c.call(ctx, req, submitFailText)
	if err != nil {
		return "", err
	}
	if !env.succeeded() {
		return "", core.NewRemoteError(env.message(submitFailText))
	}
	return env.message(submittedText), nil
}

type (
	applicationRow struct {
		ID                   flexInt    `json:"id"`
		FullName             flexString `json:"fullName"`
		FullNameSnake        flexString `json:"full_name"`
		AdmissionNo          flexString `json:"admissionNo"`
		AdmissionNoSnake     flexString `json:"admission_no"`
		Institution          flexString `json:"institution"`
		AcademicLevel        flexString `json:"academicLevel"`
		AcademicLevelSnake   flexString `json:"academic_level"`
		Status               flexString `json:"status"`
		SubmittedAt          flexString `json:"submittedAt"`
		SubmittedAtSnake     flexString `json:"submitted_at"`
		AmountRequested      flexFloat  `json:"amountRequested"`
		AmountRequestedSnake flexFloat  `json:"amount_requested"`
		Ward                 flexString `json:"ward"`
		Constituency         flexString `json:"constituency"`
		Reason               flexString `json:"reason"`
	}

	applicationsResponse struct {
		Applications []applicationRow `json:"applications"`
		Stats        struct {
			Total    flexInt `json:"total"`
			Pending  flexInt `json:"pending"`
			Approved flexInt `json:"approved"`
			Reviewed flexInt `json:"reviewed"`
			Rejected flexInt `json:"rejected"`
		} `json:"stats"`
	}
)

func (row applicationRow) toApplication() application.Application {
	app := application.Application{
		ID:           int(row.ID),
		Name:         first(row.FullName, row.FullNameSnake),
		AdmissionNo:  first(row.AdmissionNo, row.AdmissionNoSnake),
		Institution:  first(row.Institution),
		Level:        first(row.AcademicLevel, row.AcademicLevelSnake),
		Status:       first(row.Status),
		SubmittedAt:  parseTime(first(row.SubmittedAt, row.SubmittedAtSnake)),
		Ward:         first(row.Ward),
		Constituency: first(row.Constituency),
		Notes:        first(row.Reason),
	}
	if app.Status == "" {
		app.Status = defaultAppsStatus
	}
	switch {
	case row.AmountRequested.Valid:
		amount := row.AmountRequested.Value
		app.AmountRequested = &amount
	case row.AmountRequestedSnake.Valid:
		amount := row.AmountRequestedSnake.Value
		app.AmountRequested = &amount
	}
	return app
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// QueryApplications fetches the applications matching the status, level, year and search filters.
func (c *Client) QueryApplications(ctx context.Context, filter application.QueryFilter) (application.Listing, error) {
	req := c.newRequest(rest.Get, adminApplicationEndpoint)
	req.QueryParams["status"] = orAll(filter.Status)
	req.QueryParams["level"] = orAll(filter.Level)
	req.QueryParams["year"] = orAll(filter.Year)
	req.QueryParams["search"] = filter.Search

	env, err := c.call(ctx, req, queryFailText)
	if err != nil {
		return application.Listing{}, err
	}

	var resp applicationsResponse
	if err = env.decode(&resp); err != nil {
		return application.Listing{}, errors.Wrapf(core.ErrUpstream, "decoding applications: %v", err)
	}
	listing := application.Listing{
		Applications: make([]application.Application, 0, len(resp.Applications)),
		Stats: application.Stats{
			Total:    int(resp.Stats.Total),
			Pending:  int(resp.Stats.Pending),
			Approved: int(resp.Stats.Approved),
			Reviewed: int(resp.Stats.Reviewed),
			Rejected: int(resp.Stats.Rejected),
		},
	}
	for _, row := range resp.Applications {
		listing.Applications = append(listing.Applications, row.toApplication())
	}
	return listing, nil
}

func orAll(v string) string {
	if v == "" {
		return application.FilterAll
	}
	return v
}
