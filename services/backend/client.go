// Package backendsvc is the client of the remote bursary backend, a set of PHP endpoints
// answering with a {success, message, ...} JSON envelope.
package backendsvc

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/application"
	"github.com/mbooni/bursary/core/disbursement"
	"github.com/mbooni/bursary/core/notification"
)

// Endpoints, relative to the base URL.
const (
	applicationEndpoint      = "/application.php"
	adminApplicationEndpoint = "/adminapplications.php"
	disbursementEndpoint     = "/disbursement.php"
	receiptEndpoint          = "/download_receipt.php"
	notificationEndpoint     = "/notifications/create_notification.php"
)

type Client struct {
	baseURL string
	rest    *rest.Client
	logger  core.Logger
}

var (
	_ application.Backend  = (*Client)(nil)
	_ disbursement.Backend = (*Client)(nil)
	_ notification.Sender  = (*Client)(nil)
)

// NewClient returns a Client of the backend at conf.Backend.BaseURL.
// Requests time out after conf.Backend.Timeout; there are no retries.
func NewClient(conf *core.Config, logger core.Logger) (*Client, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "creating backend client")
	}
	if err = vala.BeginValidation().Validate(vala.StringNotEmpty(conf.Backend.BaseURL, "conf.Backend.BaseURL")).Check(); err != nil {
		return nil, errors.Wrap(err, "creating backend client")
	}

	return &Client{
		baseURL: strings.TrimRight(conf.Backend.BaseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: conf.Backend.Timeout}},
		logger:  logger,
	}, nil
}

func (c *Client) newRequest(method rest.Method, endpoint string) rest.Request {
	return rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + endpoint,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: make(map[string]string),
	}
}

// send performs req. Transport failures are wrapped as core.ErrUpstream.
func (c *Client) send(ctx context.Context, req rest.Request) (*rest.Response, error) {
	resp, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("backend %s %s: %v", req.Method, req.BaseURL, err), err)
		return nil, errors.Wrapf(core.ErrUpstream, "%s %s: %v", req.Method, req.BaseURL, err)
	}
	return resp, nil
}

// call performs req and decodes the envelope of the response.
// A response reporting success:false is a *core.RemoteError carrying the backend message (failMsg when none).
func (c *Client) call(ctx context.Context, req rest.Request, failMsg string) (envelope, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return envelope{}, err
	}

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("backend %s %s (%d): %v", req.Method, req.BaseURL, resp.StatusCode, err), err)
		return envelope{}, errors.Wrapf(core.ErrUpstream, "%s %s (%d): %v", req.Method, req.BaseURL, resp.StatusCode, err)
	}
	if env.failed() {
		return env, core.NewRemoteError(env.message(failMsg))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return env, errors.Wrapf(core.ErrUpstream, "%s %s: status %d", req.Method, req.BaseURL, resp.StatusCode)
	}
	return env, nil
}
