package backendsvc

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/mbooni/bursary/core"
	"github.com/mbooni/bursary/core/notification"
)

const notificationFailText = "Failed to send notification"

func (c *Client) CreateNotification(ctx context.Context, nn notification.NewNotification) (string, error) {
	body, err := json.Marshal(nn)
	if err != nil {
		return "", errors.Wrap(err, "encoding notification")
	}
	req := c.newRequest(rest.Post, notificationEndpoint)
	req.Headers["Content-Type"] = "application/json"
	req.Body = body

	env, err := c.call(ctx, req, notificationFailText)
	if err != nil {
		return "", err
	}
	if !env.succeeded() {
		return "", core.NewRemoteError(env.message(notificationFailText))
	}
	return env.Message, nil
}
