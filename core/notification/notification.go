package notification

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mbooni/bursary/core"
)

// Targets
const (
	TargetAllStudents   = "all_students"
	TargetAllAdmins     = "all_admins"
	TargetSingleStudent = "single_student"
	TargetEveryone      = "everyone"
)

const sentText = "Notification sent!"

var Targets = []string{TargetAllStudents, TargetAllAdmins, TargetSingleStudent, TargetEveryone}

// NewNotification is an announcement an admin sends to a group of portal users.
type NewNotification struct {
	Title   string `json:"title" validate:"required,notblank,max=150"`
	Message string `json:"message" validate:"required,notblank"`
	Target  string `json:"target" validate:"required,oneof=all_students all_admins single_student everyone"`
}

// Validate sanitizes the text fields, defaults the target to all students and validates the notification.
func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.SanitizeText(nn.Title)
	nn.Message = core.SanitizeText(nn.Message)
	nn.Target = core.CleanString(nn.Target, true /* lower */)
	if nn.Target == "" {
		nn.Target = TargetAllStudents
	}
	return validate.Struct(nn)
}

// Sender delivers notifications; the remote backend does.
type Sender interface {
	CreateNotification(ctx context.Context, nn NewNotification) (string, error)
}

type Service struct {
	sender Sender
}

func NewService(sender Sender) *Service {
	return &Service{sender: sender}
}

// Send forwards a validated notification and returns the confirmation message.
func (svc *Service) Send(ctx context.Context, nn NewNotification) (string, error) {
	msg, err := svc.sender.CreateNotification(ctx, nn)
	if err != nil {
		return "", errors.Wrap(err, "sending notification")
	}
	if msg == "" {
		msg = sentText
	}
	return msg, nil
}
