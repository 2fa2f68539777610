package user

import (
	"context"

	"github.com/mbooni/bursary/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that sends its mails synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:     repo,
			mailSvc:  mailSvc,
			logger:   logger,
			tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: CleanIdentifier(email)})
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

// MakePasswordResetToken exposes reset tokens to tests.
func MakePasswordResetToken(svc Service, usr User) string {
	if m, ok := svc.(*serviceMock); ok {
		return m.tokenGen.makeToken(usr)
	}
	return svc.(*service).tokenGen.makeToken(usr)
}
