package user

import (
	"context"

	"github.com/trezcool/educore/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that sends its emails synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
			tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByUsernameOrEmail(ctx, email)
	if err != nil {
		return err
	}
	if usr.IsActive {
		// run synchronously
		svc.sendPasswordResetMail(usr)
	}
	return nil
}

// MakeResetToken exposes the password reset token of usr to tests.
func (svc *serviceMock) MakeResetToken(usr User) string {
	return svc.tokens.makeToken(usr)
}
