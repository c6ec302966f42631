package user

import (
	"context"

	"github.com/trezcool/fotoescola/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that sends password reset emails synchronously.
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
	usr, err := svc.activeUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

// MakeResetToken returns a valid password reset token for usr.
func MakeResetToken(svc Service, usr User) string {
	switch s := svc.(type) {
	case *serviceMock:
		return s.tokens.makeToken(usr)
	case *service:
		return s.tokens.makeToken(usr)
	}
	return ""
}
