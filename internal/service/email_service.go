package service

import "context"

type EmailService interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendVerificationCode(ctx context.Context, to, name, code string) error
}
