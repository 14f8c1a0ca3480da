package services

import (
	"context"

	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/validate"
)

// SecondFactorVerifier checks the one-time code of a user with two-factor
// enabled. A nil error means the code is accepted.
type SecondFactorVerifier interface {
	Verify(ctx context.Context, user *models.User, code string) error
}

// PatternVerifier accepts any six-digit code. It checks the shape only and
// provides no second-factor security; deployments replace it with a TOTP or
// SMS verifier.
type PatternVerifier struct{}

func (PatternVerifier) Verify(_ context.Context, _ *models.User, code string) error {
	if !validate.SixDigitCode(code) {
		return ErrSecondFactorInvalid
	}
	return nil
}
