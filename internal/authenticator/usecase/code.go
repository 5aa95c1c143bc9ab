package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
)

type (
	GetCodeInput struct {
		Account string `json:"account" validate:"required"`
	}

	GetCodeOutput struct {
		Account   string
		Code      string
		ExpiresIn int
	}
)

func (s *Usecase) GetCode(ctx context.Context, in GetCodeInput) (*GetCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "GetCode")
	defer span.End()

	in.Account = strings.TrimSpace(in.Account)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, ok := s.registry.Get(in.Account)
	if !ok {
		return nil, goerror.NewBusiness("account not registered", goerror.CodeNotFound)
	}

	now := s.clock.Now()
	code, err := s.totp.GenerateCode(secret, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp code", "account", in.Account, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.codesCounter.Add(ctx, 1)

	return &GetCodeOutput{
		Account:   in.Account,
		Code:      code,
		ExpiresIn: s.totp.SecondsRemaining(now),
	}, nil
}
