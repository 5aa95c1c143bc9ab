package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
)

const defaultExportSize = 256

type (
	ExportAccountInput struct {
		Account string `json:"account" validate:"required"`
		Size    int    `json:"size" validate:"omitempty,min=64,max=2048"`
	}

	ExportAccountOutput struct {
		Account     string
		ContentType string
		Image       []byte
	}
)

// ExportAccount renders the provisioning URI of an account as a PNG QR code.
func (s *Usecase) ExportAccount(ctx context.Context, in ExportAccountInput) (*ExportAccountOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportAccount")
	defer span.End()

	in.Account = strings.TrimSpace(in.Account)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, ok := s.registry.Get(in.Account)
	if !ok {
		return nil, goerror.NewBusiness("account not registered", goerror.CodeNotFound)
	}

	size := in.Size
	if size == 0 {
		size = s.cfg.GetInt("modules.authenticator.export_size")
	}
	if size <= 0 {
		size = defaultExportSize
	}

	png, err := qrcode.Encode(s.totp.ProvisioningURI(in.Account, secret), qrcode.Medium, size)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode qr code", "account", in.Account, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportAccountOutput{
		Account:     in.Account,
		ContentType: "image/png",
		Image:       png,
	}, nil
}
