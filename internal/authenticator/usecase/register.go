package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shandysiswandi/otpkeeper/internal/authenticator/entity"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/migration"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otpuri"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/qrscan"
)

type (
	RegisterImageInput struct {
		Image          []byte
		IdempotencyKey string
	}

	RegisterURIInput struct {
		URI            string `json:"uri" validate:"required,otpuri"`
		IdempotencyKey string `json:"-"`
	}

	RegisterOutput struct {
		Kind     entity.RegistrationKind
		Message  string
		Accounts []string
		Skipped  int
	}
)

func (s *Usecase) RegisterImage(ctx context.Context, in RegisterImageInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterImage")
	defer span.End()

	if len(in.Image) == 0 {
		return nil, goerror.NewInvalidInput(nil, "image", "image is required")
	}

	text, found, err := s.scanner.Scan(in.Image)
	if errors.Is(err, qrscan.ErrInvalidImage) {
		slog.WarnContext(ctx, "failed to decode uploaded image", "size", len(in.Image), "error", err)
		return nil, goerror.WrapBusiness(err, "the uploaded file is not a supported image", goerror.CodeUnprocessable)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to scan image", "error", err)
		return nil, goerror.NewServer(err)
	}
	if !found {
		slog.WarnContext(ctx, "no qr code found in image", "size", len(in.Image))
		return nil, goerror.NewBusiness("could not decode a QR code from the image", goerror.CodeUnprocessable)
	}

	return s.registerOnce(ctx, in.IdempotencyKey, entity.SourceImage, text)
}

func (s *Usecase) RegisterURI(ctx context.Context, in RegisterURIInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterURI")
	defer span.End()

	in.URI = strings.TrimSpace(in.URI)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.registerOnce(ctx, in.IdempotencyKey, entity.SourceURI, in.URI)
}

// registerOnce runs register under the idempotency key when one is given.
func (s *Usecase) registerOnce(ctx context.Context, key string, src entity.Source, raw string) (*RegisterOutput, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.register(ctx, src, raw)
	}

	var out *RegisterOutput
	err := s.idemp.Exec(ctx, "authenticator:register:"+key, func(ctx context.Context) error {
		var err error
		out, err = s.register(ctx, src, raw)
		return err
	}, idempotency.WithStateTTL(s.cfg.GetSecond("modules.authenticator.idempotency_ttl_seconds")))

	var gerr *goerror.Error
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return nil, goerror.NewBusiness("a registration with this idempotency key is in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		return nil, goerror.NewBusiness("a registration with this idempotency key was already processed", goerror.CodeConflict)
	case errors.As(err, &gerr):
		return nil, err
	default:
		slog.ErrorContext(ctx, "failed to guard registration with idempotency key", "error", err)
		return nil, goerror.NewServer(err)
	}
}

func (s *Usecase) register(ctx context.Context, src entity.Source, raw string) (*RegisterOutput, error) {
	res, err := otpuri.Classify(raw)
	if err != nil {
		return nil, s.classifyError(ctx, res.Kind, err)
	}

	out := &RegisterOutput{Skipped: res.Skipped}
	switch res.Kind {
	case otpuri.KindSingle:
		acc := res.Accounts[0]
		s.registry.Set(acc.Name, acc.Secret)

		out.Kind = entity.RegistrationSingle
		out.Accounts = []string{acc.Name}
		out.Message = "Registered account " + acc.Name

	case otpuri.KindMigration:
		for i, acc := range res.Accounts {
			if reason, ok := skipReason(acc); ok {
				slog.InfoContext(ctx, "skipping migrated record", "index", i, "issuer", acc.Issuer, "reason", reason)
				out.Skipped++
				continue
			}
			s.registry.Set(acc.Name, acc.Secret)
			out.Accounts = append(out.Accounts, acc.Name)
		}
		if len(out.Accounts) == 0 {
			slog.WarnContext(ctx, "migration export has no registrable accounts", "skipped", out.Skipped)
			return nil, goerror.NewBusiness("export contains no registrable accounts", goerror.CodeUnprocessable)
		}

		out.Kind = entity.RegistrationMigration
		out.Message = fmt.Sprintf("Registered %d migrated accounts", len(out.Accounts))
	}

	if err := s.registry.Save(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to save registry", "accounts", len(out.Accounts), "error", err)
		return nil, goerror.NewServer(err)
	}

	s.registeredCounter.Add(ctx, int64(len(out.Accounts)), metric.WithAttributes(
		attribute.String("source", src.String()),
		attribute.String("kind", string(out.Kind)),
	))
	s.publishRegistered(ctx, src, out)

	return out, nil
}

func skipReason(acc otpuri.Account) (entity.SkipReason, bool) {
	switch {
	case strings.TrimSpace(acc.Name) == "":
		return entity.SkipEmptyName, true
	case acc.Secret == "":
		return entity.SkipEmptySecret, true
	case acc.Type == migration.OTPTypeHOTP:
		return entity.SkipNotTOTP, true
	}
	return "", false
}

func (s *Usecase) classifyError(ctx context.Context, kind otpuri.Kind, err error) error {
	var decErr *migration.DecodeError
	if kind == otpuri.KindMigration || errors.As(err, &decErr) {
		slog.WarnContext(ctx, "failed to decode migration export", "error", err)
		return goerror.WrapBusiness(err, "failed to process the exported QR", goerror.CodeUnprocessable)
	}

	slog.WarnContext(ctx, "text is not a valid totp uri", "kind", kind.String(), "error", err)
	return goerror.WrapBusiness(err, "the QR does not contain a valid TOTP URI", goerror.CodeUnprocessable)
}

func (s *Usecase) publishRegistered(ctx context.Context, src entity.Source, out *RegisterOutput) {
	msg := AccountsRegisteredEvent{
		EventID:      s.uuid.Generate(),
		Source:       src.String(),
		Accounts:     append([]string(nil), out.Accounts...),
		Skipped:      out.Skipped,
		RegisteredAt: s.clock.Now(),
	}

	started := s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishAccountsRegistered(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish accounts registered", "event_id", msg.EventID, "error", err)
		}
		return nil
	})
	if !started {
		slog.WarnContext(ctx, "accounts registered event dropped", "event_id", msg.EventID)
	}
}
