package mq

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/otpkeeper/internal/authenticator/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/messaging"
	"github.com/shandysiswandi/otpkeeper/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAccountsRegistered(ctx context.Context, msg usecase.AccountsRegisteredEvent) error {
	ctx, span := m.ins.Tracer("authenticator.outbound.mq").Start(ctx, "PublishAccountsRegistered")
	defer span.End()

	body, err := json.Marshal(event.AccountsRegisteredMessage{
		EventID:      msg.EventID,
		Source:       msg.Source,
		Accounts:     msg.Accounts,
		Skipped:      msg.Skipped,
		RegisteredAt: msg.RegisteredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.AccountsRegisteredDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.EventID),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
