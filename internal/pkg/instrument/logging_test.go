package instrument_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNewLogger_MasksFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := instrument.NewLogger(&buf, "otpkeeper", slog.LevelInfo, []string{"Secret", " authorization "}, nil)

	logger.InfoContext(context.Background(), "registered",
		"account", "alice@example.com",
		"secret", "JBSWY3DPEHPK3PXP",
		"headers", map[string]string{"Authorization": "Bearer abc", "Accept": "*/*"},
		"body", `{"uri":"otpauth://x","secret":"S"}`,
		slog.Group("req", slog.String("secret", "nested")),
	)

	line := decodeLine(t, &buf)
	assert.Equal(t, "registered", line["msg"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Equal(t, "otpkeeper", line["service"])
	assert.Contains(t, line, "ts")
	assert.Equal(t, "alice@example.com", line["account"])
	assert.Equal(t, "***", line["secret"])
	assert.Equal(t, map[string]any{"Authorization": "***", "Accept": "*/*"}, line["headers"])
	assert.JSONEq(t, `{"uri":"otpauth://x","secret":"***"}`, line["body"].(string))
	assert.Equal(t, map[string]any{"secret": "***"}, line["req"])
}

func TestNewLogger_WithAttrsMasked(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := instrument.NewLogger(&buf, "svc", slog.LevelInfo, []string{"secret"}, nil).With("secret", "x")

	logger.Info("hello")

	line := decodeLine(t, &buf)
	assert.Equal(t, "***", line["secret"])
	assert.Equal(t, "svc", line["service"])
}

func TestNewLogger_CorrelationIDAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := instrument.NewLogger(&buf, "svc", slog.LevelWarn, nil, nil)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	ctx := instrument.SetCorrelationID(context.Background(), "cid-42")
	logger.WarnContext(ctx, "kept")

	line := decodeLine(t, &buf)
	assert.Equal(t, "cid-42", line["_cID"])
	assert.Equal(t, "WARN", line["severity"])
}

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, instrument.GetCorrelationID(context.Background()))

	ctx := instrument.SetCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", instrument.GetCorrelationID(ctx))
}

func TestNewNoop(t *testing.T) {
	t.Parallel()

	ins := instrument.NewNoop()
	_, span := ins.Tracer("test").Start(context.Background(), "op")
	span.End()

	counter, err := ins.Meter("test").Int64Counter("calls")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	assert.NoError(t, ins.Shutdown(context.Background()))
}
