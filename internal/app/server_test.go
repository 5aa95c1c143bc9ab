package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
)

func TestServeAndStop(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  server:\n    auth_token: token\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		ctx:       ctx,
		cancel:    cancel,
		ready:     atomic.NewBool(false),
		config:    cfg,
		ins:       instrument.NewNoop(),
		goroutine: goroutine.NewManager(1),
	}
	a.router = router.NewRouter(router.Config{Config: cfg, UUID: uid.Static("cid"), Instrument: a.ins})
	a.router.GET("/health", a.health)
	a.httpServer = &http.Server{Handler: a.router}

	var closed []string
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{name: "first", fn: func(context.Context) error { closed = append(closed, "first"); return nil }},
		{name: "second", fn: func(context.Context) error { closed = append(closed, "second"); return nil }},
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errChan := a.Serve(l)

	// health is public even with a bearer token configured
	resp, err := http.Get("http://" + l.Addr().String() + "/health")
	require.NoError(t, err)
	var body struct {
		Data healthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body.Data.Status)

	a.Stop(context.Background())

	assert.ErrorIs(t, <-errChan, http.ErrServerClosed)
	assert.False(t, a.ready.Load())
	assert.Equal(t, []string{"first", "second"}, closed)
	assert.Error(t, ctx.Err())
}
