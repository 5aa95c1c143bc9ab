package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpkeeper/internal/authenticator"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.authenticator.enabled") {
		if err := authenticator.New(a.ctx, authenticator.Dependency{
			DBConn:      a.dbConn,
			CacheConn:   a.cacheConn,
			Storage:     a.storage,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			Clock:       a.clock,
			Totp:        a.totp,
			Scanner:     a.scanner,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module authenticator", "error", err)
			os.Exit(1)
		}
	}
}
